package catalog

import (
	"slices"
	"testing"
)

func TestCatalogIntegrity(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("catalog invalid: %v", err)
	}
	ts := Templates()
	if len(ts) != 10 {
		t.Fatalf("expected 10 templates, got %d", len(ts))
	}
	for i, tmpl := range ts {
		if tmpl.ID != i+1 {
			t.Fatalf("template %d has id %d", i, tmpl.ID)
		}
	}
	if len(Personas()) != 3 {
		t.Fatalf("expected 3 personas, got %d", len(Personas()))
	}
}

func TestTemplatesReturnsCopies(t *testing.T) {
	ts := Templates()
	ts[0].Keywords[0] = "mutated"
	ts[0].BaseQuestion = "mutated"

	again, _ := TemplateByID(1)
	if again.Keywords[0] != "duration" || again.BaseQuestion == "mutated" {
		t.Fatal("catalog was mutated through a returned copy")
	}
}

func TestPersonaByID(t *testing.T) {
	p, ok := PersonaByID("STRICT")
	if !ok || p.Tone != ToneStrict {
		t.Fatalf("expected strict persona, got %+v (ok=%v)", p, ok)
	}
	if _, ok := PersonaByID("grumpy"); ok {
		t.Fatal("expected unknown persona to be absent")
	}
}

func TestToneInstruction(t *testing.T) {
	tests := map[Tone]string{
		ToneFriendly: "friendly and polite",
		ToneNeutral:  "professional and neutral",
		ToneStrict:   "strict and demanding",
	}
	for tone, want := range tests {
		if got := tone.Instruction(); got != want {
			t.Errorf("%s.Instruction() = %q, want %q", tone, got, want)
		}
	}
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		name  string
		used  map[int]bool
		asked []string
		want  []int
	}{
		{"nothing used", nil, nil, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{"ids excluded", map[int]bool{1: true, 2: true, 3: true}, nil, []int{4, 5, 6, 7, 8, 9, 10}},
		{"legacy text excluded", nil, []string{"  where will you stay? ", "Something unrelated"}, []int{1, 2, 3, 5, 6, 7, 8, 9, 10}},
		{"all used", map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for _, tmpl := range Available(tt.used, tt.asked) {
				got = append(got, tmpl.ID)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Available() ids = %v, want %v", got, tt.want)
			}
		})
	}
}

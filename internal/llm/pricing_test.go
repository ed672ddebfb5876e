package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	if c := LookupCost("gemini-2.5-flash"); c == nil || c.InputPerMTok != 0.3 {
		t.Fatalf("unexpected cost for gemini-2.5-flash: %+v", c)
	}
	if c := LookupCost("google/gemini-2.5-flash"); c == nil || c.OutputPerMTok != 2.5 {
		t.Fatalf("expected openrouter id to resolve, got %+v", c)
	}
	if c := LookupCost("no-such-model"); c != nil {
		t.Fatalf("expected nil for unknown model, got %+v", c)
	}
}

func TestModelCost_Cost(t *testing.T) {
	c := ModelCost{InputPerMTok: 1, OutputPerMTok: 5}
	got := c.Cost(1_000_000, 200_000)
	if math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("Cost() = %f, want 2.0", got)
	}
}

func TestSessionCost(t *testing.T) {
	got, ok := SessionCost("gpt-4o-mini", 1000, 200)
	if !ok {
		t.Fatal("expected known model")
	}
	want := 10 * (1000*0.15 + 200*0.6) / 1_000_000
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("SessionCost() = %g, want %g", got, want)
	}
	if _, ok := SessionCost("unknown", 1, 1); ok {
		t.Fatal("expected unknown model to report false")
	}
}

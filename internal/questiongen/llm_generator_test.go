package questiongen

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/abhisek/borderdrill/internal/catalog"
	"github.com/abhisek/borderdrill/internal/llm"
)

const validQuestion = `{
	"question": "How many days will you be in the country?",
	"questionJa": "この国には何日間滞在しますか？",
	"sampleAnswer": "Five days. I'm here for a tech conference.",
	"keywords": ["model", "invented", "these"],
	"questionId": 99,
	"persona": "someone-else"
}`

func fixedConfig(order []int, persona string) Config {
	cfg := DefaultConfig()
	cfg.Selector = FixedSelector{TemplateOrder: order, PersonaID: persona}
	return cfg
}

func requestText(req llm.Request) string {
	var b strings.Builder
	b.WriteString(req.System)
	for _, m := range req.Messages {
		b.WriteString("\n")
		b.WriteString(m.Content)
	}
	return b.String()
}

func TestNext_UsesTemplateKeywordsAndSelection(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(validQuestion))
	gen := New(mock, fixedConfig([]int{1}, "kind"))

	q, err := gen.Next(context.Background(), NextInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text != "How many days will you be in the country?" {
		t.Errorf("unexpected text: %q", q.Text)
	}
	if q.TemplateID != 1 {
		t.Errorf("expected template 1, got %d", q.TemplateID)
	}
	if q.PersonaID != "kind" {
		t.Errorf("expected persona kind, got %q", q.PersonaID)
	}
	tmpl, _ := catalog.TemplateByID(1)
	if !slices.Equal(q.Keywords, tmpl.Keywords) {
		t.Errorf("keywords = %v, want template keywords %v", q.Keywords, tmpl.Keywords)
	}

	req, _ := mock.LastRequest()
	if req.Schema != QuestionSchema {
		t.Error("expected the question schema on the request")
	}
}

func TestNext_StrictPersonaPromptHasOnlyStrictTone(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(validQuestion))
	gen := New(mock, fixedConfig(nil, "strict"))

	if _, err := gen.Next(context.Background(), NextInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, _ := mock.LastRequest()
	text := requestText(req)
	if !strings.Contains(text, catalog.ToneStrict.Instruction()) {
		t.Fatalf("prompt missing strict tone:\n%s", text)
	}
	for _, other := range []catalog.Tone{catalog.ToneFriendly, catalog.ToneNeutral} {
		if strings.Contains(text, other.Instruction()) {
			t.Fatalf("prompt contains %s tone instruction:\n%s", other, text)
		}
	}
}

func TestNext_PinnedPersonaOverridesSelector(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(validQuestion))
	gen := New(mock, fixedConfig(nil, "kind"))

	strict, _ := catalog.PersonaByID("strict")
	q, err := gen.Next(context.Background(), NextInput{Persona: &strict})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.PersonaID != "strict" {
		t.Fatalf("expected pinned persona strict, got %q", q.PersonaID)
	}
}

func TestNext_ExcludedTemplatesNeverChosen(t *testing.T) {
	used := map[int]bool{1: true, 2: true, 3: true}
	cfg := DefaultConfig()
	cfg.Selector = NewSeededSelector(7, 11)

	for i := range 50 {
		mock := llm.NewMockProvider(llm.MockText(validQuestion))
		q, err := New(mock, cfg).Next(context.Background(), NextInput{UsedTemplateIDs: used})
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
		if q.TemplateID < 4 || q.TemplateID > 10 {
			t.Fatalf("run %d: template %d was excluded", i, q.TemplateID)
		}
	}
}

func TestNext_CatalogExhausted(t *testing.T) {
	used := make(map[int]bool)
	for _, tmpl := range catalog.Templates() {
		used[tmpl.ID] = true
	}
	mock := llm.NewMockProvider(llm.MockText(validQuestion))

	_, err := New(mock, DefaultConfig()).Next(context.Background(), NextInput{UsedTemplateIDs: used})
	if !errors.Is(err, ErrNoQuestionsAvailable) {
		t.Fatalf("expected ErrNoQuestionsAvailable, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Fatalf("expected no LLM call, got %d", mock.CallCount())
	}
}

func TestNext_LegacyPreviousQuestions(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(validQuestion))
	gen := New(mock, fixedConfig([]int{4, 5}, "normal"))

	q, err := gen.Next(context.Background(), NextInput{
		PreviousQuestions: []string{"Where will you stay?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.TemplateID != 5 {
		t.Fatalf("expected template 4 to be excluded by text, got %d", q.TemplateID)
	}

	req, _ := mock.LastRequest()
	if !strings.Contains(req.Messages[0].Content, "1. Where will you stay?") {
		t.Fatalf("prior question not listed in prompt:\n%s", req.Messages[0].Content)
	}
}

func TestNext_FencedOutputAccepted(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("```json\n" + validQuestion + "\n```"))
	if _, err := New(mock, fixedConfig(nil, "")).Next(context.Background(), NextInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNext_GenerationFailures(t *testing.T) {
	tests := []struct {
		name  string
		resp  llm.MockResponse
		stage string
	}{
		{"provider error", llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}, StageProvider},
		{"not json", llm.MockText("Sorry, I can't help with that."), StageParse},
		{"wrong types", llm.MockText(`{"question": 5, "questionJa": "x", "sampleAnswer": "y"}`), StageParse},
		{"empty question", llm.MockText(`{"question": "", "questionJa": "質問", "sampleAnswer": "Yes."}`), StageValidate},
		{"japanese question", llm.MockText(`{"question": "滞在期間は？", "questionJa": "滞在期間は？", "sampleAnswer": "Five days."}`), StageValidate},
		{"untranslated", llm.MockText(`{"question": "Why?", "questionJa": "Why?", "sampleAnswer": "Business."}`), StageValidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(tt.resp)
			_, err := New(mock, fixedConfig([]int{2}, "")).Next(context.Background(), NextInput{})
			if !errors.Is(err, ErrGenerationFailed) {
				t.Fatalf("expected ErrGenerationFailed, got %v", err)
			}
			var gerr *GenerationError
			if !errors.As(err, &gerr) {
				t.Fatalf("expected *GenerationError, got %T", err)
			}
			if gerr.Stage != tt.stage || gerr.TemplateID != 2 {
				t.Fatalf("got stage %q template %d, want %q template 2", gerr.Stage, gerr.TemplateID, tt.stage)
			}
		})
	}
}

func TestNext_ContextTimeoutIsGenerationFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := llm.NewMockProvider(llm.MockText(validQuestion))

	_, err := New(mock, DefaultConfig()).Next(ctx, NextInput{})
	if !errors.Is(err, ErrGenerationFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected generation failure wrapping context.Canceled, got %v", err)
	}
}

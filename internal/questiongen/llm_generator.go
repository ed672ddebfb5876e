package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/abhisek/borderdrill/internal/catalog"
	"github.com/abhisek/borderdrill/internal/llm"
)

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	selector Selector
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	sel := cfg.Selector
	if sel == nil {
		sel = NewRandomSelector()
	}
	return &LLMGenerator{provider: provider, config: cfg, selector: sel}
}

// questionOutput is the raw LLM response before validation. questionId and
// persona are echoed by the model but never trusted.
type questionOutput struct {
	Question     string   `json:"question"`
	QuestionJa   string   `json:"questionJa"`
	SampleAnswer string   `json:"sampleAnswer"`
	Keywords     []string `json:"keywords"`
}

// Next produces a question for an unused template.
func (g *LLMGenerator) Next(ctx context.Context, input NextInput) (*Question, error) {
	candidates := catalog.Available(input.UsedTemplateIDs, input.PreviousQuestions)
	if len(candidates) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	tmpl := g.selector.Template(candidates)

	var persona catalog.Persona
	if input.Persona != nil {
		persona = *input.Persona
	} else {
		persona = g.selector.Persona(catalog.Personas())
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeQuestion)
	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(tmpl, persona, input.PreviousQuestions, g.config)},
		},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, &GenerationError{TemplateID: tmpl.ID, Stage: StageProvider, Err: err}
	}

	raw, err := parseQuestion(resp.Content)
	if err != nil {
		return nil, &GenerationError{TemplateID: tmpl.ID, Stage: StageParse, Err: err}
	}

	q := &Question{
		Text:         raw.Question,
		Translated:   raw.QuestionJa,
		SampleAnswer: raw.SampleAnswer,
		Keywords:     slices.Clone(tmpl.Keywords),
		TemplateID:   tmpl.ID,
		PersonaID:    persona.ID,
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(q); verr != nil {
			return nil, &GenerationError{TemplateID: tmpl.ID, Stage: StageValidate, Err: verr}
		}
	}

	return q, nil
}

// parseQuestion reads model text that should contain a question object.
func parseQuestion(content []byte) (*questionOutput, error) {
	obj, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, err
	}
	var raw questionOutput
	if err := json.Unmarshal(obj, &raw); err != nil {
		return nil, fmt.Errorf("decode question: %w", err)
	}
	return &raw, nil
}

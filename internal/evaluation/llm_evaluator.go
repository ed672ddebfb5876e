package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/borderdrill/internal/llm"
	"github.com/abhisek/borderdrill/internal/logger"
)

// Config holds configuration for the LLM evaluator.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   300,
		Temperature: 0.2,
	}
}

// LLMEvaluator grades answers with an LLM.
type LLMEvaluator struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

// New creates an LLM-based evaluator. A nil logger discards output.
func New(provider llm.Provider, cfg Config, log *logger.Logger) *LLMEvaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &LLMEvaluator{provider: provider, cfg: cfg, log: log}
}

// evaluationOutput is the raw LLM response.
type evaluationOutput struct {
	Score   string `json:"score"`
	Message string `json:"message"`
}

// Evaluate grades one answer. It never returns an error: failures are
// logged and replaced by DegradedResult.
func (e *LLMEvaluator) Evaluate(ctx context.Context, in Input) Result {
	res, err := e.evaluate(ctx, in)
	if err != nil {
		e.log.Warn("answer evaluation degraded", "question", in.Question, "error", err)
		return DegradedResult()
	}
	return res
}

func (e *LLMEvaluator) evaluate(ctx context.Context, in Input) (Result, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluation)

	userMsg, err := buildEvaluationMessage(in)
	if err != nil {
		return Result{}, fmt.Errorf("build evaluation prompt: %w", err)
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: evaluationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      EvaluationSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("LLM evaluation failed: %w", err)
	}

	return parseEvaluation(resp.Content)
}

// parseEvaluation reads model text into a Result. The score must match
// EvaluationSchema's enum exactly; anything else, including "Correct",
// is rejected and the caller degrades.
func parseEvaluation(content []byte) (Result, error) {
	obj, err := llm.ExtractJSON(content)
	if err != nil {
		return Result{}, err
	}
	if err := llm.ValidateJSON(EvaluationSchema, obj); err != nil {
		return Result{}, err
	}

	var raw evaluationOutput
	if err := json.Unmarshal(obj, &raw); err != nil {
		return Result{}, fmt.Errorf("failed to parse evaluation response: %w", err)
	}

	score := Score(raw.Score)
	msg := strings.TrimSpace(raw.Message)
	if msg == "" {
		return Result{}, fmt.Errorf("empty feedback message")
	}

	return Result{Score: score, Message: msg}, nil
}

const evaluationSystemPrompt = `You are a U.S. immigration officer grading a Japanese traveler's spoken English answer during interview practice. Be GENEROUS in your scoring.

Scoring criteria:
- correct: any reasonable attempt to answer the question, including very short answers such as "Yes", "No", "Tourism" or "One week". Give correct unless the answer is clearly wrong.
- partial: related to the question but ambiguous or unclear.
- incorrect: ONLY when the answer is unrelated to the question or contradicts it (for example "5 days" to "What is the purpose of your visit?"), or is nonsense.

Feedback:
- Write the message in Japanese.
- Mention what the learner actually said.
- Prioritize encouragement. For partial or incorrect, suggest a better English answer.
- Respond with ONLY a JSON object with fields score and message.`

var evaluationUserTemplate = template.Must(template.New("evaluation").Parse(`Question: "{{.Question}}"
Learner's answer: "{{.Answer}}"
Expected keywords: {{range $i, $k := .Keywords}}{{if $i}}, {{end}}{{$k}}{{end}}`))

func buildEvaluationMessage(in Input) (string, error) {
	var buf bytes.Buffer
	if err := evaluationUserTemplate.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

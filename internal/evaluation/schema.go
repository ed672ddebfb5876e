package evaluation

import "github.com/abhisek/borderdrill/internal/llm"

// EvaluationSchema defines the JSON the grader must return.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "A generous grade for one interview answer with Japanese feedback",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "string",
				"enum":        []any{"correct", "partial", "incorrect"},
				"description": "The grade",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Encouraging feedback in Japanese that mentions what the learner said",
			},
		},
		"required":             []any{"score", "message"},
		"additionalProperties": false,
	},
}

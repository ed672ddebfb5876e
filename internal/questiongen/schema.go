package questiongen

import "github.com/abhisek/borderdrill/internal/llm"

// QuestionSchema defines the JSON the model must return.
var QuestionSchema = &llm.Schema{
	Name:        "interview-question",
	Description: "One short immigration officer question with translation and sample answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The officer's question in English, one short sentence",
			},
			"questionJa": map[string]any{
				"type":        "string",
				"description": "Natural Japanese translation of the question",
			},
			"sampleAnswer": map[string]any{
				"type":        "string",
				"description": "A short, natural English answer consistent with the traveler scenario",
			},
			"keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Words a good answer would contain",
			},
			"questionId": map[string]any{
				"type":        "integer",
				"description": "The reference question id given in the prompt",
			},
			"persona": map[string]any{
				"type":        "string",
				"description": "The persona id given in the prompt",
			},
		},
		"required":             []any{"question", "questionJa", "sampleAnswer", "keywords", "questionId", "persona"},
		"additionalProperties": false,
	},
}

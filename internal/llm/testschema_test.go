package llm

// scoreSchema mirrors the shape of an answer evaluation.
func scoreSchema() *Schema {
	return &Schema{
		Name:        "test-score",
		Description: "A graded answer",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":   map[string]any{"type": "string", "enum": []any{"correct", "partial", "incorrect"}},
				"message": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []any{"score", "message"},
		},
	}
}

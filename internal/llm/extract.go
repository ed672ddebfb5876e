package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ExtractJSON pulls the first JSON object out of free-form model output.
// It accepts bare objects, objects wrapped in markdown fences or prose, and
// objects encoded as a JSON string.
func ExtractJSON(raw []byte) (json.RawMessage, error) {
	text := bytes.TrimSpace(raw)

	if len(text) > 0 && text[0] == '"' {
		var s string
		if err := json.Unmarshal(text, &s); err == nil {
			text = bytes.TrimSpace([]byte(s))
		}
	}

	start := bytes.IndexByte(text, '{')
	if start < 0 {
		return nil, ErrNoJSON
	}
	end := matchBrace(text, start)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated object", ErrNoJSON)
	}

	obj := text[start : end+1]
	if !json.Valid(obj) {
		return nil, fmt.Errorf("%w: malformed object", ErrNoJSON)
	}
	return json.RawMessage(obj), nil
}

// matchBrace returns the index of the brace closing the one at start,
// skipping braces inside string literals. Returns -1 if unbalanced.
func matchBrace(text []byte, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// decodeStructured extracts the JSON object from provider output and
// validates it against the request schema.
func decodeStructured(schema *Schema, raw []byte) (json.RawMessage, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return nil, &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := ValidateJSON(schema, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

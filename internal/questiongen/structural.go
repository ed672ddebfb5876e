package questiongen

import (
	"strings"
	"unicode"
)

// StructuralValidator checks that required fields are present and within
// length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg}
	}
	switch {
	case strings.TrimSpace(q.Text) == "":
		return fail("question is empty")
	case len(q.Text) > 200:
		return fail("question exceeds 200 characters")
	case strings.TrimSpace(q.Translated) == "":
		return fail("questionJa is empty")
	case strings.TrimSpace(q.SampleAnswer) == "":
		return fail("sampleAnswer is empty")
	case len(q.SampleAnswer) > 400:
		return fail("sampleAnswer exceeds 400 characters")
	}
	return nil
}

// LanguageValidator checks that the question and sample answer are English
// and the translation is Japanese.
type LanguageValidator struct{}

func (v *LanguageValidator) Name() string { return "language" }

func (v *LanguageValidator) Validate(q *Question) *ValidationError {
	if containsJapanese(q.Text) {
		return &ValidationError{Validator: v.Name(), Message: "question contains Japanese text"}
	}
	if containsJapanese(q.SampleAnswer) {
		return &ValidationError{Validator: v.Name(), Message: "sampleAnswer contains Japanese text"}
	}
	if !containsJapanese(q.Translated) {
		return &ValidationError{Validator: v.Name(), Message: "questionJa is not Japanese"}
	}
	return nil
}

func containsJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}

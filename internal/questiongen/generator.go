// Package questiongen produces interview questions by pairing an unused
// catalog template with an officer persona and asking an LLM to phrase it.
package questiongen

import "context"

// Generator produces officer questions.
type Generator interface {
	// Next returns a question for a template not excluded by input.
	// Fails with ErrNoQuestionsAvailable when the catalog is exhausted and
	// with an error matching ErrGenerationFailed when the model output
	// cannot be used.
	Next(ctx context.Context, input NextInput) (*Question, error)
}

package questiongen

import (
	"errors"
	"fmt"
)

// ErrNoQuestionsAvailable means every template has been used.
var ErrNoQuestionsAvailable = errors.New("no questions available: catalog exhausted")

// ErrGenerationFailed matches any *GenerationError via errors.Is.
var ErrGenerationFailed = errors.New("question generation failed")

// Generation stages reported in GenerationError.
const (
	StageProvider = "provider"
	StageParse    = "parse"
	StageValidate = "validate"
)

// GenerationError reports why a template could not be turned into a question.
type GenerationError struct {
	TemplateID int
	Stage      string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate question for template %d (%s): %v", e.TemplateID, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

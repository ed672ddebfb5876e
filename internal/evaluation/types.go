// Package evaluation grades a learner's answer to an officer question.
// Grading is deliberately generous and never fails outward: any model or
// parse problem degrades to a partial score with a retry notice.
package evaluation

import "context"

// Score is the three-level grade.
type Score string

const (
	ScoreCorrect   Score = "correct"
	ScorePartial   Score = "partial"
	ScoreIncorrect Score = "incorrect"
)

// Valid reports whether s is one of the three grades.
func (s Score) Valid() bool {
	switch s {
	case ScoreCorrect, ScorePartial, ScoreIncorrect:
		return true
	}
	return false
}

// DegradedMessage is shown when grading could not be completed.
const DegradedMessage = "評価中にエラーが発生しました。もう一度お試しください。"

// Result is the graded outcome shown to the learner.
type Result struct {
	Score   Score  `json:"score"`
	Message string `json:"message"` // Japanese feedback

	// Degraded marks a fallback result produced without a usable model
	// response.
	Degraded bool `json:"-"`
}

// DegradedResult is the fallback used whenever grading fails.
func DegradedResult() Result {
	return Result{Score: ScorePartial, Message: DegradedMessage, Degraded: true}
}

// Input is what gets graded.
type Input struct {
	Question string
	Answer   string
	Keywords []string
}

// Evaluator grades answers. Evaluate always returns a usable Result.
type Evaluator interface {
	Evaluate(ctx context.Context, in Input) Result
}

// Package hints maps a hint level to what the learner may see or hear.
//
// Levels are cumulative: 1 shows the English question, 2 adds the Japanese
// translation, 3 adds the sample answer and 4 plays the sample answer aloud.
package hints

import (
	"errors"
	"fmt"

	"github.com/abhisek/borderdrill/internal/questiongen"
)

// MaxLevel is the highest hint level.
const MaxLevel = 4

// ErrHintRejected is returned when a requested level skips ahead, repeats,
// or exceeds MaxLevel.
var ErrHintRejected = errors.New("hint level rejected")

// Disclosure is the content unlocked at a given level. Empty strings mean
// the item stays hidden.
type Disclosure struct {
	Level        int    `json:"level"`
	Question     string `json:"question,omitempty"`
	Translation  string `json:"translation,omitempty"`
	SampleAnswer string `json:"sampleAnswer,omitempty"`
	PlaySample   bool   `json:"playSample,omitempty"`
}

// Disclose returns what level unlocks for q. Levels outside [0, MaxLevel]
// are clamped.
func Disclose(level int, q *questiongen.Question) Disclosure {
	level = max(0, min(level, MaxLevel))
	d := Disclosure{Level: level}
	if q == nil {
		return d
	}
	if level >= 1 {
		d.Question = q.Text
	}
	if level >= 2 {
		d.Translation = q.Translated
	}
	if level >= 3 {
		d.SampleAnswer = q.SampleAnswer
	}
	d.PlaySample = level >= 4
	return d
}

// CanAdvance validates a request to move from current to requested.
// Only the next level is accepted.
func CanAdvance(current, requested int) error {
	if requested != current+1 || requested > MaxLevel || requested < 1 {
		return fmt.Errorf("%w: at level %d, requested %d", ErrHintRejected, current, requested)
	}
	return nil
}

// Label is the short Japanese caption for the button that unlocks level.
func Label(level int) string {
	switch level {
	case 1:
		return "質問を表示"
	case 2:
		return "日本語訳"
	case 3:
		return "回答例"
	case 4:
		return "回答例を再生"
	}
	return ""
}

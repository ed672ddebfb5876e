package session

import (
	"time"

	"github.com/abhisek/borderdrill/internal/evaluation"
)

// Summary holds the data displayed on the completion screen.
type Summary struct {
	SessionID string        `json:"sessionId"`
	Duration  time.Duration `json:"duration"`
	Results   []SlotResult  `json:"results"`

	Correct   int `json:"correct"`
	Partial   int `json:"partial"`
	Incorrect int `json:"incorrect"`
	HintsUsed int `json:"hintsUsed"`
}

// BuildSummary tallies the answered slots of a session.
func BuildSummary(sessionID string, elapsed time.Duration, results []SlotResult) *Summary {
	s := &Summary{
		SessionID: sessionID,
		Duration:  elapsed,
		Results:   append([]SlotResult(nil), results...),
	}
	for _, r := range results {
		switch r.Result.Score {
		case evaluation.ScoreCorrect:
			s.Correct++
		case evaluation.ScorePartial:
			s.Partial++
		default:
			s.Incorrect++
		}
		s.HintsUsed += r.Hints
	}
	return s
}

// Accuracy is the share of correct answers, 0 when nothing was answered.
func (s *Summary) Accuracy() float64 {
	if s == nil || len(s.Results) == 0 {
		return 0
	}
	return float64(s.Correct) / float64(len(s.Results))
}

// Message is the Japanese closing line for the completion screen.
func (s *Summary) Message() string {
	if s.Accuracy() >= 0.8 {
		return "🎉 お疲れ様でした！実際の入国審査でも自信を持って答えられますね！"
	}
	return "お疲れ様でした！ヒントの回答例を参考に、もう一度練習してみましょう。"
}

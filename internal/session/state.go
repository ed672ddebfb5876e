package session

import (
	"fmt"
	"strings"

	"github.com/abhisek/borderdrill/internal/evaluation"
	"github.com/abhisek/borderdrill/internal/hints"
	"github.com/abhisek/borderdrill/internal/questiongen"
)

// SequenceLength is the number of questions in one practice session.
const SequenceLength = 5

// Phase is a step of the interview state machine.
type Phase int

const (
	PhaseNotStarted     Phase = iota // Waiting for Start
	PhaseLoading                     // Generating the slot's question
	PhaseAwaitingAnswer              // Question asked, answer not yet submitted
	PhaseEvaluating                  // Grading the submitted answer
	PhaseEvaluated                   // Feedback is available
	PhaseCompleted                   // All slots answered; inert until Start
)

var phaseNames = [...]string{
	PhaseNotStarted:     "not_started",
	PhaseLoading:        "loading",
	PhaseAwaitingAnswer: "awaiting_answer",
	PhaseEvaluating:     "evaluating",
	PhaseEvaluated:      "evaluated",
	PhaseCompleted:      "completed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// Learner-facing status lines.
const (
	StatusReady      = "準備完了"
	StatusGenerating = "新しい質問を生成中..."
	StatusGenFailed  = "質問の生成に失敗しました"
	StatusListen     = "審査官の質問を聞いてください"
	StatusSpeaking   = "🔊 審査官が話しています..."
	StatusYourTurn   = "🎤 あなたの番です。回答してください"
	StatusEvaluating = "回答を評価中..."
	StatusEvaluated  = "評価完了"
	StatusCompleted  = "全ての質問が完了しました。"
)

// SlotResult is one answered question kept for the completion summary.
type SlotResult struct {
	Slot     int                  `json:"slot"`
	Question questiongen.Question `json:"question"`
	Answer   string               `json:"answer"`
	Result   evaluation.Result    `json:"result"`
	Hints    int                  `json:"hintsUsed"`
}

// Snapshot is an immutable copy of the controller's observable state.
type Snapshot struct {
	SessionID string `json:"sessionId,omitempty"`
	Phase     Phase  `json:"phase"`

	// Slot is the zero-based index of the current question.
	Slot  int `json:"slot"`
	Total int `json:"total"`

	Question   *questiongen.Question `json:"question,omitempty"`
	HintLevel  int                   `json:"hintLevel"`
	Disclosure hints.Disclosure      `json:"disclosure"`
	Answer     string                `json:"answer"`
	Result     *evaluation.Result    `json:"result,omitempty"`

	UsedTemplateIDs []int `json:"usedTemplateIds"`

	Status   string `json:"status"`
	Busy     bool   `json:"busy"`
	Speaking bool   `json:"speaking"`

	// Err is the last load failure, cleared by a successful load.
	Err     error  `json:"-"`
	ErrText string `json:"error,omitempty"`

	// Summary is set once the sequence completes.
	Summary *Summary `json:"summary,omitempty"`
}

// CanSubmit reports whether Submit would be accepted.
func (s Snapshot) CanSubmit() bool {
	return s.Phase == PhaseAwaitingAnswer && !s.Busy && strings.TrimSpace(s.Answer) != ""
}

// CanHint reports whether ShowHint(HintLevel+1) would be accepted.
func (s Snapshot) CanHint() bool {
	return (s.Phase == PhaseAwaitingAnswer || s.Phase == PhaseEvaluated) && !s.Busy && s.HintLevel < hints.MaxLevel
}

// IsLast reports whether the current slot is the final one.
func (s Snapshot) IsLast() bool {
	return s.Slot+1 >= s.Total
}

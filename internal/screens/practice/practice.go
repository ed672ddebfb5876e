// Package practice is the terminal screen for one interview session. It
// renders controller snapshots and turns key presses into controller
// operations; it holds no session state of its own.
package practice

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/borderdrill/internal/logger"
	"github.com/abhisek/borderdrill/internal/questiongen"
	"github.com/abhisek/borderdrill/internal/session"
	"github.com/abhisek/borderdrill/internal/speech"
	"github.com/abhisek/borderdrill/internal/ui/components"
	"github.com/abhisek/borderdrill/internal/ui/layout"
)

// Operation names reported in opDoneMsg.
const (
	opStart   = "start"
	opRetry   = "retry"
	opSubmit  = "submit"
	opAdvance = "advance"
	opHint    = "hint"
)

// Controller is the subset of *session.Controller the screen drives.
type Controller interface {
	Start(ctx context.Context) error
	LoadSlot(ctx context.Context) error
	RecordAnswer(text string) error
	Submit(ctx context.Context) error
	Advance(ctx context.Context) error
	ShowHint(ctx context.Context, level int) error
	Snapshot() session.Snapshot
}

// Screen is the practice session screen.
type Screen struct {
	ctx     context.Context
	ctrl    Controller
	updates <-chan session.Snapshot
	capture *speech.Capture
	persona string
	log     *logger.Logger

	snap      session.Snapshot
	input     components.TextInput
	listening bool
	notice    string
	lastSlot  int
}

// New creates the screen. updates may be nil, in which case the screen
// refreshes only after its own operations. capture may be nil to disable
// voice answers.
func New(ctx context.Context, ctrl Controller, updates <-chan session.Snapshot, capture *speech.Capture, persona string, log *logger.Logger) *Screen {
	if log == nil {
		log = logger.Nop()
	}
	return &Screen{
		ctx:      ctx,
		ctrl:     ctrl,
		updates:  updates,
		capture:  capture,
		persona:  persona,
		log:      log.With("component", "practice"),
		snap:     ctrl.Snapshot(),
		input:    components.NewTextInput("Type your answer in English...", 200),
		lastSlot: -1,
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.waitForSnapshot(), s.input.Init())
}

// Title returns the header title.
func (s *Screen) Title() string {
	return "入国審査 練習"
}

// Info returns the header's right-hand text.
func (s *Screen) Info() string {
	if s.persona == "" {
		return ""
	}
	return "審査官: " + s.persona + "  "
}

// Snapshot returns the last rendered controller state.
func (s *Screen) Snapshot() session.Snapshot {
	return s.snap
}

func (s *Screen) KeyHints() []layout.KeyHint {
	snap := s.snap
	if snap.Busy && !snap.Speaking {
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "終了"}}
	}
	switch snap.Phase {
	case session.PhaseNotStarted, session.PhaseCompleted:
		label := "練習を開始"
		if snap.Phase == session.PhaseCompleted {
			label = "もう一度"
		}
		return []layout.KeyHint{
			{Key: "Enter", Description: label},
			{Key: "Ctrl+C", Description: "終了"},
		}
	case session.PhaseLoading:
		return []layout.KeyHint{
			{Key: "R", Description: "再試行"},
			{Key: "Ctrl+C", Description: "終了"},
		}
	case session.PhaseAwaitingAnswer:
		hints := []layout.KeyHint{{Key: "Enter", Description: "回答を送信"}}
		if s.capture != nil {
			if s.listening {
				hints = append(hints, layout.KeyHint{Key: "Esc", Description: "録音を中止"})
			} else {
				hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: "音声で回答"})
			}
		}
		return append(hints,
			layout.KeyHint{Key: "Tab", Description: "ヒント"},
			layout.KeyHint{Key: "Ctrl+C", Description: "終了"},
		)
	case session.PhaseEvaluated:
		next := "次の質問"
		if snap.IsLast() {
			next = "結果を見る"
		}
		return []layout.KeyHint{
			{Key: "Enter", Description: next},
			{Key: "Tab", Description: "ヒント"},
			{Key: "Ctrl+C", Description: "終了"},
		}
	}
	return []layout.KeyHint{{Key: "Ctrl+C", Description: "終了"}}
}

func (s *Screen) Update(msg tea.Msg) (*Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		return s, tea.Batch(s.apply(session.Snapshot(msg)), s.waitForSnapshot())

	case feedClosedMsg:
		return s, nil

	case opDoneMsg:
		return s.handleOpDone(msg)

	case captureMsg:
		return s.handleCapture(speech.Event(msg))

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// apply renders a new snapshot. A fresh slot resets the answer box.
func (s *Screen) apply(snap session.Snapshot) tea.Cmd {
	s.snap = snap
	var cmd tea.Cmd
	if snap.Phase == session.PhaseAwaitingAnswer && snap.Slot != s.lastSlot {
		s.lastSlot = snap.Slot
		s.notice = ""
		cmd = s.input.Reset()
	}
	if snap.Phase == session.PhaseNotStarted || snap.Phase == session.PhaseCompleted {
		s.lastSlot = -1
	}
	return cmd
}

func (s *Screen) handleOpDone(msg opDoneMsg) (*Screen, tea.Cmd) {
	cmd := s.apply(s.ctrl.Snapshot())
	if msg.Err == nil {
		if msg.Op == opSubmit {
			s.input.Lock()
		}
		return s, cmd
	}

	s.log.Debug("operation rejected", "op", msg.Op, "error", msg.Err)
	s.notice = noticeFor(msg.Err)
	return s, cmd
}

func (s *Screen) handleCapture(ev speech.Event) (*Screen, tea.Cmd) {
	s.listening = false
	switch ev.Kind {
	case speech.EventTranscript:
		if s.input.Locked() {
			return s, nil
		}
		s.input.SetValue(ev.Transcript)
		s.notice = ""
		return s, nil
	case speech.EventError:
		s.log.Warn("voice capture failed", "error", ev.Err)
		if errors.Is(ev.Err, speech.ErrNoSpeech) {
			s.notice = "音声が聞き取れませんでした。もう一度お試しください。"
		} else {
			s.notice = "音声認識に失敗しました: " + ev.Err.Error()
		}
	case speech.EventCancelled:
		s.notice = "録音を中止しました。"
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (*Screen, tea.Cmd) {
	snap := s.snap
	key := msg.String()

	switch snap.Phase {
	case session.PhaseNotStarted, session.PhaseCompleted:
		if key == "enter" || key == "s" {
			return s, s.run(opStart, s.ctrl.Start)
		}
		return s, nil

	case session.PhaseLoading:
		if (key == "r" || key == "R") && !snap.Busy {
			return s, s.run(opRetry, s.ctrl.LoadSlot)
		}
		return s, nil

	case session.PhaseAwaitingAnswer:
		switch key {
		case "enter":
			return s, s.submit()
		case "tab":
			return s, s.nextHint()
		case "ctrl+r":
			return s, s.listen()
		case "esc":
			if s.listening && s.capture != nil {
				s.capture.Cancel()
			}
			return s, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case session.PhaseEvaluated:
		switch key {
		case "enter", "n":
			return s, s.run(opAdvance, s.ctrl.Advance)
		case "tab", "h":
			return s, s.nextHint()
		}
	}
	return s, nil
}

func (s *Screen) submit() tea.Cmd {
	answer := s.input.Value()
	if answer == "" {
		s.notice = noticeFor(session.ErrEmptyAnswer)
		return nil
	}
	if s.listening && s.capture != nil {
		s.capture.Cancel()
	}
	ctx, ctrl := s.ctx, s.ctrl
	return func() tea.Msg {
		if err := ctrl.RecordAnswer(answer); err != nil {
			return opDoneMsg{Op: opSubmit, Err: err}
		}
		return opDoneMsg{Op: opSubmit, Err: ctrl.Submit(ctx)}
	}
}

func (s *Screen) nextHint() tea.Cmd {
	if !s.snap.CanHint() {
		return nil
	}
	level := s.snap.HintLevel + 1
	ctx, ctrl := s.ctx, s.ctrl
	return func() tea.Msg {
		return opDoneMsg{Op: opHint, Err: ctrl.ShowHint(ctx, level)}
	}
}

func (s *Screen) listen() tea.Cmd {
	if s.capture == nil || s.input.Locked() {
		return nil
	}
	events, ok := s.capture.Start(s.ctx)
	if !ok {
		return nil
	}
	s.listening = true
	s.notice = ""
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return captureMsg{Kind: speech.EventCancelled}
		}
		return captureMsg(ev)
	}
}

func (s *Screen) run(op string, fn func(context.Context) error) tea.Cmd {
	s.notice = ""
	ctx := s.ctx
	return func() tea.Msg {
		return opDoneMsg{Op: op, Err: fn(ctx)}
	}
}

func (s *Screen) waitForSnapshot() tea.Cmd {
	if s.updates == nil {
		return nil
	}
	updates := s.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// noticeFor turns a rejected operation into a one-line message.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, session.ErrBusy):
		return "処理中です。しばらくお待ちください。"
	case errors.Is(err, session.ErrEmptyAnswer):
		return "回答を入力してください。"
	case errors.Is(err, session.ErrHintRejected):
		return "ヒントは順番に表示してください。"
	case errors.Is(err, questiongen.ErrNoQuestionsAvailable):
		return "出題できる質問がなくなりました。"
	case errors.Is(err, questiongen.ErrGenerationFailed):
		return session.StatusGenFailed + "。R で再試行できます。"
	case errors.Is(err, context.Canceled):
		return ""
	}
	return err.Error()
}

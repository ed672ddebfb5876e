// Package session runs one interview practice session: a fixed sequence of
// officer questions, each answered, graded and optionally hinted.
package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/borderdrill/internal/catalog"
	"github.com/abhisek/borderdrill/internal/evaluation"
	"github.com/abhisek/borderdrill/internal/hints"
	"github.com/abhisek/borderdrill/internal/llm"
	"github.com/abhisek/borderdrill/internal/logger"
	"github.com/abhisek/borderdrill/internal/questiongen"
)

// DefaultCallTimeout bounds each model or speech call.
const DefaultCallTimeout = 30 * time.Second

// Speaker plays text aloud and returns when playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Options configures a Controller.
type Options struct {
	Generator questiongen.Generator
	Evaluator evaluation.Evaluator

	// Speaker is optional. When nil nothing is spoken.
	Speaker Speaker

	// Persona pins the officer for the whole session. When nil the
	// generator picks one per question.
	Persona *catalog.Persona

	// CallTimeout bounds every generation, evaluation and speech call.
	CallTimeout time.Duration

	Logger *logger.Logger

	// OnChange receives a snapshot after every transition. It is called
	// without the controller lock held.
	OnChange func(Snapshot)
}

// Controller is the session state machine. All methods are safe for
// concurrent use; an operation that arrives while a model or speech call
// is in flight fails with ErrBusy.
type Controller struct {
	mu sync.Mutex

	// notifyMu orders OnChange calls. seq is guarded by mu, delivered by
	// notifyMu.
	notifyMu  sync.Mutex
	seq       uint64
	delivered uint64

	gen      questiongen.Generator
	eval     evaluation.Evaluator
	speaker  Speaker
	persona  *catalog.Persona
	timeout  time.Duration
	log      *logger.Logger
	onChange func(Snapshot)
	now      func() time.Time
	newID    func() string

	id        string
	startedAt time.Time
	phase     Phase
	slot      int
	questions map[int]*questiongen.Question
	used      map[int]bool
	asked     []string
	hintLevel int
	answer    string
	result    *evaluation.Result
	results   []SlotResult
	lastErr   error
	busy      bool
	speaking  bool
	summary   *Summary
}

// NewController creates a controller in PhaseNotStarted.
func NewController(opts Options) *Controller {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Controller{
		gen:       opts.Generator,
		eval:      opts.Evaluator,
		speaker:   opts.Speaker,
		persona:   opts.Persona,
		timeout:   opts.CallTimeout,
		log:       opts.Logger,
		onChange:  opts.OnChange,
		now:       time.Now,
		newID:     uuid.NewString,
		phase:     PhaseNotStarted,
		questions: make(map[int]*questiongen.Question),
		used:      make(map[int]bool),
	}
}

// Start begins a new session and loads the first question. It is valid
// from PhaseNotStarted or PhaseCompleted. A load failure is returned but
// the session stays started in PhaseLoading, ready for LoadSlot.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guard("start", PhaseNotStarted, PhaseCompleted); err != nil {
		c.mu.Unlock()
		return err
	}
	c.reset()
	c.id = c.newID()
	c.startedAt = c.now()
	c.phase = PhaseLoading
	c.log.Info("session started", "session_id", c.id)
	c.mu.Unlock()

	c.notify()
	return c.LoadSlot(ctx)
}

// LoadSlot generates the question for the current slot. It is valid only
// in PhaseLoading and is also the retry path after a failed load.
func (c *Controller) LoadSlot(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guard("load", PhaseLoading); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	c.lastErr = nil
	in := questiongen.NextInput{
		UsedTemplateIDs:   maps.Clone(c.used),
		PreviousQuestions: slices.Clone(c.asked),
		Persona:           c.persona,
	}
	slot, id := c.slot, c.id
	c.mu.Unlock()
	c.notify()

	callCtx, cancel := c.callContext(ctx, id)
	q, err := c.gen.Next(callCtx, in)
	cancel()

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.lastErr = err
		c.log.Warn("question load failed", "session_id", id, "slot", slot, "error", err)
		c.mu.Unlock()
		c.notify()
		return err
	}
	c.questions[slot] = q
	c.used[q.TemplateID] = true
	c.asked = append(c.asked, q.Text)
	c.hintLevel = 0
	c.answer = ""
	c.result = nil
	c.phase = PhaseAwaitingAnswer
	c.log.Debug("question loaded", "session_id", id, "slot", slot, "template_id", q.TemplateID, "persona", q.PersonaID)
	speak := c.beginSpeech(q.Text)
	c.mu.Unlock()
	c.notify()

	if speak {
		c.play(ctx, id, q.Text)
	}
	return nil
}

// RecordAnswer stores the learner's current answer text.
func (c *Controller) RecordAnswer(text string) error {
	c.mu.Lock()
	if err := c.guard("answer", PhaseAwaitingAnswer); err != nil {
		c.mu.Unlock()
		return err
	}
	c.answer = text
	c.mu.Unlock()
	c.notify()
	return nil
}

// Submit grades the recorded answer. Model failures never surface here;
// they produce a degraded partial result instead.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guard("submit", PhaseAwaitingAnswer); err != nil {
		c.mu.Unlock()
		return err
	}
	if strings.TrimSpace(c.answer) == "" {
		c.mu.Unlock()
		return ErrEmptyAnswer
	}
	q := c.questions[c.slot]
	answer, slot, id := c.answer, c.slot, c.id
	c.phase = PhaseEvaluating
	c.busy = true
	c.mu.Unlock()
	c.notify()

	callCtx, cancel := c.callContext(ctx, id)
	res := c.eval.Evaluate(callCtx, evaluation.Input{
		Question: q.Text,
		Answer:   answer,
		Keywords: q.Keywords,
	})
	cancel()

	c.mu.Lock()
	c.busy = false
	c.result = &res
	c.phase = PhaseEvaluated
	c.results = append(c.results, SlotResult{
		Slot:     slot,
		Question: *q,
		Answer:   answer,
		Result:   res,
		Hints:    c.hintLevel,
	})
	if res.Degraded {
		c.log.Warn("evaluation degraded", "session_id", id, "slot", slot, "template_id", q.TemplateID)
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// Advance moves past an evaluated slot. After the last slot the session
// completes and keeps only its summary.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guard("advance", PhaseEvaluated); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.slot+1 == SequenceLength {
		c.summary = BuildSummary(c.id, c.now().Sub(c.startedAt), c.results)
		c.log.Info("session completed", "session_id", c.id, "correct", c.summary.Correct)
		c.reset()
		c.phase = PhaseCompleted
		c.mu.Unlock()
		c.notify()
		return nil
	}
	c.slot++
	c.hintLevel = 0
	c.answer = ""
	c.result = nil
	c.phase = PhaseLoading
	c.mu.Unlock()

	c.notify()
	return c.LoadSlot(ctx)
}

// ShowHint unlocks the next hint level. Level 4 also plays the sample
// answer.
func (c *Controller) ShowHint(ctx context.Context, level int) error {
	c.mu.Lock()
	if err := c.guard("hint", PhaseAwaitingAnswer, PhaseEvaluated); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := hints.CanAdvance(c.hintLevel, level); err != nil {
		c.mu.Unlock()
		return err
	}
	c.hintLevel = level
	if c.phase == PhaseEvaluated && len(c.results) > 0 {
		c.results[len(c.results)-1].Hints = level
	}
	sample := c.questions[c.slot].SampleAnswer
	speak := level == hints.MaxLevel && c.beginSpeech(sample)
	id := c.id
	c.mu.Unlock()
	c.notify()

	if speak {
		c.play(ctx, id, sample)
	}
	return nil
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		SessionID: c.id,
		Phase:     c.phase,
		Slot:      c.slot,
		Total:     SequenceLength,
		HintLevel: c.hintLevel,
		Answer:    c.answer,
		Busy:      c.busy,
		Speaking:  c.speaking,
		Err:       c.lastErr,
		Summary:   c.summary,
	}
	if q := c.questions[c.slot]; q != nil && c.phase != PhaseLoading {
		cp := *q
		cp.Keywords = slices.Clone(q.Keywords)
		s.Question = &cp
	}
	s.Disclosure = hints.Disclose(c.hintLevel, s.Question)
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	for id := range c.used {
		s.UsedTemplateIDs = append(s.UsedTemplateIDs, id)
	}
	slices.Sort(s.UsedTemplateIDs)
	if c.lastErr != nil {
		s.ErrText = errorText(c.lastErr)
	}
	s.Status = c.status()
	return s
}

func (c *Controller) status() string {
	switch c.phase {
	case PhaseLoading:
		if c.lastErr != nil {
			return StatusGenFailed
		}
		return StatusGenerating
	case PhaseAwaitingAnswer:
		switch {
		case c.speaking && c.hintLevel == hints.MaxLevel:
			return StatusSpeaking
		case c.speaking:
			return StatusListen
		}
		return StatusYourTurn
	case PhaseEvaluating:
		return StatusEvaluating
	case PhaseEvaluated:
		if c.speaking {
			return StatusSpeaking
		}
		return StatusEvaluated
	case PhaseCompleted:
		return StatusCompleted
	}
	return StatusReady
}

// guard rejects the operation when busy or outside the allowed phases.
// Callers must hold c.mu.
func (c *Controller) guard(op string, allowed ...Phase) error {
	if c.busy {
		return ErrBusy
	}
	if !slices.Contains(allowed, c.phase) {
		return &TransitionError{Op: op, Phase: c.phase}
	}
	return nil
}

// reset clears per-session state. The summary survives until the next Start.
func (c *Controller) reset() {
	c.slot = 0
	c.questions = make(map[int]*questiongen.Question)
	c.used = make(map[int]bool)
	c.asked = nil
	c.hintLevel = 0
	c.answer = ""
	c.result = nil
	c.results = nil
	c.lastErr = nil
	if c.phase == PhaseCompleted {
		c.summary = nil
	}
}

// beginSpeech marks the controller busy for playback of text. It reports
// false when there is nothing to play. Callers must hold c.mu.
func (c *Controller) beginSpeech(text string) bool {
	if c.speaker == nil || text == "" {
		return false
	}
	c.busy = true
	c.speaking = true
	return true
}

// play speaks text and clears the busy flag set by beginSpeech. Failures
// are logged and do not affect the session.
func (c *Controller) play(ctx context.Context, sessionID, text string) {
	callCtx, cancel := c.callContext(ctx, sessionID)
	err := c.speaker.Speak(callCtx, text)
	cancel()

	c.mu.Lock()
	c.busy = false
	c.speaking = false
	c.mu.Unlock()
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Warn("speech playback failed", "session_id", sessionID, "error", err)
	}
	c.notify()
}

func (c *Controller) callContext(ctx context.Context, sessionID string) (context.Context, context.CancelFunc) {
	ctx = llm.WithSession(ctx, sessionID)
	return context.WithTimeout(ctx, c.timeout)
}

// notify publishes the current state. Snapshots are numbered under mu so a
// slower caller never delivers an older state after a newer one.
func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.mu.Lock()
	c.seq++
	seq, snap := c.seq, c.snapshotLocked()
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if seq < c.delivered {
		return
	}
	c.delivered = seq
	c.onChange(snap)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, questiongen.ErrNoQuestionsAvailable):
		return "出題できる質問がなくなりました。最初からやり直してください。"
	case errors.Is(err, context.DeadlineExceeded):
		return "質問の生成がタイムアウトしました。もう一度お試しください。"
	default:
		return StatusGenFailed + "。もう一度お試しください。"
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/borderdrill/internal/catalog"
	"github.com/abhisek/borderdrill/internal/evaluation"
	"github.com/abhisek/borderdrill/internal/hints"
	"github.com/abhisek/borderdrill/internal/llm"
	"github.com/abhisek/borderdrill/internal/questiongen"
)

// catalogGenerator returns the lowest-numbered available template as a
// question. failures makes the next N calls fail.
type catalogGenerator struct {
	mu       sync.Mutex
	failures int
	inputs   []questiongen.NextInput
	block    chan struct{}
}

func (g *catalogGenerator) Next(ctx context.Context, in questiongen.NextInput) (*questiongen.Question, error) {
	g.mu.Lock()
	g.inputs = append(g.inputs, in)
	block := g.block
	fail := g.failures > 0
	if fail {
		g.failures--
	}
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, &questiongen.GenerationError{Stage: questiongen.StageProvider, Err: ctx.Err()}
		}
	}
	if fail {
		return nil, &questiongen.GenerationError{Stage: questiongen.StageParse, Err: llm.ErrNoJSON}
	}

	avail := catalog.Available(in.UsedTemplateIDs, in.PreviousQuestions)
	if len(avail) == 0 {
		return nil, questiongen.ErrNoQuestionsAvailable
	}
	t := avail[0]
	persona := "normal"
	if in.Persona != nil {
		persona = in.Persona.ID
	}
	return &questiongen.Question{
		Text:         fmt.Sprintf("Officer asks: %s", t.BaseQuestion),
		Translated:   t.Topic + "について教えてください。",
		SampleAnswer: "Sample answer " + t.TopicEN,
		Keywords:     t.Keywords,
		TemplateID:   t.ID,
		PersonaID:    persona,
	}, nil
}

type evaluatorFunc func(ctx context.Context, in evaluation.Input) evaluation.Result

func (f evaluatorFunc) Evaluate(ctx context.Context, in evaluation.Input) evaluation.Result {
	return f(ctx, in)
}

func alwaysCorrect() evaluation.Evaluator {
	return evaluatorFunc(func(ctx context.Context, in evaluation.Input) evaluation.Result {
		return evaluation.Result{Score: evaluation.ScoreCorrect, Message: "「" + in.Answer + "」で大丈夫です。"}
	})
}

type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSpeaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSpeaker) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func newTestController(gen questiongen.Generator, ev evaluation.Evaluator) *Controller {
	c := NewController(Options{Generator: gen, Evaluator: ev})
	ids := 0
	c.newID = func() string {
		ids++
		return fmt.Sprintf("session-%d", ids)
	}
	return c
}

func answerAndSubmit(t *testing.T, c *Controller, answer string) {
	t.Helper()
	if err := c.RecordAnswer(answer); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestController_FullSequence(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&catalogGenerator{}, alwaysCorrect())

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < SequenceLength; i++ {
		snap := c.Snapshot()
		if snap.Phase != PhaseAwaitingAnswer {
			t.Fatalf("slot %d: phase = %s, want awaiting_answer", i, snap.Phase)
		}
		if snap.Slot != i {
			t.Fatalf("slot = %d, want %d", snap.Slot, i)
		}
		answerAndSubmit(t, c, "For a conference")
		if err := c.Advance(ctx); err != nil {
			t.Fatalf("Advance %d: %v", i+1, err)
		}
	}

	snap := c.Snapshot()
	if snap.Phase != PhaseCompleted {
		t.Fatalf("phase = %s, want completed", snap.Phase)
	}
	if snap.Summary == nil || len(snap.Summary.Results) != SequenceLength {
		t.Fatalf("expected a summary of %d results, got %+v", SequenceLength, snap.Summary)
	}
	if snap.Summary.Correct != SequenceLength {
		t.Errorf("Correct = %d, want %d", snap.Summary.Correct, SequenceLength)
	}
	if snap.Question != nil || snap.Result != nil || len(snap.UsedTemplateIDs) != 0 {
		t.Error("expected per-session state to be reset on completion")
	}
	if snap.Status != StatusCompleted {
		t.Errorf("status = %q", snap.Status)
	}

	err := c.Advance(ctx)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("sixth Advance: expected ErrInvalidTransition, got %v", err)
	}
}

func TestController_NoDuplicateTemplates(t *testing.T) {
	ctx := context.Background()
	gen := &catalogGenerator{}
	c := newTestController(gen, alwaysCorrect())

	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for i := 0; i < SequenceLength; i++ {
		q := c.Snapshot().Question
		if seen[q.TemplateID] {
			t.Fatalf("template %d asked twice", q.TemplateID)
		}
		seen[q.TemplateID] = true
		answerAndSubmit(t, c, "yes")
		if i < SequenceLength-1 {
			if err := c.Advance(ctx); err != nil {
				t.Fatal(err)
			}
		}
	}

	used := c.Snapshot().UsedTemplateIDs
	if len(used) != SequenceLength {
		t.Fatalf("UsedTemplateIDs = %v", used)
	}
	// The generator saw the growing exclusion set and prior texts.
	last := gen.inputs[len(gen.inputs)-1]
	if len(last.UsedTemplateIDs) != SequenceLength-1 || len(last.PreviousQuestions) != SequenceLength-1 {
		t.Errorf("last input = %+v", last)
	}
}

func TestController_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&catalogGenerator{}, alwaysCorrect())

	tests := []struct {
		name string
		op   func() error
	}{
		{"submit before start", func() error { return c.Submit(ctx) }},
		{"advance before start", func() error { return c.Advance(ctx) }},
		{"answer before start", func() error { return c.RecordAnswer("hi") }},
		{"hint before start", func() error { return c.ShowHint(ctx, 1) }},
		{"load before start", func() error { return c.LoadSlot(ctx) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			var te *TransitionError
			if !errors.As(err, &te) || te.Phase != PhaseNotStarted {
				t.Fatalf("expected TransitionError in not_started, got %v", err)
			}
		})
	}

	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start: %v", err)
	}
	if err := c.Advance(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance before evaluation: %v", err)
	}
}

func TestController_EmptyAnswerRejected(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&catalogGenerator{}, alwaysCorrect())
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := c.Submit(ctx); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
	_ = c.RecordAnswer("   ")
	if c.Snapshot().CanSubmit() {
		t.Error("CanSubmit should be false for a blank answer")
	}
	if err := c.Submit(ctx); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer for blank answer, got %v", err)
	}
	if c.Snapshot().Phase != PhaseAwaitingAnswer {
		t.Error("rejected submit must not change phase")
	}
}

func TestController_SubmitDegradesOnModelFailure(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	c := newTestController(&catalogGenerator{}, evaluation.New(mock, evaluation.DefaultConfig(), nil))
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	answerAndSubmit(t, c, "Business")

	snap := c.Snapshot()
	if snap.Phase != PhaseEvaluated {
		t.Fatalf("phase = %s", snap.Phase)
	}
	if snap.Result == nil || snap.Result.Score != evaluation.ScorePartial || snap.Result.Message != evaluation.DegradedMessage {
		t.Fatalf("expected degraded result, got %+v", snap.Result)
	}
}

func TestController_HintOrdering(t *testing.T) {
	ctx := context.Background()
	speaker := &recordingSpeaker{}
	c := NewController(Options{Generator: &catalogGenerator{}, Evaluator: alwaysCorrect(), Speaker: speaker})
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := c.ShowHint(ctx, 2); !errors.Is(err, ErrHintRejected) {
		t.Fatalf("hint 2 before 1: %v", err)
	}
	for level := 1; level <= hints.MaxLevel; level++ {
		if err := c.ShowHint(ctx, level); err != nil {
			t.Fatalf("hint %d: %v", level, err)
		}
		if got := c.Snapshot().Disclosure.Level; got != level {
			t.Fatalf("disclosure level = %d, want %d", got, level)
		}
	}
	if err := c.ShowHint(ctx, 5); !errors.Is(err, ErrHintRejected) {
		t.Fatalf("hint 5: %v", err)
	}

	snap := c.Snapshot()
	if !snap.Disclosure.PlaySample || snap.Disclosure.SampleAnswer != snap.Question.SampleAnswer {
		t.Errorf("disclosure = %+v", snap.Disclosure)
	}
	spoken := speaker.spoken()
	if len(spoken) != 2 || spoken[0] != snap.Question.Text || spoken[1] != snap.Question.SampleAnswer {
		t.Errorf("spoken = %q", spoken)
	}

	// Hints reset with the next slot.
	answerAndSubmit(t, c, "A week")
	if err := c.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().HintLevel; got != 0 {
		t.Errorf("HintLevel after advance = %d", got)
	}
}

func TestController_HintAllowedAfterEvaluation(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&catalogGenerator{}, alwaysCorrect())
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	answerAndSubmit(t, c, "Tourism")
	if err := c.ShowHint(ctx, 1); err != nil {
		t.Fatalf("hint in evaluated phase: %v", err)
	}
}

func TestController_LoadFailureStaysLoading(t *testing.T) {
	ctx := context.Background()
	gen := &catalogGenerator{failures: 1}
	c := newTestController(gen, alwaysCorrect())

	err := c.Start(ctx)
	if !errors.Is(err, questiongen.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	snap := c.Snapshot()
	if snap.Phase != PhaseLoading {
		t.Fatalf("phase = %s, want loading", snap.Phase)
	}
	if snap.Err == nil || snap.ErrText == "" || snap.Status != StatusGenFailed {
		t.Errorf("expected error in snapshot, got %+v", snap)
	}
	if snap.Slot != 0 {
		t.Errorf("slot advanced on failure: %d", snap.Slot)
	}

	if err := c.LoadSlot(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	snap = c.Snapshot()
	if snap.Phase != PhaseAwaitingAnswer || snap.Err != nil {
		t.Fatalf("after retry: %+v", snap)
	}
}

func TestController_CatalogExhausted(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&catalogGenerator{}, alwaysCorrect())
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Mark every template used for the next load.
	c.mu.Lock()
	for _, tmpl := range catalog.Templates() {
		c.used[tmpl.ID] = true
	}
	c.mu.Unlock()

	answerAndSubmit(t, c, "yes")
	err := c.Advance(ctx)
	if !errors.Is(err, questiongen.ErrNoQuestionsAvailable) {
		t.Fatalf("expected ErrNoQuestionsAvailable, got %v", err)
	}
	if c.Snapshot().Phase != PhaseLoading {
		t.Error("expected to remain in loading")
	}
}

func TestController_BusyRejectsConflictingOps(t *testing.T) {
	ctx := context.Background()
	gen := &catalogGenerator{block: make(chan struct{})}
	c := newTestController(gen, alwaysCorrect())

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for !c.Snapshot().Busy {
		select {
		case <-deadline:
			t.Fatal("controller never became busy")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := c.LoadSlot(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("LoadSlot while busy: %v", err)
	}
	if err := c.RecordAnswer("hi"); !errors.Is(err, ErrBusy) {
		t.Errorf("RecordAnswer while busy: %v", err)
	}
	if got := c.Snapshot().Status; got != StatusGenerating {
		t.Errorf("status = %q", got)
	}

	close(gen.block)
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Snapshot().Busy {
		t.Error("busy flag not cleared")
	}
}

func TestController_BusyDuringEvaluation(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	ev := evaluatorFunc(func(ctx context.Context, in evaluation.Input) evaluation.Result {
		entered <- struct{}{}
		<-release
		return evaluation.Result{Score: evaluation.ScoreCorrect, Message: "OK"}
	})
	c := newTestController(&catalogGenerator{}, ev)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordAnswer("Tourism"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Submit(ctx) }()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("evaluation never started")
	}

	if got := c.Snapshot().Phase; got != PhaseEvaluating {
		t.Fatalf("phase = %s, want evaluating", got)
	}
	if err := c.Submit(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("second Submit: %v", err)
	}
	if err := c.ShowHint(ctx, 1); !errors.Is(err, ErrBusy) {
		t.Errorf("ShowHint while evaluating: %v", err)
	}
	if err := c.Advance(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("Advance while evaluating: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(c.results) != 1 {
		t.Fatalf("expected exactly one slot result, got %d", len(c.results))
	}
	if c.Snapshot().Phase != PhaseEvaluated {
		t.Error("expected evaluated")
	}
}

func TestController_HintsAfterEvaluationCounted(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&catalogGenerator{}, alwaysCorrect())
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.ShowHint(ctx, 1); err != nil {
		t.Fatal(err)
	}
	answerAndSubmit(t, c, "Tourism")
	if err := c.ShowHint(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := c.ShowHint(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if got := c.results[0].Hints; got != 3 {
		t.Errorf("slot hints = %d, want 3", got)
	}
}

func TestController_CallTimeout(t *testing.T) {
	gen := &catalogGenerator{block: make(chan struct{})}
	c := NewController(Options{Generator: gen, Evaluator: alwaysCorrect(), CallTimeout: 20 * time.Millisecond})

	err := c.Start(context.Background())
	if !errors.Is(err, questiongen.ErrGenerationFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout generation failure, got %v", err)
	}
	if c.Snapshot().Phase != PhaseLoading {
		t.Error("expected loading after timeout")
	}
}

func TestController_PersonaPinned(t *testing.T) {
	strict, _ := catalog.PersonaByID("strict")
	gen := &catalogGenerator{}
	c := NewController(Options{Generator: gen, Evaluator: alwaysCorrect(), Persona: &strict})

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().Question.PersonaID; got != "strict" {
		t.Errorf("persona = %q", got)
	}
	if gen.inputs[0].Persona == nil || gen.inputs[0].Persona.Tone != catalog.ToneStrict {
		t.Error("expected pinned persona in generator input")
	}
}

func TestController_OnChange(t *testing.T) {
	var mu sync.Mutex
	var phases []Phase
	c := NewController(Options{
		Generator: &catalogGenerator{},
		Evaluator: alwaysCorrect(),
		OnChange: func(s Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			if len(phases) == 0 || phases[len(phases)-1] != s.Phase {
				phases = append(phases, s.Phase)
			}
		},
	})

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	answerAndSubmit(t, c, "Two weeks")

	want := []Phase{PhaseLoading, PhaseAwaitingAnswer, PhaseEvaluating, PhaseEvaluated}
	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(phases) != fmt.Sprint(want) {
		t.Errorf("phases = %v, want %v", phases, want)
	}
}

func TestController_RestartAfterCompletion(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&catalogGenerator{}, alwaysCorrect())
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < SequenceLength; i++ {
		answerAndSubmit(t, c, "ok")
		if err := c.Advance(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap := c.Snapshot()
	if snap.SessionID != "session-2" || snap.Summary != nil || snap.Slot != 0 {
		t.Errorf("unexpected state after restart: %+v", snap)
	}
	if len(snap.UsedTemplateIDs) != 1 {
		t.Errorf("used templates carried over: %v", snap.UsedTemplateIDs)
	}
}

func TestController_WithLLMGenerator(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("```json\n" +
		`{"question":"Why are you visiting?","questionJa":"訪問の目的は？","sampleAnswer":"For a tech conference.","keywords":["x"],"questionId":99,"persona":"kind"}` +
		"\n```"))
	gen := questiongen.New(mock, questiongen.Config{
		Selector:  questiongen.FixedSelector{TemplateOrder: []int{1}, PersonaID: "normal"},
		MaxTokens: 400,
	})
	c := NewController(Options{Generator: gen, Evaluator: alwaysCorrect()})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	q := c.Snapshot().Question
	if q.TemplateID != 1 || q.PersonaID != "normal" {
		t.Errorf("selection not taken from the selector: %+v", q)
	}
	tmpl, _ := catalog.TemplateByID(1)
	if fmt.Sprint(q.Keywords) != fmt.Sprint(tmpl.Keywords) {
		t.Errorf("keywords = %v, want %v", q.Keywords, tmpl.Keywords)
	}
	req, _ := mock.LastRequest()
	if req.Schema != questiongen.QuestionSchema {
		t.Error("expected a structured question request")
	}
}

func TestBuildSummary(t *testing.T) {
	results := []SlotResult{
		{Result: evaluation.Result{Score: evaluation.ScoreCorrect}, Hints: 1},
		{Result: evaluation.Result{Score: evaluation.ScorePartial}, Hints: 4},
		{Result: evaluation.Result{Score: evaluation.ScoreIncorrect}},
		{Result: evaluation.Result{Score: evaluation.ScoreCorrect}},
	}
	s := BuildSummary("s1", time.Minute, results)
	if s.Correct != 2 || s.Partial != 1 || s.Incorrect != 1 || s.HintsUsed != 5 {
		t.Errorf("summary = %+v", s)
	}
	if s.Accuracy() != 0.5 {
		t.Errorf("Accuracy = %v", s.Accuracy())
	}
	if s.Message() == "" {
		t.Error("expected a closing message")
	}
}

func TestPhaseText(t *testing.T) {
	for p := PhaseNotStarted; p <= PhaseCompleted; p++ {
		b, _ := p.MarshalText()
		var back Phase
		if err := back.UnmarshalText(b); err != nil || back != p {
			t.Errorf("phase %d round trip: %v %v", p, back, err)
		}
	}
}

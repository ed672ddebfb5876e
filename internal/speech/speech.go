// Package speech captures spoken answers and plays officer lines aloud.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNoSpeech is returned when a capture produced no words.
var ErrNoSpeech = errors.New("no speech detected")

// Recognizer turns one utterance into text. Implementations must honor
// ctx cancellation.
type Recognizer interface {
	Recognize(ctx context.Context) (string, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context) (string, error) { return f(ctx) }

// EventKind classifies capture events.
type EventKind int

const (
	EventTranscript EventKind = iota // final transcript
	EventError                       // capture failed
	EventCancelled                   // Cancel was called; nothing recognized
)

// Event is the single terminal event of a capture.
type Event struct {
	Kind       EventKind
	Transcript string
	Err        error
}

// Capture runs at most one recognition at a time.
type Capture struct {
	rec Recognizer

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCapture creates a Capture over rec.
func NewCapture(rec Recognizer) *Capture {
	return &Capture{rec: rec}
}

// Start begins a capture and returns a channel that yields exactly one
// event before closing. When a capture is already running it returns
// false and nil, and the running capture is unaffected.
func (c *Capture) Start(ctx context.Context) (<-chan Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil, false
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	events := make(chan Event, 1)

	go func() {
		defer close(events)
		text, err := c.rec.Recognize(ctx)

		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancelled := ctx.Err() != nil
		cancel()

		switch {
		case cancelled:
			events <- Event{Kind: EventCancelled}
		case err != nil:
			events <- Event{Kind: EventError, Err: err}
		case strings.TrimSpace(text) == "":
			events <- Event{Kind: EventError, Err: ErrNoSpeech}
		default:
			events <- Event{Kind: EventTranscript, Transcript: strings.TrimSpace(text)}
		}
	}()
	return events, true
}

// Cancel stops the running capture, if any. Its transcript is discarded.
func (c *Capture) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Active reports whether a capture is running.
func (c *Capture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

package session

import (
	"errors"
	"fmt"

	"github.com/abhisek/borderdrill/internal/hints"
)

var (
	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrBusy is returned while a model or speech call is in flight.
	ErrBusy = errors.New("session is busy")

	// ErrEmptyAnswer is returned by Submit when no answer was recorded.
	ErrEmptyAnswer = errors.New("answer is empty")

	// ErrHintRejected is returned when a hint level skips ahead or exceeds the maximum.
	ErrHintRejected = hints.ErrHintRejected
)

// TransitionError reports an operation that is not valid in the current phase.
type TransitionError struct {
	Op    string
	Phase Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Op, e.Phase)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

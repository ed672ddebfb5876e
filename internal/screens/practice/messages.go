package practice

import (
	"github.com/abhisek/borderdrill/internal/session"
	"github.com/abhisek/borderdrill/internal/speech"
)

// snapshotMsg carries a state change pushed by the controller.
type snapshotMsg session.Snapshot

// opDoneMsg is sent when a controller operation returns.
type opDoneMsg struct {
	Op  string
	Err error
}

// captureMsg is the terminal event of a voice capture.
type captureMsg speech.Event

// feedClosedMsg is sent when the snapshot feed is closed.
type feedClosedMsg struct{}

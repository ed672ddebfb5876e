package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// DefaultSayCommand speaks English at a slightly slow rate.
const DefaultSayCommand = "espeak -v en-us -s 150"

// Speaker plays text and returns when playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(ctx context.Context, text string) error

func (f SpeakerFunc) Speak(ctx context.Context, text string) error { return f(ctx, text) }

// CommandSpeaker runs a text-to-speech command with the text as its last
// argument, e.g. espeak or say.
type CommandSpeaker struct {
	Command []string
}

// NewCommandSpeaker parses a whitespace separated command line. An empty
// line selects DefaultSayCommand.
func NewCommandSpeaker(cmdline string) *CommandSpeaker {
	if strings.TrimSpace(cmdline) == "" {
		cmdline = DefaultSayCommand
	}
	return &CommandSpeaker{Command: strings.Fields(cmdline)}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if len(s.Command) == 0 {
		return errors.New("say command is empty")
	}
	args := append(append([]string(nil), s.Command[1:]...), text)
	if out, err := exec.CommandContext(ctx, s.Command[0], args...).CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speak with %s: %w: %s", s.Command[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// WriterSpeaker prints the text instead of playing it.
type WriterSpeaker struct {
	W      io.Writer
	Prefix string
}

func (s *WriterSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.W, "%s%s\n", s.Prefix, text)
	return err
}

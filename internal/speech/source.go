package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// DefaultRecordCommand records six seconds of 16 kHz mono WAV to stdout.
const DefaultRecordCommand = "arecord -q -f S16_LE -r 16000 -c 1 -d 6 -t wav -"

// AudioSource produces raw audio for one utterance.
type AudioSource interface {
	Record(ctx context.Context) ([]byte, error)
}

// CommandSource records audio by running an external command and reading
// its stdout.
type CommandSource struct {
	Command []string
}

// NewCommandSource parses a whitespace separated command line. An empty
// line selects DefaultRecordCommand.
func NewCommandSource(cmdline string) *CommandSource {
	if strings.TrimSpace(cmdline) == "" {
		cmdline = DefaultRecordCommand
	}
	return &CommandSource{Command: strings.Fields(cmdline)}
}

func (s *CommandSource) Record(ctx context.Context) ([]byte, error) {
	if len(s.Command) == 0 {
		return nil, errors.New("record command is empty")
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("record with %s: %w: %s", s.Command[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// LineRecognizer reads one typed line as the transcript. It is the
// fallback when no microphone pipeline is configured. A single reader
// goroutine owns r, so a line typed after a cancelled Recognize is handed
// to the next call instead of being lost.
type LineRecognizer struct {
	r     *bufio.Reader
	start sync.Once
	lines chan lineResult
}

// NewLineRecognizer reads lines from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{r: bufio.NewReader(r), lines: make(chan lineResult)}
}

type lineResult struct {
	line string
	err  error
}

func (l *LineRecognizer) readLoop() {
	defer close(l.lines)
	for {
		line, err := l.r.ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		l.lines <- lineResult{line: strings.TrimRight(line, "\r\n"), err: err}
		if err != nil {
			return
		}
	}
}

func (l *LineRecognizer) Recognize(ctx context.Context) (string, error) {
	l.start.Do(func() { go l.readLoop() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

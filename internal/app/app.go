// Package app hosts the practice screen in a full-screen terminal program.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/borderdrill/internal/logger"
	"github.com/abhisek/borderdrill/internal/screens/practice"
	"github.com/abhisek/borderdrill/internal/session"
	"github.com/abhisek/borderdrill/internal/speech"
	"github.com/abhisek/borderdrill/internal/ui/layout"
)

const feedBuffer = 32

// Options configures the terminal program.
type Options struct {
	Session session.Options
	// Capture enables voice answers when set.
	Capture *speech.Capture
	Logger  *logger.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	screen *practice.Screen
	cancel context.CancelFunc
	width  int
	height int
}

// newAppModel wires a controller whose state changes feed the screen.
func newAppModel(ctx context.Context, opts Options) AppModel {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(ctx)

	feed := make(chan session.Snapshot, feedBuffer)
	sessOpts := opts.Session
	sessOpts.Logger = log
	sessOpts.OnChange = func(s session.Snapshot) { publish(feed, s) }
	ctrl := session.NewController(sessOpts)

	persona := ""
	if sessOpts.Persona != nil {
		persona = sessOpts.Persona.DisplayName
	}

	return AppModel{
		screen: practice.New(ctx, ctrl, feed, opts.Capture, persona, log),
		cancel: cancel,
	}
}

// publish delivers s without blocking the controller. When the buffer is
// full the oldest snapshot is dropped; the screen only needs the latest.
func publish(feed chan session.Snapshot, s session.Snapshot) {
	for {
		select {
		case feed <- s:
			return
		default:
		}
		select {
		case <-feed:
		default:
		}
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.screen.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader(m.screen.Title(), m.screen.Info(), m.width)
	footer := layout.RenderFooter(m.screen.KeyHints(), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.screen.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until the learner quits.
func Run(ctx context.Context, opts Options) error {
	m := newAppModel(ctx, opts)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

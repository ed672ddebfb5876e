package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/borderdrill/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with the answer-box styling.
type TextInput struct {
	Model    textinput.Model
	MaxWidth int
	locked   bool
}

// NewTextInput creates a focused text input.
func NewTextInput(placeholder string, maxWidth int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}

	return TextInput{
		Model:    ti,
		MaxWidth: maxWidth,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages. A locked input ignores key presses.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.locked {
		if _, ok := msg.(tea.KeyMsg); ok {
			return t, nil
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.locked {
		view = lipgloss.NewStyle().Foreground(theme.TextDim).Render(t.Model.Value())
	}
	return view
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// SetValue replaces the input text and moves the cursor to the end.
func (t *TextInput) SetValue(s string) {
	t.Model.SetValue(s)
	t.Model.CursorEnd()
}

// Lock freezes the input after the answer was submitted.
func (t *TextInput) Lock() {
	t.locked = true
	t.Model.Blur()
}

// Reset clears and unlocks the input for the next question.
func (t *TextInput) Reset() tea.Cmd {
	t.locked = false
	t.Model.Reset()
	return t.Model.Focus()
}

// Locked reports whether the input is frozen.
func (t TextInput) Locked() bool {
	return t.locked
}

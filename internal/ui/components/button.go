package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/borderdrill/internal/ui/theme"
)

// Button is a key-labelled action shown in a row, e.g. the hint buttons.
type Button struct {
	Key    string
	Label  string
	Active bool
	// Used marks an action that was already taken.
	Used bool
}

// NewButton creates a new button.
func NewButton(key, label string, active bool) Button {
	return Button{
		Key:    key,
		Label:  label,
		Active: active,
	}
}

// View renders the button.
func (b Button) View() string {
	label := " " + b.Key + " " + b.Label + " "
	switch {
	case b.Used:
		return theme.ButtonUsed.Render("✓" + label)
	case b.Active:
		return theme.ButtonActive.Render(label)
	}
	return theme.ButtonInactive.Render(label)
}

// ButtonRow joins buttons horizontally with a one-space gap.
func ButtonRow(buttons ...Button) string {
	parts := make([]string, 0, len(buttons)*2)
	for i, b := range buttons {
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, b.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

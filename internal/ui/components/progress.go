package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/borderdrill/internal/ui/theme"
)

// SlotProgress shows how far the learner is through the question sequence.
// Done slots are filled, the current one is highlighted.
type SlotProgress struct {
	Current int // zero-based
	Total   int
	Done    int
}

// NewSlotProgress creates a new progress indicator.
func NewSlotProgress(current, done, total int) SlotProgress {
	return SlotProgress{
		Current: current,
		Total:   total,
		Done:    done,
	}
}

// View renders the indicator, e.g. "● ● ◉ ○ ○  3/5".
func (p SlotProgress) View() string {
	if p.Total <= 0 {
		return ""
	}

	dots := make([]string, 0, p.Total)
	for i := 0; i < p.Total; i++ {
		switch {
		case i < p.Done:
			dots = append(dots, lipgloss.NewStyle().Foreground(theme.Secondary).Render("●"))
		case i == p.Current:
			dots = append(dots, lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("◉"))
		default:
			dots = append(dots, lipgloss.NewStyle().Foreground(theme.Border).Render("○"))
		}
	}

	current := min(p.Current+1, p.Total)
	return strings.Join(dots, " ") +
		lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d/%d", current, p.Total))
}

package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/borderdrill/internal/evaluation"
)

// Color palette, loosely after airport signage
var (
	Primary   = lipgloss.Color("#2563EB") // Signage Blue
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#FACC15") // Departure-board Yellow
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0B1120") // Night
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Officer = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Status = lipgloss.NewStyle().
		Foreground(Secondary)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)
)

// Layout
var (
	Header = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Footer = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)
)

// Scores
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Partial = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Components
var (
	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(Text).
			Bold(true)

	ButtonInactive = lipgloss.NewStyle().
			Foreground(TextDim)

	ButtonUsed = lipgloss.NewStyle().
			Foreground(Secondary)
)

// ScoreStyle picks the style for an evaluation score.
func ScoreStyle(s evaluation.Score) lipgloss.Style {
	switch s {
	case evaluation.ScoreCorrect:
		return Correct
	case evaluation.ScorePartial:
		return Partial
	}
	return Incorrect
}

// ScoreLabel is the Japanese badge text for a score.
func ScoreLabel(s evaluation.Score) string {
	switch s {
	case evaluation.ScoreCorrect:
		return "◎ 正解"
	case evaluation.ScorePartial:
		return "△ もう少し"
	}
	return "✗ 不正解"
}

package practice

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/borderdrill/internal/hints"
	"github.com/abhisek/borderdrill/internal/session"
	"github.com/abhisek/borderdrill/internal/ui/components"
	"github.com/abhisek/borderdrill/internal/ui/layout"
	"github.com/abhisek/borderdrill/internal/ui/theme"
)

// View renders the screen content (excluding header/footer).
func (s *Screen) View(width, height int) string {
	switch s.snap.Phase {
	case session.PhaseNotStarted:
		return s.renderWelcome(width, height)
	case session.PhaseCompleted:
		return s.renderSummary(width)
	}
	return s.renderSlot(width, height)
}

func (s *Screen) renderWelcome(width, height int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(theme.Title.Width(width).Render("✈  入国審査 練習シミュレーター"))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(width).Render(fmt.Sprintf(
		"審査官の英語の質問に %d 問答えましょう。", session.SequenceLength)))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render(
		"質問は読み上げられます。聞き取れないときはヒントを使ってください。"))
	b.WriteString("\n\n")
	b.WriteString(s.renderStatusLine(width))
	if !layout.IsCompactHeight(height) {
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).Render("Enter で開始"))
	}
	return b.String()
}

func (s *Screen) renderSlot(width, height int) string {
	snap := s.snap
	var b strings.Builder

	done := snap.Slot
	if snap.Phase == session.PhaseEvaluated {
		done++
	}
	b.WriteString("  ")
	b.WriteString(components.NewSlotProgress(snap.Slot, done, snap.Total).View())
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	b.WriteString(s.renderStatusLine(width))
	b.WriteString("\n\n")

	if snap.Question != nil {
		b.WriteString(s.renderDisclosure(width))
		b.WriteString("\n")
		b.WriteString(s.renderHintButtons(width))
		b.WriteString("\n\n")
		b.WriteString(s.renderAnswer(width))
	}

	if snap.Result != nil {
		b.WriteString("\n\n")
		b.WriteString(s.renderResult(width))
	}

	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorText.Width(width).Align(lipgloss.Center).Render(s.notice))
	}
	return b.String()
}

func (s *Screen) renderStatusLine(width int) string {
	status := s.snap.Status
	if s.listening {
		status = "🎙 録音中... 話し終えるまでお待ちください"
	}
	line := theme.Status.Width(width).Align(lipgloss.Center).Render(status)
	if s.snap.ErrText != "" && s.snap.Phase == session.PhaseLoading {
		line += "\n" + theme.ErrorText.Width(width).Align(lipgloss.Center).Render(s.snap.ErrText)
	}
	return line
}

// renderDisclosure shows whatever the current hint level unlocked. Before
// the first hint the learner only hears the question.
func (s *Screen) renderDisclosure(width int) string {
	d := s.snap.Disclosure
	cardWidth := min(width-4, 90)

	var lines []string
	if d.Question == "" {
		lines = append(lines, theme.Hint.Render("(質問は音声のみ。Tab でヒントを表示)"))
	} else {
		lines = append(lines, theme.Officer.Render("Officer: ")+theme.Body.Render(d.Question))
	}
	if d.Translation != "" {
		lines = append(lines, theme.Hint.Render("訳: ")+theme.Body.Render(d.Translation))
	}
	if d.SampleAnswer != "" {
		lines = append(lines, theme.Hint.Render("回答例: ")+theme.Body.Render(d.SampleAnswer))
	}
	if d.PlaySample && s.snap.Speaking {
		lines = append(lines, theme.Status.Render("🔊 回答例を再生中..."))
	}

	card := theme.Card.Width(cardWidth).Render(strings.Join(lines, "\n"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}

func (s *Screen) renderHintButtons(width int) string {
	level := s.snap.HintLevel
	compact := layout.IsCompactWidth(width)
	buttons := make([]components.Button, 0, hints.MaxLevel)
	for l := 1; l <= hints.MaxLevel; l++ {
		label := hints.Label(l)
		if compact {
			label = ""
		}
		b := components.NewButton(string([]rune("①②③④")[l-1]), label, l == level+1 && s.snap.CanHint())
		b.Used = l <= level
		buttons = append(buttons, b)
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, components.ButtonRow(buttons...))
}

func (s *Screen) renderAnswer(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render("You: " + s.input.View())
}

func (s *Screen) renderResult(width int) string {
	r := s.snap.Result
	badge := theme.ScoreStyle(r.Score).Render(theme.ScoreLabel(r.Score))
	msg := theme.Body.Render(r.Message)
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(badge + "\n" + msg)
}

func (s *Screen) renderSummary(width int) string {
	sum := s.snap.Summary
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render(session.StatusCompleted))
	b.WriteString("\n\n")
	if sum == nil {
		return b.String()
	}

	stats := fmt.Sprintf("%s %d   %s %d   %s %d   ヒント %d 回   %s",
		theme.Correct.Render("◎"), sum.Correct,
		theme.Partial.Render("△"), sum.Partial,
		theme.Incorrect.Render("✗"), sum.Incorrect,
		sum.HintsUsed,
		formatDuration(sum.Duration),
	)
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(stats))
	b.WriteString("\n\n")

	rowWidth := min(width-4, 90)
	for _, r := range sum.Results {
		q := r.Question.Text
		if len(q) > rowWidth-12 && rowWidth > 15 {
			q = q[:rowWidth-15] + "..."
		}
		line := fmt.Sprintf("%d. %s %s", r.Slot+1,
			theme.ScoreStyle(r.Result.Score).Render(theme.ScoreLabel(r.Result.Score)),
			theme.Body.Render(q))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(rowWidth).Render(line)))
		b.WriteString("\n")
		answer := theme.Hint.Render("   You: " + r.Answer)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(rowWidth).Render(answer)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render(sum.Message()))
	return b.String()
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

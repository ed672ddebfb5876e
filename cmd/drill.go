package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/borderdrill/internal/catalog"
	"github.com/abhisek/borderdrill/internal/evaluation"
	"github.com/abhisek/borderdrill/internal/hints"
	"github.com/abhisek/borderdrill/internal/questiongen"
	"github.com/abhisek/borderdrill/internal/session"
	"github.com/abhisek/borderdrill/internal/speech"
)

var drillCmd = &cobra.Command{
	Use:   "drill",
	Short: "Run a plain-text practice session (no database, no TUI)",
	Long: `Run one five-question session on stdin/stdout.

The officer's lines are printed (and spoken when a say command is set).
Type an answer, or "?" for the next hint. Useful over SSH and for checking
question quality without touching the audit log.`,
	RunE: runDrill,
}

func init() {
	drillCmd.Flags().IntSlice("templates", nil, "Ask these template ids first, in order (e.g. 1,4,7)")
	drillCmd.Flags().Bool("quiet", false, "Print the officer's lines instead of speaking them")
}

func runDrill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, cmd, logFileOnly, false)
	if err != nil {
		return err
	}
	defer d.Close()

	order, _ := cmd.Flags().GetIntSlice("templates")
	if len(order) > 0 {
		for _, id := range order {
			if _, ok := catalog.TemplateByID(id); !ok {
				return fmt.Errorf("unknown template id %d", id)
			}
		}
		cfg := questiongen.DefaultConfig()
		cfg.Selector = questiongen.FixedSelector{TemplateOrder: order, PersonaID: d.cfg.Session.DefaultPersona}
		d.generator = questiongen.New(d.provider, cfg)
	}

	out := cmd.OutOrStdout()
	opts := d.sessionOptions()
	opts.Speaker = d.speaker()
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet || opts.Speaker == nil {
		opts.Speaker = &speech.WriterSpeaker{W: out, Prefix: "Officer: "}
	}

	if name := personaName(opts.Persona); name != "" {
		fmt.Fprintf(out, "審査官: %s\n", name)
	}
	return drill(ctx, session.NewController(opts), speech.NewLineRecognizer(cmd.InOrStdin()), out)
}

// drill drives one session with typed answers. The officer's lines reach
// the learner through the controller's speaker.
func drill(ctx context.Context, ctrl *session.Controller, in speech.Recognizer, out io.Writer) error {
	printHeading(out, 0, session.SequenceLength)
	if err := retryLoad(ctx, ctrl, out, ctrl.Start(ctx)); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	for {
		snap := ctrl.Snapshot()
		if snap.Phase == session.PhaseCompleted {
			printSummary(out, snap.Summary)
			return nil
		}

		if err := answerSlot(ctx, ctrl, in, out); err != nil {
			return err
		}

		if !snap.IsLast() {
			printHeading(out, snap.Slot+1, snap.Total)
		}
		if err := retryLoad(ctx, ctrl, out, ctrl.Advance(ctx)); err != nil {
			return err
		}
	}
}

func printHeading(out io.Writer, slot, total int) {
	fmt.Fprintf(out, "\n── Question %d/%d ──\n", slot+1, total)
}

// answerSlot reads lines until one is submitted. "?" unlocks the next hint.
func answerSlot(ctx context.Context, ctrl *session.Controller, in speech.Recognizer, out io.Writer) error {
	for {
		fmt.Fprint(out, "You: ")
		line, err := in.Recognize(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("input closed")
			}
			return err
		}
		line = strings.TrimSpace(line)

		if line == "?" {
			snap := ctrl.Snapshot()
			if err := ctrl.ShowHint(ctx, snap.HintLevel+1); err != nil {
				fmt.Fprintln(out, "(no more hints)")
				continue
			}
			printDisclosure(out, ctrl.Snapshot().Disclosure)
			continue
		}

		if line == "" {
			fmt.Fprintln(out, "(please type an answer, or ? for a hint)")
			continue
		}
		if err := ctrl.RecordAnswer(line); err != nil {
			return fmt.Errorf("record answer: %w", err)
		}
		if err := ctrl.Submit(ctx); err != nil {
			return fmt.Errorf("submit: %w", err)
		}
		printResult(out, ctrl.Snapshot().Result)
		return nil
	}
}

// retryLoad retries a failed generation once.
func retryLoad(ctx context.Context, ctrl *session.Controller, out io.Writer, err error) error {
	if errors.Is(err, questiongen.ErrGenerationFailed) {
		fmt.Fprintln(out, session.StatusGenFailed+"。再試行します...")
		err = ctrl.LoadSlot(ctx)
	}
	return err
}

func printDisclosure(out io.Writer, d hints.Disclosure) {
	switch d.Level {
	case 1:
		fmt.Fprintf(out, "  [%s] %s\n", hints.Label(1), d.Question)
	case 2:
		fmt.Fprintf(out, "  [%s] %s\n", hints.Label(2), d.Translation)
	case 3:
		fmt.Fprintf(out, "  [%s] %s\n", hints.Label(3), d.SampleAnswer)
	case 4:
		fmt.Fprintf(out, "  [%s]\n", hints.Label(4))
	}
}

func printResult(out io.Writer, r *evaluation.Result) {
	if r == nil {
		return
	}
	mark := map[evaluation.Score]string{
		evaluation.ScoreCorrect:   "\033[32m◎\033[0m",
		evaluation.ScorePartial:   "\033[33m△\033[0m",
		evaluation.ScoreIncorrect: "\033[31m✗\033[0m",
	}[r.Score]
	fmt.Fprintf(out, "%s %s\n", mark, r.Message)
}

func printSummary(out io.Writer, s *session.Summary) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, session.StatusCompleted)
	if s == nil {
		return
	}
	fmt.Fprintf(out, "── Summary: %d correct, %d partial, %d incorrect, %d hints ──\n",
		s.Correct, s.Partial, s.Incorrect, s.HintsUsed)
	fmt.Fprintln(out, s.Message())
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/borderdrill/internal/app"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start a practice session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

// runPractice builds dependencies and launches the TUI.
func runPractice(cmd *cobra.Command) error {
	ctx := cmd.Context()
	d, err := buildDeps(ctx, cmd, logFileOnly, true)
	if err != nil {
		return err
	}
	defer d.Close()

	capture, err := d.capture(ctx)
	if err != nil {
		// Typed answers still work.
		d.log.Warn("voice capture unavailable", "error", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "Voice capture unavailable:", err)
	}

	opts := d.sessionOptions()
	opts.Speaker = d.speaker()

	return app.Run(ctx, app.Options{
		Session: opts,
		Capture: capture,
		Logger:  d.log,
	})
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/borderdrill/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "borderdrill",
	Short: "Immigration interview practice for Japanese travellers",
	Long: "borderdrill — terminal and web simulator for practicing answers to an\n" +
		"immigration officer's questions in English, with hints and AI feedback.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPractice(cmd)
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides BORDERDRILL_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides BORDERDRILL_CONFIG env var)")
	rootCmd.PersistentFlags().String("persona", "", "Pin the officer for the whole session: kind, normal or strict")

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(drillCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then BORDERDRILL_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/borderdrill/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List question templates and officer personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := catalog.Validate(); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Templates []catalog.QuestionTemplate `json:"templates"`
				Personas  []catalog.Persona          `json:"personas"`
			}{catalog.Templates(), catalog.Personas()})
		}
		printCatalog(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	catalogCmd.Flags().Bool("json", false, "Print as JSON")
}

func printCatalog(out io.Writer) {
	fmt.Fprintln(out, "Question Templates")
	fmt.Fprintln(out, strings.Repeat("─", 80))
	fmt.Fprintf(out, "%-3s  %-12s  %-40s  %s\n", "ID", "Topic", "Base question", "Keywords")
	fmt.Fprintln(out, strings.Repeat("─", 80))
	for _, t := range catalog.Templates() {
		fmt.Fprintf(out, "%-3d  %-12s  %-40s  %s\n",
			t.ID, truncate(t.TopicEN, 12), truncate(t.BaseQuestion, 40), strings.Join(t.Keywords, ", "))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Officer Personas")
	fmt.Fprintln(out, strings.Repeat("─", 80))
	for _, p := range catalog.Personas() {
		fmt.Fprintf(out, "%-7s  %-8s  %s  (%s)\n", p.ID, p.Tone, p.DisplayName, p.Description)
	}
}

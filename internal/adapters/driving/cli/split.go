package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

var (
	splitOutput string
	splitJSON   bool
	splitFlags  optionFlags
)

var splitCmd = &cobra.Command{
	Use:   "split [file]",
	Short: "Split a document into linked topic files",
	Long: `Split a document into one markdown file per topic plus a master index.

Supported formats: markdown, plain text, HTML, PDF and DOCX. Output goes to
./<file stem>/ unless -o is given. Flags override the configured settings
for this run only.`,
	Example: `  topicnet split report.pdf
  topicnet split notes.md -o out/notes --max-topics 5 --cross-chunk
  topicnet split q3.md --export --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().StringVarP(&splitOutput, "output", "o", "", "output directory (default ./<file stem>)")
	splitCmd.Flags().BoolVar(&splitJSON, "json", false, "print the run report as JSON")
	splitFlags.register(splitCmd)
	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	if err := ensureEngine(cmd.Context(), false); err != nil {
		return err
	}
	if splitService == nil {
		return errors.New("split service not configured")
	}

	path := args[0]
	out := splitOutput
	if out == "" {
		out = domain.SourceStem(path)
	}

	result, err := splitService.SplitFile(cmd.Context(), path, out, splitFlags.options(cmd))
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}

	if splitJSON {
		return writeReportJSON(cmd.OutOrStdout(), result.Report)
	}
	renderSummary(cmd.OutOrStdout(), result.Report)
	return nil
}

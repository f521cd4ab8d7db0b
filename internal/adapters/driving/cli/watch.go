package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicnet/internal/adapters/driving/watcher"
)

var (
	watchOutput   string
	watchDebounce int
	watchFlags    optionFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Split documents as they change",
	Long: `Watch a directory and split every supported document that is created
or saved into <output>/<file stem>/. Subdirectories are not watched.
Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "output root (default: the watched directory)")
	watchCmd.Flags().IntVar(&watchDebounce, "debounce-ms", int(watcher.DefaultDebounce.Milliseconds()),
		"quiet period before a changed file is split")
	watchFlags.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureEngine(cmd.Context(), true); err != nil {
		return err
	}
	if splitService == nil || converterRegistry == nil {
		return errors.New("split service not configured")
	}

	dir := args[0]
	out := watchOutput
	if out == "" {
		out = dir
	}

	w := watcher.New(splitService, converterRegistry, out, watchFlags.options(cmd),
		watcher.WithDebounce(millis(watchDebounce)))
	results, err := w.Watch(cmd.Context(), dir)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	for res := range results {
		if res.Err != nil {
			cmd.PrintErrf("✗ %s: %v\n", res.Path, res.Err)
			continue
		}
		renderSummary(cmd.OutOrStdout(), res.Split.Report)
		cmd.Println()
	}
	return nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

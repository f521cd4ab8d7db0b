package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var promptsResetAll bool

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List LLM prompt templates",
	Long: `List the prompt templates used for topic detection and key concept
extraction, and whether each has been customised. Edit the files shown to
change how topics are detected.`,
	RunE: runPromptsList,
}

var promptsResetCmd = &cobra.Command{
	Use:   "reset [name]",
	Short: "Restore a prompt to its built-in template",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPromptsReset,
}

func init() {
	promptsResetCmd.Flags().BoolVar(&promptsResetAll, "all", false, "reset every prompt")
	promptsCmd.AddCommand(promptsResetCmd)
	rootCmd.AddCommand(promptsCmd)
}

func runPromptsList(cmd *cobra.Command, _ []string) error {
	if promptManager == nil {
		return errors.New("prompt store not configured")
	}

	for _, name := range promptManager.Names() {
		status := "default"
		if promptManager.Customised(name) {
			status = "customised"
		}
		cmd.Printf("%-24s %-10s %s\n", name, status, promptManager.Path(name))
	}
	return nil
}

func runPromptsReset(cmd *cobra.Command, args []string) error {
	if promptManager == nil {
		return errors.New("prompt store not configured")
	}

	var names []string
	switch {
	case promptsResetAll:
		names = promptManager.Names()
	case len(args) == 1:
		names = args
	default:
		return errors.New("name a prompt or pass --all")
	}

	for _, name := range names {
		if err := promptManager.Reset(name); err != nil {
			return fmt.Errorf("failed to reset prompt: %w", err)
		}
		cmd.Printf("Reset %s\n", name)
	}
	return nil
}

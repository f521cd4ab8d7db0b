package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
)

var (
	queryLimit int
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Find exported topics related to some text",
	Long: `Embed the text and list the nearest topics exported with 'topicnet split --export'.
Requires a vector store and a network embedding provider.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 10, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureEngine(cmd.Context(), false); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	text := strings.Join(args, " ")
	matches, err := searchService.Query(cmd.Context(), text, queryLimit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, matches)
	}

	if len(matches) == 0 {
		cmd.Println("No topics found.")
		return nil
	}

	cmd.Printf("Topics related to %q:\n\n", text)
	for i, m := range matches {
		cmd.Printf("%d. %s (%.0f%%)\n", i+1, m.Title, m.Score*100)
		cmd.Printf("   %s › %s, chunk_index %d\n", m.Source, m.TopicID, m.ChunkIndex)
		if m.Excerpt != "" {
			cmd.Printf("   %s\n", m.Excerpt)
		}
		cmd.Println()
	}
	return nil
}

func outputQueryJSON(cmd *cobra.Command, matches []driving.TopicMatch) error {
	type matchJSON struct {
		Source     string  `json:"source"`
		TopicID    string  `json:"topic_id"`
		Title      string  `json:"title"`
		ChunkIndex int     `json:"chunk_index"`
		Score      float64 `json:"score"`
		Excerpt    string  `json:"excerpt,omitempty"`
	}

	out := make([]matchJSON, len(matches))
	for i, m := range matches {
		out[i] = matchJSON{
			Source:     m.Source,
			TopicID:    m.TopicID,
			Title:      m.Title,
			ChunkIndex: m.ChunkIndex,
			Score:      m.Score,
			Excerpt:    m.Excerpt,
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

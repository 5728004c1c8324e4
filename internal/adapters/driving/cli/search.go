package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
)

var (
	searchTopK      int
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs semantic search across all indexed chunks.
Scores are cosine similarity; results below the threshold are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 5, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0.0, "minimum similarity score")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(false); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	query := args[0]
	ctx := context.Background()

	results, err := searchService.Search(ctx, query, searchTopK, searchThreshold)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, results[i].DocumentID, results[i].Score)
		cmd.Printf("      Chunk: %s, page %d\n", results[i].ChunkID, results[i].Page)
		cmd.Printf("      %s\n", snippet(results[i].Text, 200))
		cmd.Println()
	}

	return nil
}

// snippet truncates text for table output.
func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

var (
	searchLimit     int
	searchAlgorithm string
	searchDocType   string
	searchThreshold float64
	searchVerify    bool
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Searches the vector index with the selected algorithm.
Available algorithms: semantic, keyword, fuzzy, hybrid, bm25_hybrid.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchAlgorithm, "algorithm", "a", "", "search algorithm (default from config)")
	searchCmd.Flags().StringVarP(&searchDocType, "type", "t", "", "restrict to one document type")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity score for semantic results")
	searchCmd.Flags().BoolVar(&searchVerify, "verify", false, "drop results no longer accessible at the source")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if services == nil {
		return errors.New("services not configured")
	}

	name := searchAlgorithm
	if name == "" {
		name = services.DefaultAlgorithm
	}
	algo, ok := services.Algorithms[name]
	if !ok {
		return fmt.Errorf("unknown algorithm %q", name)
	}

	ctx := cmd.Context()
	results, err := algo.Search(ctx, query, services.UserID, domain.SearchOptions{
		Limit:          searchLimit,
		DocType:        domain.DocType(searchDocType),
		ScoreThreshold: searchThreshold,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchVerify && services.Verifier != nil {
		results, err = services.Verifier.Verify(ctx, services.UserID, results)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
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
		title := results[i].Title
		if title == "" {
			title = results[i].ID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, results[i].Score)
		cmd.Printf("      Type: %s\n", results[i].DocType)
		if results[i].Excerpt != "" {
			cmd.Printf("      %s\n", results[i].Excerpt)
		}
		cmd.Println()
	}

	return nil
}

package cli

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/calder-labs/filekb/internal/adapters/driving/tui"
	"github.com/calder-labs/filekb/internal/core/domain"
)

var (
	queryTopK        int
	queryThreshold   float64
	queryJSON        bool
	queryNoRerank    bool
	queryInteractive bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the knowledge base",
	Long: `Runs hybrid retrieval over the index: vector similarity with an
advisory keyword filter, then a second-pass semantic rerank.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "n", 5, "maximum number of results")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", 0, "minimum score in [0,1]")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryCmd.Flags().BoolVar(&queryNoRerank, "no-rerank", false, "return raw index scores")
	queryCmd.Flags().BoolVarP(&queryInteractive, "interactive", "i", false, "open the query console")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := initEngine(false); err != nil {
		return err
	}

	opts := domain.SearchOptions{
		TopK:      queryTopK,
		Threshold: queryThreshold,
		Rerank:    !queryNoRerank,
	}

	if queryInteractive {
		model := tui.New(searchService, opts)
		_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	}

	if len(args) == 0 {
		return fmt.Errorf("provide a query or use --interactive: %w", domain.ErrValidation)
	}

	results, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, results)
	}
	printResults(cmd, results)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printResults(cmd *cobra.Command, results []domain.QueryResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	for i, r := range results {
		cmd.Printf("[%d] %.3f  %s\n", i+1, r.Score, r.Source)
		cmd.Printf("    %s\n\n", snippet(r.Text, 240))
	}
}

// snippet truncates text to limit characters at a word boundary.
func snippet(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	for i := len(cut) - 1; i > 0; i-- {
		if cut[i] == ' ' {
			cut = cut[:i]
			break
		}
	}
	return cut + "..."
}

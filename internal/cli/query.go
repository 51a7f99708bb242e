package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
)

var (
	queryText     string
	queryTopK     int
	queryJSON     bool
	queryStrategy string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the indexed corpus without generation",
	Long: `Search indexed chunks with one retrieval strategy and print the
ranked results.

Strategies: dense, bm25, contextual, hybrid, rerank.

Examples:
  docqa query -q "refund policy"
  docqa query -q "refund policy" -s hybrid --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 5, "number of results")
	queryCmd.Flags().StringVarP(&queryStrategy, "strategy", "s", "hybrid", "retrieval strategy")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

type queryResult struct {
	Rank    int      `json:"rank"`
	Score   float64  `json:"score"`
	Methods []string `json:"methods"`
	Text    string   `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	strategy := domain.Strategy(queryStrategy)
	switch strategy {
	case domain.StrategyDense, domain.StrategyBM25, domain.StrategyContextual,
		domain.StrategyHybrid, domain.StrategyRerank:
	default:
		return fmt.Errorf("unknown strategy %q", queryStrategy)
	}

	embedder, _, oracle, err := buildProvider()
	if err != nil {
		return err
	}

	engine, err := restoreEngine(oracle)
	if err != nil {
		return err
	}

	var queryVector []float32
	if strategy != domain.StrategyBM25 {
		vectors, err := embedder.Embed(cmd.Context(), []string{queryText})
		if err != nil {
			return fmt.Errorf("failed to embed query: %w", err)
		}
		if len(vectors) == 0 {
			return fmt.Errorf("embedding returned no vector")
		}
		queryVector = vectors[0]
	}

	results, err := engine.Search(cmd.Context(), queryText, queryVector, queryTopK, strategy)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := make([]queryResult, 0, len(results))
	for _, r := range results {
		methods := make([]string, 0, len(r.Methods))
		for _, m := range r.MethodList() {
			methods = append(methods, string(m))
		}
		out = append(out, queryResult{Rank: r.Rank, Score: r.Score, Methods: methods, Text: r.Text})
	}

	if queryJSON {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(out) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(out), queryText)
	for _, r := range out {
		fmt.Printf("%d. [%.4f] (%s)\n   %s\n\n", r.Rank, r.Score,
			strings.Join(r.Methods, ","), trimForDisplay(r.Text, 240))
	}
	return nil
}

func trimForDisplay(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

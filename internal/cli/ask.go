package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

var (
	askText     string
	askStrategy string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question over the indexed documents",
	Long: `Embed the question, retrieve supporting chunks with the chosen
strategy, and generate an answer with citations.

Examples:
  docqa ask -q "what is the refund policy?"
  docqa ask -q "who approves expenses?" -s rerank`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question (required)")
	askCmd.Flags().StringVarP(&askStrategy, "strategy", "s", "hybrid", "retrieval strategy")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	embedder, generator, oracle, err := buildProvider()
	if err != nil {
		return err
	}

	engine, err := restoreEngine(oracle)
	if err != nil {
		return err
	}

	answerUC := usecase.NewAnswerUseCase(embedder, generator, engine)
	answer, err := answerUC.Ask(cmd.Context(), askText, domain.Strategy(askStrategy))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range answer.Sources {
			fmt.Printf("  %d. [%.4f] %s\n", s.Rank, s.Score, trimForDisplay(s.Text, 120))
		}
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index readiness and document counts",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if !snapshotExists() {
		fmt.Println("No index found. Run 'docqa ingest' first.")
		return nil
	}

	engine, err := restoreEngine(nil)
	if err != nil {
		return err
	}
	status := engine.Status()

	if statusJSON {
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Snapshot:   %s\n", snapshotPath())
	fmt.Printf("Dimension:  %d\n", status.Dimension)
	fmt.Printf("Dense:      ready=%v count=%d\n", status.Dense.Ready, status.Dense.Count)
	fmt.Printf("Lexical:    ready=%v count=%d\n", status.Lexical.Ready, status.Lexical.Count)
	fmt.Printf("Contextual: ready=%v count=%d\n", status.Contextual.Ready, status.Contextual.Count)
	if len(status.Sources) > 0 {
		fmt.Println("Sources:")
		for _, s := range status.Sources {
			fmt.Printf("  - %s\n", s)
		}
	}
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <source>",
	Short: "Remove one source document and rebuild the indices",
	Long: `Delete every chunk belonging to the given source and rebuild all
three indices from the retained chunks of the surviving documents. The
rebuild is blocking and proportional to the remaining corpus size.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	engine, err := restoreEngine(nil)
	if err != nil {
		return err
	}

	if err := engine.DeleteSource(args[0]); err != nil {
		return err
	}
	if err := saveEngine(engine); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	fmt.Printf("Deleted %s; %d chunks remain\n", args[0], engine.DocumentCount())
	return nil
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the entire index",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := snapshotPath()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove snapshot: %w", err)
		}
		fmt.Println("Index reset.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

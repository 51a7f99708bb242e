package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/fs"
	"docqa/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk, embed, and index documents",
	Long: `Ingest plain-text documents from the given directory. Each file is
cleaned, split into overlapping word windows, embedded, and added to all
three indices. The corpus is saved to .docqa/snapshot.db for later queries.

Examples:
  docqa ingest ./docs
  docqa ingest .  --config docqa.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	embedder, _, _, err := buildProvider()
	if err != nil {
		return err
	}

	engine := buildEngine(nil)
	if snapshotExists() {
		// Append to the existing corpus rather than starting over.
		restored, err := restoreEngine(nil)
		if err != nil {
			return err
		}
		engine = restored
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	chk := chunker.NewWindowChunker(cfg.Ingest.ChunkTokens, cfg.Ingest.ChunkOverlap)
	ingestUC := usecase.NewIngestUseCase(walker, chk, embedder, engine, logger)

	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", path, err)
	}
	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	ingestUC.OnFile = func(string, int) {
		_ = bar.Add(1)
	}

	result, err := ingestUC.IngestDir(cmd.Context(), path)
	if err != nil {
		return err
	}
	_ = bar.Finish()

	if err := saveEngine(engine); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	fmt.Printf("Ingested %d files (%d chunks), skipped %d empty\n",
		result.FilesIngested, result.ChunksCreated, result.FilesSkipped)
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, "warning:", e)
	}
	return nil
}

func snapshotExists() bool {
	_, err := os.Stat(snapshotPath())
	return err == nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/fs"
	"docqa/internal/port"
)

// IngestUseCase turns files into indexed chunks: walk, extract, chunk,
// embed, add. Embedding happens before the engine lock is ever taken.
type IngestUseCase struct {
	walker   *fs.Walker
	chunker  *chunker.WindowChunker
	embedder port.Embedder
	engine   *Engine
	log      *slog.Logger

	// OnFile, when set, is called after each file is processed. Used by
	// the CLI for progress reporting.
	OnFile func(path string, chunks int)
}

// NewIngestUseCase creates an ingest use case.
func NewIngestUseCase(
	walker *fs.Walker,
	chunker *chunker.WindowChunker,
	embedder port.Embedder,
	engine *Engine,
	log *slog.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		walker:   walker,
		chunker:  chunker,
		embedder: embedder,
		engine:   engine,
		log:      log,
	}
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	FilesIngested int
	FilesSkipped  int
	ChunksCreated int
	Errors        []string
}

// IngestDir ingests every matching file under root. A provider failure on
// any file fails that file and is recorded, not retried.
func (u *IngestUseCase) IngestDir(ctx context.Context, root string) (*IngestResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	result := &IngestResult{}
	for _, file := range files {
		source := file.Path
		if rel, err := filepath.Rel(root, file.Path); err == nil {
			source = rel
		}

		n, err := u.IngestFile(ctx, file.Path, source)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", source, err))
			continue
		}
		if n == 0 {
			result.FilesSkipped++
		} else {
			result.FilesIngested++
			result.ChunksCreated += n
		}
		if u.OnFile != nil {
			u.OnFile(source, n)
		}
	}
	return result, nil
}

// IngestFile extracts, chunks, embeds, and indexes one file under the
// given source label. Returns the number of chunks created.
func (u *IngestUseCase) IngestFile(ctx context.Context, path, source string) (int, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	chunks := u.chunker.Chunk(content)
	if len(chunks) == 0 {
		u.log.Debug("file produced no chunks", "source", source)
		return 0, nil
	}

	vectors, err := u.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err := u.engine.Add(chunks, vectors, source); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

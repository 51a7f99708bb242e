package port

import "docqa/internal/domain"

// SnapshotStore persists one full copy of the engine corpus. A snapshot
// replaces any previous one; there is no version history.
type SnapshotStore interface {
	Save(chunks []domain.Chunk, vectors [][]float32) error

	Load() ([]domain.Chunk, [][]float32, error)

	Close() error
}

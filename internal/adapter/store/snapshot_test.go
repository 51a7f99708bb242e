package store

import (
	"errors"
	"path/filepath"
	"testing"

	"docqa/internal/domain"
)

func openTestStore(t *testing.T) *BoltSnapshotStore {
	t.Helper()
	s, err := NewBoltSnapshotStore(filepath.Join(t.TempDir(), "snapshot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)

	chunks := []domain.Chunk{
		{Text: "first chunk", Source: "a.txt", Ordinal: 0},
		{Text: "second chunk", Source: "a.txt", Ordinal: 1},
		{Text: "other doc", Source: "b.md", Ordinal: 2},
	}
	vectors := [][]float32{
		{1, 0, -0.5},
		{0, 1, 0.25},
		{0.125, -1, 0},
	}

	if err := s.Save(chunks, vectors); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gotChunks, gotVectors, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(gotChunks) != len(chunks) || len(gotVectors) != len(vectors) {
		t.Fatalf("got %d chunks, %d vectors", len(gotChunks), len(gotVectors))
	}
	for i := range chunks {
		if gotChunks[i] != chunks[i] {
			t.Errorf("chunk %d = %+v, want %+v", i, gotChunks[i], chunks[i])
		}
		for j := range vectors[i] {
			if gotVectors[i][j] != vectors[i][j] {
				t.Errorf("vector %d[%d] = %v, want %v", i, j, gotVectors[i][j], vectors[i][j])
			}
		}
	}
}

func TestSnapshotSaveReplaces(t *testing.T) {
	s := openTestStore(t)

	first := []domain.Chunk{
		{Text: "one", Source: "a.txt", Ordinal: 0},
		{Text: "two", Source: "a.txt", Ordinal: 1},
	}
	if err := s.Save(first, [][]float32{{1}, {2}}); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	second := []domain.Chunk{{Text: "only", Source: "b.txt", Ordinal: 0}}
	if err := s.Save(second, [][]float32{{3}}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	chunks, vectors, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "only" {
		t.Errorf("chunks = %+v, want only the second snapshot", chunks)
	}
	if len(vectors) != 1 || vectors[0][0] != 3 {
		t.Errorf("vectors = %v", vectors)
	}
}

func TestSnapshotLoadEmpty(t *testing.T) {
	s := openTestStore(t)

	chunks, vectors, err := s.Load()
	if err != nil {
		t.Fatalf("Load on fresh store: %v", err)
	}
	if len(chunks) != 0 || len(vectors) != 0 {
		t.Errorf("fresh store returned %d chunks, %d vectors", len(chunks), len(vectors))
	}
}

func TestSnapshotSaveEmpty(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save([]domain.Chunk{{Text: "x", Source: "a", Ordinal: 0}}, [][]float32{{1}}); err != nil {
		t.Fatalf("seed Save: %v", err)
	}
	if err := s.Save(nil, nil); err != nil {
		t.Fatalf("empty Save: %v", err)
	}

	chunks, vectors, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) != 0 || len(vectors) != 0 {
		t.Errorf("empty snapshot loaded %d chunks, %d vectors", len(chunks), len(vectors))
	}
}

func TestSnapshotSaveLengthMismatch(t *testing.T) {
	s := openTestStore(t)

	err := s.Save([]domain.Chunk{{Text: "x"}}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, 3.14159}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d = %v, want %v", i, out[i], in[i])
		}
	}
}

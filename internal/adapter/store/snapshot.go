package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
)

var (
	bucketChunks  = []byte("chunks")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")

	keyCount     = []byte("count")
	keyDimension = []byte("dimension")
)

// BoltSnapshotStore persists the engine corpus to a BoltDB file. Each Save
// replaces the previous snapshot in one transaction; positional chunk
// identity is preserved through the big-endian ordinal keys.
type BoltSnapshotStore struct {
	db *bbolt.DB
}

type storedChunk struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	Ordinal int    `json:"ordinal"`
}

// NewBoltSnapshotStore opens (or creates) a snapshot database at path.
func NewBoltSnapshotStore(path string) (*BoltSnapshotStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot buckets: %w", err)
	}

	return &BoltSnapshotStore{db: db}, nil
}

// Save writes the corpus, replacing any previous snapshot.
func (s *BoltSnapshotStore) Save(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrValidation, len(chunks), len(vectors))
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketVectors} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		cb := tx.Bucket(bucketChunks)
		vb := tx.Bucket(bucketVectors)
		for i, chunk := range chunks {
			key := ordinalKey(i)

			data, err := json.Marshal(storedChunk{
				Text:    chunk.Text,
				Source:  chunk.Source,
				Ordinal: chunk.Ordinal,
			})
			if err != nil {
				return err
			}
			if err := cb.Put(key, data); err != nil {
				return err
			}
			if err := vb.Put(key, encodeVector(vectors[i])); err != nil {
				return err
			}
		}

		mb := tx.Bucket(bucketMeta)
		if err := mb.Put(keyCount, ordinalKey(len(chunks))); err != nil {
			return err
		}
		dim := 0
		if len(vectors) > 0 {
			dim = len(vectors[0])
		}
		return mb.Put(keyDimension, ordinalKey(dim))
	})
}

// Load reads the snapshot back in ordinal order.
func (s *BoltSnapshotStore) Load() ([]domain.Chunk, [][]float32, error) {
	var chunks []domain.Chunk
	var vectors [][]float32

	err := s.db.View(func(tx *bbolt.Tx) error {
		mb := tx.Bucket(bucketMeta)
		countRaw := mb.Get(keyCount)
		if countRaw == nil {
			return nil
		}
		count := int(binary.BigEndian.Uint64(countRaw))

		cb := tx.Bucket(bucketChunks)
		vb := tx.Bucket(bucketVectors)
		for i := 0; i < count; i++ {
			key := ordinalKey(i)

			raw := cb.Get(key)
			if raw == nil {
				return fmt.Errorf("snapshot corrupt: missing chunk %d", i)
			}
			var stored storedChunk
			if err := json.Unmarshal(raw, &stored); err != nil {
				return fmt.Errorf("snapshot corrupt: chunk %d: %w", i, err)
			}
			chunks = append(chunks, domain.Chunk{
				Text:    stored.Text,
				Source:  stored.Source,
				Ordinal: stored.Ordinal,
			})

			vraw := vb.Get(key)
			if vraw == nil {
				return fmt.Errorf("snapshot corrupt: missing vector %d", i)
			}
			vectors = append(vectors, decodeVector(vraw))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return chunks, vectors, nil
}

// Close closes the underlying database.
func (s *BoltSnapshotStore) Close() error {
	return s.db.Close()
}

func ordinalKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.BigEndian.Uint32(buf[i*4:]))
	}
	return v
}

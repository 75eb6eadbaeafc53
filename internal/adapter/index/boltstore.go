package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
	"ragbench/internal/domain"
)

var (
	bucketEmbeddings = []byte("embeddings")
	bucketMetadata   = []byte("metadata")
	bucketTexts      = []byte("texts")
	bucketMeta       = []byte("meta")
	keyInfo          = []byte("index_info")
)

// BoltStore persists the index artifact: three aligned buckets keyed by
// fragment ordinal (embeddings, metadata, texts) plus an info record.
// texts[i] and metadata[i] describe embeddings[i]; any drift between
// the buckets fails the load.
type BoltStore struct {
	db *bbolt.DB
}

// IndexInfo describes the stored artifact.
type IndexInfo struct {
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
	Count     int    `json:"count"`
}

type fragmentMeta struct {
	DocID  string `json:"doc_id"`
	Source string `json:"source,omitempty"`
}

// NewBoltStore opens (or creates) the index artifact at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", domain.ErrIndexUnavailable, path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketEmbeddings, bucketMetadata, bucketTexts, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// PutBatch writes fragments and their embeddings, each keyed by the
// fragment's ID. All three buckets are written in one transaction so a
// partial write cannot leave them misaligned.
func (s *BoltStore) PutBatch(fragments []domain.Fragment, embeddings [][]float32) error {
	if len(fragments) != len(embeddings) {
		return fmt.Errorf("%w: %d fragments vs %d embeddings",
			domain.ErrInconsistentIndex, len(fragments), len(embeddings))
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		embBucket := tx.Bucket(bucketEmbeddings)
		metaBucket := tx.Bucket(bucketMetadata)
		textBucket := tx.Bucket(bucketTexts)

		for i, frag := range fragments {
			key := itob(uint64(frag.ID))

			embData, err := json.Marshal(embeddings[i])
			if err != nil {
				return err
			}
			if err := embBucket.Put(key, embData); err != nil {
				return err
			}

			metaData, err := json.Marshal(fragmentMeta{DocID: frag.DocID, Source: frag.Source})
			if err != nil {
				return err
			}
			if err := metaBucket.Put(key, metaData); err != nil {
				return err
			}

			if err := textBucket.Put(key, []byte(frag.Text)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetInfo records the artifact's dimension, model, and fragment count.
func (s *BoltStore) SetInfo(info IndexInfo) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyInfo, data)
	})
}

// GetInfo reads the artifact's info record.
func (s *BoltStore) GetInfo() (IndexInfo, error) {
	var info IndexInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyInfo)
		if data == nil {
			return fmt.Errorf("%w: missing index info record", domain.ErrIndexUnavailable)
		}
		return json.Unmarshal(data, &info)
	})
	return info, err
}

// Load materializes the stored artifact as an immutable MemoryIndex,
// validating that the three aligned buckets agree before trusting any
// of them.
func (s *BoltStore) Load() (*MemoryIndex, error) {
	var fragments []domain.Fragment
	var embeddings [][]float32

	err := s.db.View(func(tx *bbolt.Tx) error {
		embBucket := tx.Bucket(bucketEmbeddings)
		metaBucket := tx.Bucket(bucketMetadata)
		textBucket := tx.Bucket(bucketTexts)
		if embBucket == nil || metaBucket == nil || textBucket == nil {
			return fmt.Errorf("%w: artifact buckets missing", domain.ErrIndexUnavailable)
		}

		nEmb := embBucket.Stats().KeyN
		nMeta := metaBucket.Stats().KeyN
		nText := textBucket.Stats().KeyN
		if nEmb != nMeta || nEmb != nText {
			return fmt.Errorf("%w: %d embeddings, %d metadata, %d texts",
				domain.ErrInconsistentIndex, nEmb, nMeta, nText)
		}
		if nEmb == 0 {
			return fmt.Errorf("%w: artifact is empty", domain.ErrIndexUnavailable)
		}

		fragments = make([]domain.Fragment, 0, nEmb)
		embeddings = make([][]float32, 0, nEmb)

		return embBucket.ForEach(func(k, v []byte) error {
			id := btoi(k)

			var emb []float32
			if err := json.Unmarshal(v, &emb); err != nil {
				return fmt.Errorf("%w: corrupt embedding for fragment %d: %v",
					domain.ErrInconsistentIndex, id, err)
			}

			metaData := metaBucket.Get(k)
			if metaData == nil {
				return fmt.Errorf("%w: fragment %d has no metadata",
					domain.ErrInconsistentIndex, id)
			}
			var meta fragmentMeta
			if err := json.Unmarshal(metaData, &meta); err != nil {
				return fmt.Errorf("%w: corrupt metadata for fragment %d: %v",
					domain.ErrInconsistentIndex, id, err)
			}

			text := textBucket.Get(k)
			if text == nil {
				return fmt.Errorf("%w: fragment %d has no text",
					domain.ErrInconsistentIndex, id)
			}

			fragments = append(fragments, domain.Fragment{
				ID:     int(id),
				DocID:  meta.DocID,
				Source: meta.Source,
				Text:   string(text),
			})
			embeddings = append(embeddings, emb)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return NewMemoryIndex(fragments, embeddings)
}

// Clear removes all stored fragments, keeping the info record.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketEmbeddings, bucketMetadata, bucketTexts} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored fragments.
func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

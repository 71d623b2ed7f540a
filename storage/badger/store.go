package badger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Store implements storage.ChunkStore for BadgerDB.
//
// Search is an exact brute-force scan in insertion order; distance ties
// therefore resolve to the earliest-inserted chunk. This is acceptable at
// the corpus sizes docquery targets and keeps the interface substitutable
// by an approximate index later.
type Store struct {
	backend  *Backend
	seq      *badger.Sequence
	metric   storage.Metric
	distance distanceFunc
	logger   *slog.Logger
}

var _ storage.ChunkStore = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store) error

// WithMetric sets the distance metric used by Search.
// Default is cosine distance.
func WithMetric(metric storage.Metric) StoreOption {
	return func(s *Store) error {
		if !metric.Valid() {
			return fmt.Errorf("%w: %q", storage.ErrUnknownMetric, metric)
		}
		s.metric = metric
		s.distance = distanceForMetric(metric)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a chunk store on top of an open backend.
func NewStore(backend *Backend, opts ...StoreOption) (storage.ChunkStore, error) {
	seq, err := backend.GetSequence(chunkSeqName)
	if err != nil {
		return nil, err
	}

	s := &Store{
		backend:  backend,
		seq:      seq,
		metric:   storage.MetricCosine,
		distance: cosineDistance,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			seq.Release()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the insertion sequence. The backend is closed separately
// by its owner.
func (s *Store) Close() error {
	return s.seq.Release()
}

// Add appends chunk records. The first chunk ever stored establishes the
// embedding dimensionality; later chunks must agree with it or the call
// fails with storage.ErrDimensionMismatch and nothing is written.
// Chunks whose ID is already present are skipped.
func (s *Store) Add(ctx context.Context, chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}

		for _, chunk := range chunks {
			if chunk.Id == 0 {
				chunk.Id = core.ChunkID(chunk.SourcePath, chunk.ChunkIndex, chunk.Text)
			}
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}

			if dim == 0 {
				dim = len(chunk.Embedding)
				if err := tx.Set([]byte(chunkDimensionKey), storage.MarshalID(core.ID(dim))); err != nil {
					return err
				}
			} else if len(chunk.Embedding) != dim {
				return fmt.Errorf("%w: chunk %d has dimension %d, store uses %d",
					storage.ErrDimensionMismatch, chunk.Id, len(chunk.Embedding), dim)
			}

			key := makeChunkKey(uint64(chunk.Id))
			if _, err := tx.Get(key); err == nil {
				s.logger.Debug("skipping existing chunk", "id", chunk.Id, "source", chunk.SourcePath)
				continue
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			seqNo, err := s.nextSeq()
			if err != nil {
				return err
			}
			if err := tx.Set(makeSeqKey(seqNo), storage.MarshalID(chunk.Id)); err != nil {
				return err
			}

			if err := tx.Set(makeSourceKey(chunk.SourcePath), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Search brute-force scans every stored chunk in insertion order and
// returns the k nearest by the configured metric. An empty store yields
// an empty result, never an error. A query embedding whose length
// disagrees with the store's established dimensionality fails with
// storage.ErrDimensionMismatch.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]*core.SearchHit, error) {
	if k <= 0 {
		return []*core.SearchHit{}, nil
	}

	dim, err := s.dimension()
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return []*core.SearchHit{}, nil
	}
	if len(embedding) != dim {
		return nil, fmt.Errorf("%w: query has dimension %d, store uses %d",
			storage.ErrDimensionMismatch, len(embedding), dim)
	}

	hits := []*core.SearchHit{}
	err = s.iterateInsertionOrder(func(chunk *core.Chunk) bool {
		hits = append(hits, &core.SearchHit{
			Chunk:    chunk,
			Distance: s.distance(embedding, chunk.Embedding),
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	// Stable sort preserves insertion order across equal distances.
	slices.SortStableFunc(hits, func(a, b *core.SearchHit) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Page returns chunks in stable creation order.
func (s *Store) Page(ctx context.Context, limit, offset int) ([]*core.Chunk, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit %d, offset %d", storage.ErrInvalidQuery, limit, offset)
	}
	if limit == 0 {
		return []*core.Chunk{}, nil
	}

	chunks := []*core.Chunk{}
	skipped := 0
	err := s.iterateInsertionOrder(func(chunk *core.Chunk) bool {
		if skipped < offset {
			skipped++
			return true
		}
		chunks = append(chunks, chunk)
		return len(chunks) < limit
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// Stats counts stored chunks and distinct source files.
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	stats := &storage.Stats{}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		stats.Chunks = countKeys(tx, []byte(chunkRecordPrefix))
		stats.Sources = countKeys(tx, []byte(chunkSourcePrefix))
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Exists reports whether any chunk data is present.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	exists := false
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		iter.Rewind()
		exists = iter.Valid()
		return nil
	}, false)
	return exists, err
}

// iterateInsertionOrder walks the insertion-order index and loads each
// chunk record. The callback returns false to stop early.
func (s *Store) iterateInsertionOrder(fn func(*core.Chunk) bool) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkSeqPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeChunkKey(uint64(id)))
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			if !fn(chunk) {
				break
			}
		}
		return nil
	}, false)
}

// nextSeq returns the next nonzero insertion-sequence number.
func (s *Store) nextSeq() (uint64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if n == 0 {
		n, err = s.seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}

// readChunk reads a chunk record from the transaction.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// dimension reads the established embedding dimensionality in its own
// read transaction. Returns 0 if no chunk has been stored yet.
func (s *Store) dimension() (int, error) {
	dim := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		dim, err = readDimension(tx)
		return err
	}, false)
	return dim, err
}

// readDimension reads the store's established embedding dimensionality.
// Returns 0 if no chunk has been stored yet.
func readDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(chunkDimensionKey))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}

	var dim core.ID
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		dim, unmarshalErr = storage.UnmarshalID(val)
		return unmarshalErr
	})
	return int(dim), err
}

// countKeys counts keys under a prefix without fetching values.
func countKeys(tx *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	count := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		count++
	}
	return count
}

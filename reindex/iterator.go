package reindex

import (
	"context"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// DefaultBatchSize is the default number of chunks fetched per page.
const DefaultBatchSize = 100

// ChunkIterator walks every chunk of a store in stable creation order,
// one page at a time.
type ChunkIterator struct {
	store     storage.ChunkStore
	batchSize int
}

// NewChunkIterator creates an iterator over the store.
// batchSize must be positive; other values select DefaultBatchSize.
func NewChunkIterator(store storage.ChunkStore, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{store: store, batchSize: batchSize}
}

// ForEach calls fn with each page of chunks until the store is exhausted,
// fn returns an error, or the context ends.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	for offset := 0; ; offset += it.batchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.store.Page(ctx, it.batchSize, offset)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < it.batchSize {
			return nil
		}
	}
}

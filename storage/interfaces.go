package storage

import (
	"context"

	"github.com/poiesic/docquery/core"
)

// Metric selects the distance function used by vector search.
type Metric string

const (
	// MetricCosine is cosine distance (1 - cosine similarity). Default.
	MetricCosine Metric = "cosine"

	// MetricEuclidean is Euclidean (L2) distance.
	MetricEuclidean Metric = "euclidean"
)

// Valid reports whether the metric names a supported distance function.
func (m Metric) Valid() bool {
	return m == MetricCosine || m == MetricEuclidean
}

// Stats summarizes the contents of a chunk store.
type Stats struct {
	Chunks  int
	Sources int
}

// ChunkStore persists chunk records with their embeddings and answers
// nearest-neighbor and pagination queries.
//
// Implementations must be safe for concurrent reads. Add calls are assumed
// to be serialized relative to each other (single writer) but may proceed
// concurrently with reads; newly added chunks become visible to readers
// when the write transaction commits.
type ChunkStore interface {
	// Add appends chunk records to the store. Empty input is a no-op.
	// The first chunk ever added establishes the store's embedding
	// dimensionality; any chunk that disagrees with it is rejected with
	// ErrDimensionMismatch and fails the whole call. Chunks whose ID is
	// already present are skipped, which makes re-ingestion idempotent.
	Add(ctx context.Context, chunks ...*core.Chunk) error

	// Search returns up to k chunks ordered by ascending distance to the
	// query embedding. Ties are broken by insertion order. An empty store
	// yields an empty slice, never an error. A query embedding whose
	// length disagrees with the store's established dimensionality is
	// rejected with ErrDimensionMismatch.
	Search(ctx context.Context, embedding []float32, k int) ([]*core.SearchHit, error)

	// Page returns chunk records in stable creation order, skipping
	// offset records and returning at most limit.
	Page(ctx context.Context, limit, offset int) ([]*core.Chunk, error)

	// Stats returns the total chunk count and the number of distinct
	// source files.
	Stats(ctx context.Context) (*Stats, error)

	// Exists reports whether the store holds any chunk data.
	Exists(ctx context.Context) (bool, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

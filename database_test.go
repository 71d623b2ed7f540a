package docquery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase_InMemory(t *testing.T) {
	db, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.NotNil(t, db.Store())
	assert.NotNil(t, db.Provider())
	assert.NotNil(t, db.Generator())

	stats, err := db.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
}

func TestNewDatabase_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docquery.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)

	// Data written through the store survives a reopen.
	chunk := &core.Chunk{
		Text:       "persistent chunk",
		SourcePath: "docs/a.md",
		Embedding:  []float32{1, 0, 0},
	}
	require.NoError(t, db.Store().Add(context.Background(), chunk))
	require.NoError(t, db.Close())

	db, err = NewDatabase(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stats, err := db.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
}

func TestDatabase_WithMetric(t *testing.T) {
	db, err := NewDatabase("", WithInMemory(), WithMetric(storage.MetricEuclidean))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Store().Add(context.Background(), &core.Chunk{
		Text:       "chunk",
		SourcePath: "docs/a.md",
		Embedding:  []float32{1, 0},
	}))

	hits, err := db.Store().Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
}

func TestDatabase_BuildsComponents(t *testing.T) {
	db, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	engine, err := db.NewQueryEngine()
	require.NoError(t, err)
	engine.Release()

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	pipeline.Release()
}

func TestDatabase_QueryEmptyStore(t *testing.T) {
	db, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Empty store short-circuits before any backend call, so this works
	// without a running model server.
	resp, err := db.Query(context.Background(), core.Query{Text: "anything"})
	require.NoError(t, err)
	assert.Zero(t, resp.Confidence)
	assert.Empty(t, resp.Sources)
}

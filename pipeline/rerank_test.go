package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rerankEngine(scorer *mock.MockRelevanceScorer) *Engine {
	e := &Engine{logger: slog.Default()}
	if scorer != nil {
		e.scorer = scorer
	}
	return e
}

func rerankInput(texts map[core.ID]string) ([]core.FusedCandidate, map[core.ID]*core.Chunk) {
	chunks := make(map[core.ID]*core.Chunk, len(texts))
	candidates := make([]core.FusedCandidate, 0, len(texts))
	score := 1.0
	for id := core.ID(1); int(id) <= len(texts); id++ {
		chunks[id] = &core.Chunk{Id: id, Text: texts[id]}
		candidates = append(candidates, core.FusedCandidate{ChunkID: id, Score: score})
		score /= 2
	}
	return candidates, chunks
}

func TestRerank_NoScorerKeepsFusedOrder(t *testing.T) {
	candidates, chunks := rerankInput(map[core.ID]string{1: "a", 2: "b", 3: "c"})

	ranked, degraded := rerankEngine(nil).rerank(context.Background(), "query", candidates, chunks, 2)
	assert.True(t, degraded)
	require.Len(t, ranked, 2)
	assert.Equal(t, core.ID(1), ranked[0].ChunkID)
	assert.Equal(t, core.ID(2), ranked[1].ChunkID)
}

func TestRerank_ScorerErrorFallsBackToFusedOrder(t *testing.T) {
	scorer := mock.NewMockRelevanceScorer()
	scorer.ScoreFunc = func(ctx context.Context, query, passage string) (float64, error) {
		return 0, errors.New("scorer offline")
	}
	candidates, chunks := rerankInput(map[core.ID]string{1: "a", 2: "b", 3: "c"})

	ranked, degraded := rerankEngine(scorer).rerank(context.Background(), "query", candidates, chunks, 3)
	assert.True(t, degraded)
	require.Len(t, ranked, 3)
	for i, c := range ranked {
		assert.Equal(t, core.ID(i+1), c.ChunkID)
	}
}

func TestRerank_ReordersByScore(t *testing.T) {
	// The default mock scorer counts query words found in the passage, so
	// chunk 3 outscores the fusion favorites.
	candidates, chunks := rerankInput(map[core.ID]string{
		1: "nothing relevant here",
		2: "slightly about badger",
		3: "badger storage engine internals",
	})

	ranked, degraded := rerankEngine(mock.NewMockRelevanceScorer()).
		rerank(context.Background(), "badger storage engine", candidates, chunks, 3)
	assert.False(t, degraded)
	require.Len(t, ranked, 3)
	assert.Equal(t, core.ID(3), ranked[0].ChunkID)
}

func TestRerank_EqualScoresKeepFusedOrder(t *testing.T) {
	scorer := mock.NewMockRelevanceScorer()
	scorer.ScoreFunc = func(ctx context.Context, query, passage string) (float64, error) {
		return 5, nil
	}
	candidates, chunks := rerankInput(map[core.ID]string{1: "a", 2: "b", 3: "c"})

	ranked, degraded := rerankEngine(scorer).rerank(context.Background(), "query", candidates, chunks, 3)
	assert.False(t, degraded)
	require.Len(t, ranked, 3)
	for i, c := range ranked {
		assert.Equal(t, core.ID(i+1), c.ChunkID)
	}
}

func TestRerank_TruncatesToTopK(t *testing.T) {
	candidates, chunks := rerankInput(map[core.ID]string{1: "a", 2: "b", 3: "c", 4: "d", 5: "e"})

	ranked, _ := rerankEngine(mock.NewMockRelevanceScorer()).
		rerank(context.Background(), "query", candidates, chunks, 2)
	assert.Len(t, ranked, 2)

	// Fewer candidates than topK yields all of them.
	ranked, _ = rerankEngine(mock.NewMockRelevanceScorer()).
		rerank(context.Background(), "query", candidates[:1], chunks, 10)
	assert.Len(t, ranked, 1)
}

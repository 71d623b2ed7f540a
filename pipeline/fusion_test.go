package pipeline

import (
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankedList builds a result list with the given chunk ids at ranks 1..n.
func rankedList(ids ...core.ID) []core.RetrievalHit {
	hits := make([]core.RetrievalHit, len(ids))
	for i, id := range ids {
		hits[i] = core.RetrievalHit{ChunkID: id, Rank: i + 1}
	}
	return hits
}

func TestFuseRanks_ExactScores(t *testing.T) {
	// Chunk 100 appears at rank 1 in the first list and rank 3 in the
	// second; with k0=60 its fused score is exactly 1/61 + 1/63.
	lists := [][]core.RetrievalHit{
		rankedList(100, 200),
		rankedList(300, 400, 100),
	}

	candidates := fuseRanks(lists, 60)
	require.NotEmpty(t, candidates)

	var found *core.FusedCandidate
	for i := range candidates {
		if candidates[i].ChunkID == 100 {
			found = &candidates[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 1.0/61+1.0/63, found.Score)
	assert.Equal(t, []core.ListRank{{SubQuery: 0, Rank: 1}, {SubQuery: 1, Rank: 3}}, found.Ranks)
}

func TestFuseRanks_TopEverywhereWins(t *testing.T) {
	lists := [][]core.RetrievalHit{
		rankedList(7, 1, 2),
		rankedList(7, 3, 4),
		rankedList(7, 5, 6),
	}

	candidates := fuseRanks(lists, 60)
	require.NotEmpty(t, candidates)
	assert.Equal(t, core.ID(7), candidates[0].ChunkID)
	for _, c := range candidates[1:] {
		assert.Less(t, c.Score, candidates[0].Score)
	}
}

func TestFuseRanks_NonIncreasingOrder(t *testing.T) {
	lists := [][]core.RetrievalHit{
		rankedList(1, 2, 3, 4),
		rankedList(3, 1, 5),
		rankedList(5, 2),
	}

	candidates := fuseRanks(lists, 60)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Score, candidates[i].Score)
	}
}

func TestFuseRanks_TiesByBestRankThenChunkID(t *testing.T) {
	// Chunks 10 and 20 have identical scores; 20 holds the better
	// individual rank and must come first.
	lists := [][]core.RetrievalHit{
		rankedList(10, 20),
		rankedList(20, 10),
	}
	candidates := fuseRanks(lists, 60)
	require.Len(t, candidates, 2)
	assert.Equal(t, candidates[0].Score, candidates[1].Score)
	assert.Equal(t, 1, candidates[0].BestRank())

	// Fully symmetric ranks fall through to the chunk id tie-break.
	lists = [][]core.RetrievalHit{
		rankedList(30, 40),
		rankedList(40, 30),
		rankedList(30, 40),
		rankedList(40, 30),
	}
	candidates = fuseRanks(lists, 60)
	require.Len(t, candidates, 2)
	assert.Equal(t, core.ID(30), candidates[0].ChunkID)
	assert.Equal(t, core.ID(40), candidates[1].ChunkID)
}

func TestFuseRanks_CommutativeOverListOrder(t *testing.T) {
	a := rankedList(1, 2, 3)
	b := rankedList(3, 4)
	c := rankedList(2, 1, 5)

	forward := fuseRanks([][]core.RetrievalHit{a, b, c}, 60)
	backward := fuseRanks([][]core.RetrievalHit{c, b, a}, 60)

	require.Equal(t, len(forward), len(backward))
	for i := range forward {
		assert.Equal(t, forward[i].ChunkID, backward[i].ChunkID)
		assert.InDelta(t, forward[i].Score, backward[i].Score, 1e-15)
	}
}

func TestFuseRanks_EmptyInput(t *testing.T) {
	assert.Empty(t, fuseRanks(nil, 60))
	assert.Empty(t, fuseRanks([][]core.RetrievalHit{{}, {}}, 60))
}

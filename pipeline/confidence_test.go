package pipeline

import (
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreConfidence_EmptyIsZero(t *testing.T) {
	assert.Zero(t, scoreConfidence(nil, 3, 60, "answer", &core.ContextBlock{}))
	assert.Zero(t, scoreConfidence([]core.FusedCandidate{{ChunkID: 1}}, 3, 60, "answer", nil))
	assert.Zero(t, scoreConfidence([]core.FusedCandidate{{ChunkID: 1}}, 3, 60, "answer", &core.ContextBlock{}))
}

func TestScoreConfidence_Bounds(t *testing.T) {
	block := &core.ContextBlock{
		Chunks: []*core.Chunk{{Id: 1, Text: "fusion merges ranked lists"}},
	}

	// Single chunk ranked first in every list with a fully grounded
	// answer: the strongest possible signal stays within bounds.
	ideal := []core.FusedCandidate{{ChunkID: 1, Score: 3.0 / 61.0}}
	high := scoreConfidence(ideal, 3, 60, "fusion merges ranked lists", block)
	assert.LessOrEqual(t, high, 100.0)
	assert.Greater(t, high, 50.0)

	// Weak retrieval with an ungrounded answer stays above zero only on
	// the concentration term.
	weak := []core.FusedCandidate{{ChunkID: 1, Score: 1.0 / 1000.0}}
	low := scoreConfidence(weak, 3, 60, "totally unrelated reply", block)
	assert.GreaterOrEqual(t, low, 0.0)
	assert.Less(t, low, high)
}

func TestScoreConfidence_Deterministic(t *testing.T) {
	block := &core.ContextBlock{
		Chunks: []*core.Chunk{
			{Id: 1, Text: "alpha beta gamma"},
			{Id: 2, Text: "delta epsilon"},
		},
	}
	packed := []core.FusedCandidate{
		{ChunkID: 1, Score: 0.04},
		{ChunkID: 2, Score: 0.02},
	}

	first := scoreConfidence(packed, 4, 60, "alpha delta", block)
	second := scoreConfidence(packed, 4, 60, "alpha delta", block)
	assert.Equal(t, first, second)
}

func TestGroundedness(t *testing.T) {
	block := &core.ContextBlock{
		Chunks: []*core.Chunk{
			{Id: 1, Text: "the retrieval engine searches the store"},
		},
	}

	require.InDelta(t, 1.0, groundedness("retrieval engine", block), 1e-9)
	require.InDelta(t, 0.5, groundedness("retrieval nonsense", block), 1e-9)
	require.Zero(t, groundedness("", block))
	require.Zero(t, groundedness("unrelated words entirely", block))
}

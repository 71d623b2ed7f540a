package pipeline

import (
	"strings"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repackEngine(budget int) *Engine {
	return &Engine{counter: runeCounter{}, contextBudget: budget}
}

func chunkMap(texts map[core.ID]string) map[core.ID]*core.Chunk {
	chunks := make(map[core.ID]*core.Chunk, len(texts))
	for id, text := range texts {
		chunks[id] = &core.Chunk{Id: id, Text: text, SourcePath: "doc.txt", ChunkIndex: int(id) * 10}
	}
	return chunks
}

func TestRepack_BudgetNeverExceeded(t *testing.T) {
	chunks := chunkMap(map[core.ID]string{
		1: strings.Repeat("a", 40),
		2: strings.Repeat("b", 40),
		3: strings.Repeat("c", 40),
	})
	candidates := []core.FusedCandidate{{ChunkID: 1}, {ChunkID: 2}, {ChunkID: 3}}

	block := repackEngine(100).repack(candidates, chunks)
	require.Len(t, block.Chunks, 2)
	assert.Equal(t, 80, block.Size)
	assert.LessOrEqual(t, block.Size, 100)
}

func TestRepack_AlwaysIncludesTopCandidate(t *testing.T) {
	chunks := chunkMap(map[core.ID]string{
		1: strings.Repeat("x", 500),
	})
	candidates := []core.FusedCandidate{{ChunkID: 1}}

	block := repackEngine(100).repack(candidates, chunks)
	require.Len(t, block.Chunks, 1)
	assert.NotEmpty(t, block.Chunks[0].Text)
	assert.LessOrEqual(t, block.Size, 100)

	// Stored chunk is untouched by the cut.
	assert.Len(t, chunks[1].Text, 500)
}

func TestRepack_DedupesByChunkID(t *testing.T) {
	chunks := chunkMap(map[core.ID]string{1: "only once"})
	candidates := []core.FusedCandidate{{ChunkID: 1}, {ChunkID: 1}, {ChunkID: 1}}

	block := repackEngine(1000).repack(candidates, chunks)
	assert.Len(t, block.Chunks, 1)
}

func TestRepack_CollapsesAdjacentChunks(t *testing.T) {
	chunks := map[core.ID]*core.Chunk{
		1: {Id: 1, Text: "retrieval stage description", SourcePath: "guide.md", ChunkIndex: 4},
		2: {Id: 2, Text: "completely different subject matter", SourcePath: "guide.md", ChunkIndex: 5},
		3: {Id: 3, Text: "unrelated other file content", SourcePath: "other.md", ChunkIndex: 5},
	}
	candidates := []core.FusedCandidate{{ChunkID: 1}, {ChunkID: 2}, {ChunkID: 3}}

	block := repackEngine(1000).repack(candidates, chunks)
	require.Len(t, block.Chunks, 2)
	assert.Equal(t, core.ID(1), block.Chunks[0].Id)
	assert.Equal(t, core.ID(3), block.Chunks[1].Id)
}

func TestRepack_CollapsesNearDuplicateText(t *testing.T) {
	// Same words in a different order still count as overlapping.
	chunks := map[core.ID]*core.Chunk{
		1: {Id: 1, Text: "the fusion stage merges ranked lists", SourcePath: "a.md", ChunkIndex: 0},
		2: {Id: 2, Text: "merges ranked lists the fusion stage", SourcePath: "b.md", ChunkIndex: 0},
	}
	candidates := []core.FusedCandidate{{ChunkID: 1}, {ChunkID: 2}}

	block := repackEngine(1000).repack(candidates, chunks)
	require.Len(t, block.Chunks, 1)
	assert.Equal(t, core.ID(1), block.Chunks[0].Id)
}

func TestRepack_NoCandidates(t *testing.T) {
	block := repackEngine(100).repack(nil, nil)
	assert.Empty(t, block.Chunks)
	assert.Zero(t, block.Size)
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "alpha beta gamma", b: "alpha beta gamma", want: 1.0},
		{name: "disjoint", a: "alpha beta", b: "gamma delta", want: 0.0},
		{name: "subset", a: "alpha beta", b: "alpha beta gamma delta", want: 1.0},
		{name: "half", a: "alpha beta", b: "alpha gamma delta epsilon", want: 0.5},
		{name: "empty", a: "", b: "alpha", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tokenOverlap(tt.a, tt.b), 1e-9)
		})
	}
}

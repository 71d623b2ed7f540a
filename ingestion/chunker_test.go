package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_Empty(t *testing.T) {
	assert.Nil(t, SplitText("", 10, 2))
	assert.Nil(t, SplitText("   \n\t ", 10, 2))
}

func TestSplitText_SingleChunk(t *testing.T) {
	chunks := SplitText("one two three", 10, 2)
	require.Len(t, chunks, 1)
	assert.Equal(t, "one two three", chunks[0])
}

func TestSplitText_OverlapCarriesWords(t *testing.T) {
	words := make([]string, 10)
	for i := range words {
		words[i] = string(rune('a' + i))
	}
	chunks := SplitText(strings.Join(words, " "), 4, 2)

	require.Len(t, chunks, 4)
	assert.Equal(t, "a b c d", chunks[0])
	assert.Equal(t, "c d e f", chunks[1])
	assert.Equal(t, "e f g h", chunks[2])
	assert.Equal(t, "g h i j", chunks[3])
}

func TestSplitText_NoOverlap(t *testing.T) {
	chunks := SplitText("a b c d e", 2, 0)
	assert.Equal(t, []string{"a b", "c d", "e"}, chunks)
}

func TestSplitText_OverlapClamped(t *testing.T) {
	// Overlap at or above the chunk size would never advance; it is
	// clamped so splitting always terminates.
	chunks := SplitText("a b c d", 2, 5)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "a b", chunks[0])
}

func TestSplitText_EveryWordCovered(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog again and again"
	chunks := SplitText(text, 5, 1)

	joined := strings.Join(chunks, " ")
	for _, w := range strings.Fields(text) {
		assert.Contains(t, joined, w)
	}
}

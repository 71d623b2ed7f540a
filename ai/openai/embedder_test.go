package openai

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbeddings satisfies embeddings.Embedder without a network service.
type stubEmbeddings struct {
	vectors [][]float32
	err     error
}

func (s *stubEmbeddings) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return s.vectors, s.err
}

func (s *stubEmbeddings) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}
	return s.vectors[0], nil
}

func newStubEmbedder(stub *stubEmbeddings) *Embedder {
	return &Embedder{embedder: stub, logger: slog.Default()}
}

func TestEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the single vector", func(t *testing.T) {
		e := newStubEmbedder(&stubEmbeddings{vectors: [][]float32{{0.1, 0.2}}})
		vec, err := e.EmbedText(ctx, "some text")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2}, vec)
	})

	t.Run("empty result is an error, not an empty vector", func(t *testing.T) {
		e := newStubEmbedder(&stubEmbeddings{vectors: [][]float32{}})
		_, err := e.EmbedText(ctx, "some text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no vector")
	})

	t.Run("service error propagates", func(t *testing.T) {
		wantErr := errors.New("service offline")
		e := newStubEmbedder(&stubEmbeddings{err: wantErr})
		_, err := e.EmbedText(ctx, "some text")
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	ctx := context.Background()

	t.Run("one vector per text", func(t *testing.T) {
		e := newStubEmbedder(&stubEmbeddings{vectors: [][]float32{{1, 0}, {0, 1}}})
		vectors, err := e.EmbedTexts(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Len(t, vectors, 2)
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		e := newStubEmbedder(&stubEmbeddings{vectors: [][]float32{{1, 0}}})
		_, err := e.EmbedTexts(ctx, []string{"a", "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 vectors for 2 texts")
	})
}

package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docquery/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder against an OpenAI-compatible embedding
// endpoint. Callers treat any error as a degradable failure: the retrieval
// engine drops the affected sub-query and ingestion skips the affected
// file, so a misbehaving service must surface as an error rather than as
// an empty or short vector that would trip the store's dimension check
// with a confusing message later.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services accept any token; "none" marks it
	// as intentionally unused.
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single query or chunk text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("embedding text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("embedding request failed", "err", err)
		return nil, err
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		e.logger.Warn("embedding service returned no vector")
		return nil, fmt.Errorf("embedding service returned no vector")
	}

	return vectors[0], nil
}

// EmbedTexts embeds a batch of texts in one request. The result must pair
// one vector per input text; a count mismatch is an error so batch callers
// never write misattributed embeddings.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("embedding batch", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("batch embedding request failed", "count", len(texts), "err", err)
		return nil, err
	}

	if len(vectors) != len(texts) {
		e.logger.Error("embedding count mismatch", "want", len(texts), "got", len(vectors))
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts",
			len(vectors), len(texts))
	}

	return vectors, nil
}

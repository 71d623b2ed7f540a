package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// BatchProcessor re-embeds one batch of chunks and writes the results to
// the destination store. Embedding calls are retried with exponential
// backoff; vectors are normalized so cosine search behaves the same
// regardless of the model's output scale.
type BatchProcessor struct {
	destination    storage.ChunkStore
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a batch processor writing to destination.
func NewBatchProcessor(destination storage.ChunkStore, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		destination:    destination,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process re-embeds the chunks and adds them to the destination store.
// The source chunks are not modified; new records are built so the
// destination owns its own embeddings.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	reembedded := make([]*core.Chunk, len(chunks))
	for i, chunk := range chunks {
		reembedded[i] = &core.Chunk{
			Text:       chunk.Text,
			SourcePath: chunk.SourcePath,
			ChunkIndex: chunk.ChunkIndex,
			Embedding:  NormalizeVector(embeddings[i]),
			Metadata:   chunk.Metadata,
		}
	}

	if err := bp.destination.Add(ctx, reembedded...); err != nil {
		return fmt.Errorf("failed to write reembedded chunks: %w", err)
	}
	return nil
}

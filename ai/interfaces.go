package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free-form text from a prompt.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the backend's completion for the prompt.
	// A nil opts uses the backend defaults.
	Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error)
}

// RelevanceScorer rates how relevant a passage is to a query.
// It is an optional capability: providers without a fine-grained scorer
// report it as absent and the pipeline falls back to fused ordering.
type RelevanceScorer interface {
	// Score returns a relevance value for the passage; higher is more
	// relevant. Scores are only compared against other scores from the
	// same scorer, so no particular scale is required.
	Score(ctx context.Context, query, passage string) (float64, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// RelevanceScorer returns the fine-grained relevance scorer, or nil
	// when the provider does not offer one. Callers resolve this
	// capability once at construction time, not per call.
	RelevanceScorer() RelevanceScorer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

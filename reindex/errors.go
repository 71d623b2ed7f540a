package reindex

import "errors"

var (
	// ErrSourceRequired is returned when a source store is not provided.
	ErrSourceRequired = errors.New("source store required")

	// ErrDestinationRequired is returned when a destination store is not provided.
	ErrDestinationRequired = errors.New("destination store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned when retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)

package ai

// GenerateOptions holds optional parameters for a generation call.
type GenerateOptions struct {
	// Temperature controls sampling randomness. 0 is deterministic.
	Temperature float64

	// MaxTokens bounds the completion length. 0 uses the backend default.
	MaxTokens int
}

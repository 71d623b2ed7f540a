package mock

import (
	"context"

	"github.com/poiesic/docquery/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns Reply.
	GenerateFunc func(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error)

	// Reply is the default answer returned when GenerateFunc is nil.
	Reply string

	callCount int
	prompts   []string
}

// NewMockGenerator creates a mock generator with a fixed default reply.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Reply: "mock answer"}
}

// Generate returns the injected behavior's result, or the fixed reply.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts *ai.GenerateOptions) (string, error) {
	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	return m.Reply, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Prompts returns every prompt passed to Generate, in call order.
func (m *MockGenerator) Prompts() []string {
	return m.prompts
}

// Reset clears call history and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.prompts = nil
	m.GenerateFunc = nil
}

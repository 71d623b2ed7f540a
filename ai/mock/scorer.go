package mock

import (
	"context"
	"strings"
)

// MockRelevanceScorer is a test double for ai.RelevanceScorer.
// It allows custom behavior injection via function fields.
type MockRelevanceScorer struct {
	// ScoreFunc is called by Score if set.
	// If nil, scores by shared word count between query and passage.
	ScoreFunc func(ctx context.Context, query, passage string) (float64, error)

	callCount int
}

// NewMockRelevanceScorer creates a mock scorer with default deterministic behavior.
func NewMockRelevanceScorer() *MockRelevanceScorer {
	return &MockRelevanceScorer{}
}

// Score returns the injected behavior's result, or a deterministic
// overlap-based score.
func (m *MockRelevanceScorer) Score(ctx context.Context, query, passage string) (float64, error) {
	m.callCount++

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, query, passage)
	}
	return overlapScore(query, passage), nil
}

// CallCount returns the number of times Score was called.
func (m *MockRelevanceScorer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockRelevanceScorer) Reset() {
	m.callCount = 0
	m.ScoreFunc = nil
}

// overlapScore counts query words that appear in the passage, capped at 10
// to stay on the same scale as the production scorer.
func overlapScore(query, passage string) float64 {
	passageWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(passage)) {
		passageWords[w] = true
	}

	var score float64
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if passageWords[w] {
			score++
		}
	}
	if score > 10 {
		score = 10
	}
	return score
}

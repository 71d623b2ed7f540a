package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/docquery/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// RelevanceScorer implements ai.RelevanceScorer by asking the generation
// model to grade a passage against the query on a 0-10 scale.
type RelevanceScorer struct {
	client llms.Model
	logger *slog.Logger
}

// newRelevanceScorer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRelevanceScorer(config *ai.Config) (*RelevanceScorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken("none"),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &RelevanceScorer{
		client: client,
		logger: slog.Default().With("component", "openai-scorer"),
	}, nil
}

// NewRelevanceScorer creates a new relevance scorer using the provided configuration.
//
// Returns ai.RelevanceScorer interface to enforce abstraction.
func NewRelevanceScorer(config *ai.Config) (ai.RelevanceScorer, error) {
	return newRelevanceScorer(config)
}

// Score grades the passage's relevance to the query. The model's reply is
// parsed as a single number; anything unparseable is an error and the
// caller falls back to fused ordering.
func (s *RelevanceScorer) Score(ctx context.Context, query, passage string) (float64, error) {
	prompt := buildScoringPrompt(query, passage)
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		s.logger.Error("failed to score passage", "err", err)
		return 0, err
	}

	if len(response.Choices) < 1 {
		return 0, fmt.Errorf("no choices returned from model")
	}

	reply := strings.TrimSpace(response.Choices[0].Content)
	// Keep only the leading numeric token; models like to add commentary.
	if i := strings.IndexFunc(reply, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); i > 0 {
		reply = reply[:i]
	}

	score, err := strconv.ParseFloat(reply, 64)
	if err != nil {
		s.logger.Warn("unparseable relevance score", "reply", reply, "err", err)
		return 0, fmt.Errorf("parse relevance score %q: %w", reply, err)
	}

	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

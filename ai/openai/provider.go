// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"log/slog"

	"github.com/poiesic/docquery/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages embedder, generator, and optional scorer instances.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	generator *Generator
	scorer    *RelevanceScorer
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use. The relevance scorer
// is only built when config.EnableScoring is set; otherwise the provider
// reports the capability as absent.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(config)
	if err != nil {
		return nil, err
	}

	var scorer *RelevanceScorer
	if config.EnableScoring {
		scorer, err = newRelevanceScorer(config)
		if err != nil {
			return nil, err
		}
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		generator: generator,
		scorer:    scorer,
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the text generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// RelevanceScorer returns the fine-grained scorer, or nil when scoring is
// disabled in the configuration.
func (p *Provider) RelevanceScorer() ai.RelevanceScorer {
	if p.scorer == nil {
		return nil
	}
	return p.scorer
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

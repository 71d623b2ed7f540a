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


package mock

import "github.com/poiesic/docquery/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, generator, and scorer instances.
type MockProvider struct {
	embedder  *MockEmbedder
	generator *MockGenerator
	scorer    *MockRelevanceScorer
}

// NewMockProvider creates a new mock provider with default mock services
// and no relevance scorer, matching the production default.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockGenerator() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		generator: NewMockGenerator(),
	}
}

// NewMockProviderWithScorer creates a mock provider that also reports the
// optional relevance-scoring capability.
func NewMockProviderWithScorer() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		generator: NewMockGenerator(),
		scorer:    NewMockRelevanceScorer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service. A nil scorer
// means the capability is absent.
func NewMockProviderWithServices(embedder *MockEmbedder, generator *MockGenerator, scorer *MockRelevanceScorer) ai.AIProvider {
	return &MockProvider{
		embedder:  embedder,
		generator: generator,
		scorer:    scorer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// RelevanceScorer returns the mock scorer, or nil when absent.
func (p *MockProvider) RelevanceScorer() ai.RelevanceScorer {
	if p.scorer == nil {
		return nil
	}
	return p.scorer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockGenerator returns the underlying mock generator for test assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}

// GetMockScorer returns the underlying mock scorer, or nil when absent.
func (p *MockProvider) GetMockScorer() *MockRelevanceScorer {
	return p.scorer
}

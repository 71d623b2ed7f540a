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

package docquery

import (
	"context"
	"log/slog"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/openai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/pipeline"
	"github.com/poiesic/docquery/storage"
	"github.com/poiesic/docquery/storage/badger"
)

// Database binds the chunk store, AI provider, and generator cache behind
// one handle. It is the entry point for embedding docquery in a program.
type Database struct {
	backend   *badger.Backend
	store     storage.ChunkStore
	provider  ai.AIProvider
	generator *ai.GeneratorCache
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	metric   storage.Metric
	inMemory bool
}

// WithAIConfig sets the AI service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithMetric sets the vector distance metric.
// Default is cosine.
func WithMetric(metric storage.Metric) DatabaseOption {
	return func(o *databaseOptions) {
		o.metric = metric
	}
}

// WithInMemory keeps all data in memory instead of on disk. Useful for
// tests and throwaway sessions; filePath is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens (or creates) a docquery database at filePath. The
// generation backend is not constructed here; the generator cache builds
// it on the first call that needs it.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		metric:   storage.MetricCosine,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	store, err := badger.NewStore(backend, badger.WithMetric(options.metric))
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, err
	}

	aiConfig := options.aiConfig
	generator, err := ai.NewGeneratorCache(func() (ai.Generator, error) {
		return openai.NewGenerator(aiConfig)
	})
	if err != nil {
		provider.Close()
		store.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		store:     store,
		provider:  provider,
		generator: generator,
		logger:    slog.Default(),
	}, nil
}

// Close releases the generator cache, AI provider, and storage.
func (db *Database) Close() error {
	if err := db.generator.Close(); err != nil {
		db.logger.Error("error closing generator cache", "err", err)
	}
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing chunk store", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Store returns the chunk store.
func (db *Database) Store() storage.ChunkStore {
	return db.store
}

// Provider returns the AI provider.
func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// Generator returns the shared generator cache.
func (db *Database) Generator() *ai.GeneratorCache {
	return db.generator
}

// Stats returns chunk and source counts for the store.
func (db *Database) Stats(ctx context.Context) (*storage.Stats, error) {
	return db.store.Stats(ctx)
}

// NewQueryEngine creates a query engine over this database.
func (db *Database) NewQueryEngine(opts ...pipeline.Option) (*pipeline.Engine, error) {
	return pipeline.NewEngine(db.store, db.provider, db.generator, opts...)
}

// NewIngestionPipeline creates an ingestion pipeline writing to this
// database.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.store, db.provider, opts...)
}

// Query runs one query with a short-lived engine. Programs issuing many
// queries should hold a NewQueryEngine instead.
func (db *Database) Query(ctx context.Context, query core.Query, opts ...pipeline.Option) (*core.QueryResponse, error) {
	engine, err := db.NewQueryEngine(opts...)
	if err != nil {
		return nil, err
	}
	defer engine.Release()
	return engine.Query(ctx, query)
}

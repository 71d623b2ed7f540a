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

package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Config holds configuration for a reindexing run.
type Config struct {
	// BatchSize is the number of chunks processed per batch.
	BatchSize int

	// ReportInterval is how often progress is reported, in chunks.
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Rebuilder re-embeds every chunk of a source store into a destination
// store. The destination establishes its dimensionality from the new
// model's first batch, so a model with a different vector width works.
type Rebuilder struct {
	source    storage.ChunkStore
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
}

// NewRebuilder creates a rebuilder from source to destination using the
// embedder for the new vectors. progress receives human-readable status
// output (typically os.Stderr).
func NewRebuilder(source, destination storage.ChunkStore, embedder ai.Embedder, config *Config, progress io.Writer) (*Rebuilder, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if destination == nil {
		return nil, ErrDestinationRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Rebuilder{
		source:    source,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(destination, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(source, config.BatchSize),
	}, nil
}

// Run executes the reindexing operation, processing every source chunk.
func (r *Rebuilder) Run(ctx context.Context) error {
	stats, err := r.source.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read source stats: %w", err)
	}
	if stats.Chunks == 0 {
		fmt.Fprintf(r.progress, "No chunks found in source store\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Reindexing %d chunks (batch size: %d)\n",
		stats.Chunks, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, stats.Chunks, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(chunks []*core.Chunk) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		tracker.Add(len(chunks))
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindexing complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		stats.Chunks, elapsed.Round(time.Second), float64(stats.Chunks)/elapsed.Seconds())

	return nil
}

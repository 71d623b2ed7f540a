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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Defaults for chunking and batching.
const (
	DefaultChunkSize = 200
	DefaultOverlap   = 40
	DefaultBatchSize = 32
)

// Pipeline ingests source files into the chunk store. File-level work runs
// concurrently on a worker pool while store writes stay serialized behind a
// mutex, honoring the store's single-writer discipline.
type Pipeline struct {
	store     storage.ChunkStore
	embedder  ai.Embedder
	pool      *ants.Pool
	chunkSize int
	overlap   int
	batchSize int
	logger    *slog.Logger

	writeMu sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunkSize sets the chunk window size in words.
// Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.chunkSize = size
		return nil
	}
}

// WithOverlap sets the word overlap between consecutive chunks.
// Default is DefaultOverlap.
func WithOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		if overlap < 0 {
			overlap = 0
		}
		p.overlap = overlap
		return nil
	}
}

// WithBatchSize sets how many chunk texts go into one embedding call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent file processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.ChunkStore, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:     store,
		embedder:  provider.Embedder(),
		pool:      pool,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// IngestFile splits one file into chunks, embeds them in batches, and
// writes them to the store. Returns the number of chunks produced. Chunk
// IDs are content-derived, so re-ingesting an unchanged file is a no-op.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	texts := SplitText(string(data), p.chunkSize, p.overlap)
	if len(texts) == 0 {
		p.logger.Debug("file produced no chunks", "path", path)
		return 0, nil
	}

	filename := filepath.Base(path)
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embeddings, err := p.embedder.EmbedTexts(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("embedding batch for %s: %w", path, err)
		}
		if len(embeddings) != len(batch) {
			return 0, fmt.Errorf("embedding result mismatch for %s: expected %d, received %d",
				path, len(batch), len(embeddings))
		}

		chunks := make([]*core.Chunk, len(batch))
		for i, text := range batch {
			chunks[i] = &core.Chunk{
				Text:       text,
				SourcePath: path,
				ChunkIndex: start + i,
				Embedding:  embeddings[i],
				Metadata:   map[string]string{"filename": filename},
			}
		}

		p.writeMu.Lock()
		err = p.store.Add(ctx, chunks...)
		p.writeMu.Unlock()
		if err != nil {
			return 0, err
		}
	}

	p.logger.Info("ingested file", "path", path, "chunks", len(texts))
	return len(texts), nil
}

// IngestFiles ingests the given files concurrently. A failing file is
// logged and does not stop the others; all failures are joined into the
// returned error. Returns the total chunk count across successful files.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string) (int, error) {
	var (
		total int64
		errMu sync.Mutex
		errs  []error
		wg    sync.WaitGroup
	)

	for _, path := range paths {
		path := path
		wg.Add(1)
		task := func() {
			defer wg.Done()
			n, err := p.IngestFile(ctx, path)
			if err != nil {
				p.logger.Error("file ingestion failed", "path", path, "err", err)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				return
			}
			atomic.AddInt64(&total, int64(n))
		}
		if err := p.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	return int(atomic.LoadInt64(&total)), errors.Join(errs...)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

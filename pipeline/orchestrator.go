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

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/rewrite"
	"github.com/poiesic/docquery/storage"
)

// Pipeline stages in execution order. Each stage appends one trace entry
// on verbose queries.
const (
	StageReceived     = "RECEIVED"
	StageRewritten    = "REWRITTEN"
	StageRetrieved    = "RETRIEVED"
	StageFused        = "FUSED"
	StageReranked     = "RERANKED"
	StageContextBuilt = "CONTEXT_BUILT"
	StageGenerated    = "GENERATED"
	StageScored       = "SCORED"
	StageDone         = "DONE"
)

// Defaults for tunables the caller leaves unset.
const (
	// DefaultTopK is used when a query asks for zero or fewer results.
	DefaultTopK = 5

	// DefaultFanoutMultiplier scales topK into the per-sub-query search
	// size, giving fusion material beyond the final result count.
	DefaultFanoutMultiplier = 4

	// DefaultFusionConstant is the RRF smoothing constant k0. At 60,
	// top-ranked items dominate without any single list controlling the
	// outcome.
	DefaultFusionConstant = 60

	// DefaultContextBudget bounds the packed context size as measured by
	// the configured TokenCounter.
	DefaultContextBudget = 4096

	// DefaultExpansion is the maximum number of sub-queries per query,
	// including the original.
	DefaultExpansion = 4
)

const emptyAnswer = "No relevant information was found for this query."

// Engine orchestrates the query pipeline. It owns the retrieval worker
// pool and holds the store, provider services, and generator cache it was
// constructed with; the generation backend is shared across all queries
// through the cache. Safe for concurrent queries.
type Engine struct {
	store     storage.ChunkStore
	embedder  ai.Embedder
	scorer    ai.RelevanceScorer
	generator *ai.GeneratorCache
	rewriter  *rewrite.Rewriter
	pool      *ants.Pool
	counter   TokenCounter
	logger    *slog.Logger

	fanoutMultiplier  int
	fusionConstant    int
	contextBudget     int
	expansion         int
	retrievalTimeout  time.Duration
	generationTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithFanoutMultiplier sets how far each sub-query searches beyond topK.
// Values below 1 are raised to 1.
func WithFanoutMultiplier(multiplier int) Option {
	return func(e *Engine) error {
		if multiplier < 1 {
			multiplier = 1
		}
		e.fanoutMultiplier = multiplier
		return nil
	}
}

// WithFusionConstant sets the RRF smoothing constant k0.
// Values below 1 are raised to 1.
func WithFusionConstant(k0 int) Option {
	return func(e *Engine) error {
		if k0 < 1 {
			k0 = 1
		}
		e.fusionConstant = k0
		return nil
	}
}

// WithContextBudget sets the packed context size limit.
// Values below 1 are raised to 1.
func WithContextBudget(budget int) Option {
	return func(e *Engine) error {
		if budget < 1 {
			budget = 1
		}
		e.contextBudget = budget
		return nil
	}
}

// WithExpansion sets the maximum sub-query count per query, including the
// original. Values below 1 are raised to 1.
func WithExpansion(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			n = 1
		}
		e.expansion = n
		return nil
	}
}

// WithTokenCounter sets the counter used for the context budget.
// Default counts runes; production callers pass a TiktokenCounter.
func WithTokenCounter(counter TokenCounter) Option {
	return func(e *Engine) error {
		if counter == nil {
			counter = runeCounter{}
		}
		e.counter = counter
		return nil
	}
}

// WithPoolSize sets the retrieval worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithRetrievalTimeout bounds the wall-clock budget of the retrieval
// stage. Zero means no bound. Sub-queries that run out of time degrade to
// empty lists.
func WithRetrievalTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		e.retrievalTimeout = timeout
		return nil
	}
}

// WithGenerationTimeout bounds the wall-clock budget of the generation
// stage. Zero means no bound. A timed-out generation produces a degraded
// response rather than an error.
func WithGenerationTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		e.generationTimeout = timeout
		return nil
	}
}

// NewEngine creates a query engine over the store, using the provider's
// embedder and optional relevance scorer and the generator cache for
// expansion and answer synthesis. The scorer capability is resolved here,
// once, not per query.
func NewEngine(
	store storage.ChunkStore,
	provider ai.AIProvider,
	generator *ai.GeneratorCache,
	opts ...Option,
) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:            store,
		embedder:         provider.Embedder(),
		scorer:           provider.RelevanceScorer(),
		generator:        generator,
		pool:             pool,
		counter:          runeCounter{},
		logger:           slog.Default(),
		fanoutMultiplier: DefaultFanoutMultiplier,
		fusionConstant:   DefaultFusionConstant,
		contextBudget:    DefaultContextBudget,
		expansion:        DefaultExpansion,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Release()
			return nil, err
		}
	}

	rewriter, err := rewrite.NewRewriter(
		rewrite.WithGenerator(generator),
		rewrite.WithLogger(e.logger),
	)
	if err != nil {
		e.Release()
		return nil, err
	}
	e.rewriter = rewriter

	return e, nil
}

// Release releases the retrieval worker pool.
// The engine should not be used after calling Release.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Query runs the full pipeline for one query and returns a structured
// response. Non-fatal conditions (empty store, no hits, missing or failing
// scorer) produce well-formed degraded responses; only a blank query or a
// generation-backend failure after one retry returns an error.
func (e *Engine) Query(ctx context.Context, query core.Query) (*core.QueryResponse, error) {
	text := rewrite.Normalize(query.Text)
	topK := query.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if err := core.ValidateQuery(&core.Query{Text: text, TopK: topK}); err != nil {
		return nil, err
	}

	trace := &tracer{enabled: query.Verbose}
	trace.add(StageReceived, fmt.Sprintf("query %q, topK %d", text, topK))

	exists, err := e.store.Exists(ctx)
	if err == nil && !exists {
		e.logger.Debug("store is empty, short-circuiting", "query", text)
		return e.emptyResponse(trace, "empty store", false), nil
	}
	if err != nil {
		e.logger.Warn("store existence check failed, continuing", "err", err)
	}

	subs := e.rewriter.Expand(ctx, text, e.expansion)
	trace.add(StageRewritten, fmt.Sprintf("%d sub-queries", len(subs)))

	rctx := ctx
	if e.retrievalTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, e.retrievalTimeout)
		defer cancel()
	}
	lists, chunks := e.retrieve(rctx, subs, topK)

	totalHits := 0
	for _, list := range lists {
		totalHits += len(list)
	}
	trace.add(StageRetrieved, fmt.Sprintf("%d hits across %d lists", totalHits, len(lists)))
	if totalHits == 0 {
		return e.emptyResponse(trace, "no hits for any sub-query", false), nil
	}

	candidates := fuseRanks(lists, e.fusionConstant)
	trace.add(StageFused, fmt.Sprintf("%d candidates", len(candidates)))

	ranked, degraded := e.rerank(ctx, text, candidates, chunks, topK)
	trace.add(StageReranked, fmt.Sprintf("%d candidates, degraded=%t", len(ranked), degraded))

	block := e.repack(ranked, chunks)
	trace.add(StageContextBuilt, fmt.Sprintf("%d chunks, size %d", len(block.Chunks), block.Size))
	if len(block.Chunks) == 0 {
		return e.emptyResponse(trace, "no packable context", degraded), nil
	}

	answer, err := e.generate(ctx, text, block)
	if err != nil {
		var genErr *ai.GenerationError
		if errors.As(err, &genErr) && errors.Is(genErr.Err, context.DeadlineExceeded) {
			e.logger.Warn("generation timed out, degrading", "query", text)
			return e.emptyResponse(trace, "generation timed out", true), nil
		}
		return nil, err
	}
	trace.add(StageGenerated, fmt.Sprintf("%d answer bytes", len(answer)))

	packed := packedCandidates(ranked, block)
	confidence := scoreConfidence(packed, len(subs), e.fusionConstant, answer, block)
	trace.add(StageScored, fmt.Sprintf("confidence %.1f", confidence))

	sources := make([]core.Source, len(block.Chunks))
	for i, chunk := range block.Chunks {
		sources[i] = core.Source{SourcePath: chunk.SourcePath, ChunkID: chunk.Id}
	}

	trace.add(StageDone, "ok")
	return &core.QueryResponse{
		Answer:     answer,
		Confidence: confidence,
		Sources:    sources,
		Degraded:   degraded,
		Trace:      trace.entries,
	}, nil
}

// generate invokes the cached backend with one bounded retry. The final
// failure keeps its *ai.GenerationError type with Attempts updated.
func (e *Engine) generate(ctx context.Context, question string, block *core.ContextBlock) (string, error) {
	gctx := ctx
	if e.generationTimeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, e.generationTimeout)
		defer cancel()
	}

	prompt := buildAnswerPrompt(question, block)
	opts := &ai.GenerateOptions{Temperature: 0.2}

	answer, err := e.generator.Generate(gctx, prompt, opts)
	if err == nil {
		return answer, nil
	}
	e.logger.Warn("generation failed, retrying once", "err", err)

	answer, err = e.generator.Generate(gctx, prompt, opts)
	if err != nil {
		var genErr *ai.GenerationError
		if errors.As(err, &genErr) {
			genErr.Attempts = 2
		}
		return "", err
	}
	return answer, nil
}

// emptyResponse builds the well-formed zero-result response used by every
// short-circuit path.
func (e *Engine) emptyResponse(trace *tracer, reason string, degraded bool) *core.QueryResponse {
	trace.add(StageDone, reason)
	return &core.QueryResponse{
		Answer:     emptyAnswer,
		Confidence: 0,
		Sources:    []core.Source{},
		Degraded:   degraded,
		Trace:      trace.entries,
	}
}

// packedCandidates filters the ranked candidates down to those that made
// it into the context block, preserving order.
func packedCandidates(ranked []core.FusedCandidate, block *core.ContextBlock) []core.FusedCandidate {
	inBlock := make(map[core.ID]bool, len(block.Chunks))
	for _, chunk := range block.Chunks {
		inBlock[chunk.Id] = true
	}

	packed := make([]core.FusedCandidate, 0, len(block.Chunks))
	for _, c := range ranked {
		if inBlock[c.ChunkID] {
			packed = append(packed, c)
		}
	}
	return packed
}

// tracer collects stage snapshots for verbose queries and drops them
// otherwise.
type tracer struct {
	enabled bool
	entries []core.TraceEntry
}

func (t *tracer) add(stage, summary string) {
	if !t.enabled {
		return
	}
	t.entries = append(t.entries, core.TraceEntry{Stage: stage, Summary: summary})
}

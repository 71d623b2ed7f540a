package ai

import (
	"context"
	"log/slog"
	"sync"
)

// GeneratorFactory builds a generation backend. Construction may be
// expensive (client setup, model load), which is why the cache defers it
// until the first call.
type GeneratorFactory func() (Generator, error)

// GeneratorCache lazily constructs a single generation backend and reuses
// it for every call over the lifetime of its owner. Concurrent callers
// racing on the first call wait on the same in-progress construction
// rather than each building their own; a failed construction is retried
// on the next call instead of being cached forever.
type GeneratorCache struct {
	factory GeneratorFactory
	logger  *slog.Logger

	mu        sync.Mutex
	generator Generator
	closed    bool
}

// GeneratorCacheOption configures a GeneratorCache.
type GeneratorCacheOption func(*GeneratorCache)

// WithCacheLogger sets a custom logger.
// Default is slog.Default().
func WithCacheLogger(logger *slog.Logger) GeneratorCacheOption {
	return func(c *GeneratorCache) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewGeneratorCache creates a cache around the factory.
func NewGeneratorCache(factory GeneratorFactory, opts ...GeneratorCacheOption) (*GeneratorCache, error) {
	if factory == nil {
		return nil, ErrGeneratorFactoryRequired
	}
	c := &GeneratorCache{
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate runs a generation call against the cached backend, building it
// first if needed. All failures, including construction failures, surface
// as *GenerationError with Attempts set to 1; the orchestrator owns any
// retry policy on top of this.
func (c *GeneratorCache) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	gen, err := c.acquire()
	if err != nil {
		return "", &GenerationError{Attempts: 1, Err: err}
	}

	text, err := gen.Generate(ctx, prompt, opts)
	if err != nil {
		c.logger.Error("generation call failed", "err", err)
		return "", &GenerationError{Attempts: 1, Err: err}
	}
	return text, nil
}

// acquire returns the cached backend, constructing it under the lock so
// at most one construction is ever in flight.
func (c *GeneratorCache) acquire() (Generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}
	if c.generator != nil {
		return c.generator, nil
	}

	c.logger.Debug("constructing generation backend")
	gen, err := c.factory()
	if err != nil {
		c.logger.Error("generation backend construction failed", "err", err)
		return nil, err
	}
	c.generator = gen
	return gen, nil
}

// Close tears down the cached backend if one was built. The cache must not
// be used after Close.
func (c *GeneratorCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if closer, ok := c.generator.(interface{ Close() error }); ok {
		c.generator = nil
		return closer.Close()
	}
	c.generator = nil
	return nil
}

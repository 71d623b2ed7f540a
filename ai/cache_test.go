package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	reply  string
	err    error
	calls  atomic.Int32
	closed bool
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, opts *GenerateOptions) (string, error) {
	g.calls.Add(1)
	return g.reply, g.err
}

func (g *stubGenerator) Close() error {
	g.closed = true
	return nil
}

func TestNewGeneratorCache_NilFactory(t *testing.T) {
	_, err := NewGeneratorCache(nil)
	assert.Equal(t, ErrGeneratorFactoryRequired, err)
}

func TestGeneratorCache_BuildsOnce(t *testing.T) {
	gen := &stubGenerator{reply: "answer"}
	var builds atomic.Int32
	cache, err := NewGeneratorCache(func() (Generator, error) {
		builds.Add(1)
		return gen, nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		text, err := cache.Generate(ctx, "prompt", nil)
		require.NoError(t, err)
		assert.Equal(t, "answer", text)
	}

	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestGeneratorCache_ConcurrentCallersShareOneConstruction(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	var builds atomic.Int32
	cache, err := NewGeneratorCache(func() (Generator, error) {
		builds.Add(1)
		return gen, nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, genErr := cache.Generate(context.Background(), "p", nil)
			assert.NoError(t, genErr)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
}

func TestGeneratorCache_ConstructionFailureRetriedNextCall(t *testing.T) {
	boom := errors.New("backend down")
	var builds atomic.Int32
	cache, err := NewGeneratorCache(func() (Generator, error) {
		if builds.Add(1) == 1 {
			return nil, boom
		}
		return &stubGenerator{reply: "recovered"}, nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cache.Generate(ctx, "p", nil)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 1, genErr.Attempts)
	assert.ErrorIs(t, err, boom)

	text, err := cache.Generate(ctx, "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), builds.Load())
}

func TestGeneratorCache_CallFailureIsTyped(t *testing.T) {
	boom := errors.New("timeout")
	cache, err := NewGeneratorCache(func() (Generator, error) {
		return &stubGenerator{err: boom}, nil
	})
	require.NoError(t, err)

	_, err = cache.Generate(context.Background(), "p", nil)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, boom)
}

func TestGeneratorCache_Close(t *testing.T) {
	gen := &stubGenerator{reply: "x"}
	cache, err := NewGeneratorCache(func() (Generator, error) { return gen, nil })
	require.NoError(t, err)

	_, err = cache.Generate(context.Background(), "p", nil)
	require.NoError(t, err)

	require.NoError(t, cache.Close())
	assert.True(t, gen.closed)

	_, err = cache.Generate(context.Background(), "p", nil)
	assert.ErrorIs(t, err, ErrCacheClosed)
}

func TestGeneratorCache_CloseBeforeFirstUse(t *testing.T) {
	cache, err := NewGeneratorCache(func() (Generator, error) {
		t.Fatal("factory must not run")
		return nil, nil
	})
	require.NoError(t, err)
	assert.NoError(t, cache.Close())
}

package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyEmbedder fails the first `failures` calls with err.
type flakyEmbedder struct {
	*MockEmbedder
	failures int32
	err      error
	calls    int32
	delay    time.Duration
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if n <= f.failures {
		return nil, f.err
	}
	return f.MockEmbedder.Embed(ctx, text)
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func noSleep(e *ResilientEmbedder) *ResilientEmbedder {
	e.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return e
}

func TestResilientEmbedder_RetriesUnavailable(t *testing.T) {
	inner := &flakyEmbedder{MockEmbedder: NewMockEmbedder(4), failures: 2, err: fmt.Errorf("%w: 503", ErrEmbedderUnavailable)}
	e := noSleep(NewResilientEmbedder(inner, ResilienceConfig{MaxRetries: 3, BreakerFailures: 10}, nil))

	v, err := e.Embed(context.Background(), "Target")
	require.NoError(t, err)
	assert.Len(t, v, 4)
	assert.Equal(t, int32(3), atomic.LoadInt32(&inner.calls))
}

func TestResilientEmbedder_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyEmbedder{MockEmbedder: NewMockEmbedder(4), failures: 100, err: fmt.Errorf("%w: 503", ErrEmbedderUnavailable)}
	e := noSleep(NewResilientEmbedder(inner, ResilienceConfig{MaxRetries: 2, BreakerFailures: 10}, nil))

	_, err := e.Embed(context.Background(), "Target")
	assert.ErrorIs(t, err, ErrEmbedderUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&inner.calls))
}

func TestResilientEmbedder_DoesNotRetryPermanentErrors(t *testing.T) {
	inner := &flakyEmbedder{MockEmbedder: NewMockEmbedder(4), failures: 100, err: errors.New("400 bad input")}
	e := noSleep(NewResilientEmbedder(inner, ResilienceConfig{MaxRetries: 3, BreakerFailures: 1}, nil))

	for i := 0; i < 3; i++ {
		_, err := e.Embed(context.Background(), "Target")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrEmbedderUnavailable))
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&inner.calls))
	assert.Equal(t, gobreaker.StateClosed.String(), e.State(), "permanent errors must not trip the breaker")
}

func TestResilientEmbedder_BreakerOpens(t *testing.T) {
	inner := &flakyEmbedder{MockEmbedder: NewMockEmbedder(4), failures: 100, err: fmt.Errorf("%w: 503", ErrEmbedderUnavailable)}
	e := noSleep(NewResilientEmbedder(inner, ResilienceConfig{BreakerFailures: 2, BreakerTimeout: time.Hour}, nil))

	_, _ = e.Embed(context.Background(), "a")
	_, _ = e.Embed(context.Background(), "b")
	assert.Equal(t, gobreaker.StateOpen.String(), e.State())

	_, err := e.Embed(context.Background(), "c")
	assert.ErrorIs(t, err, ErrEmbedderUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls), "open breaker must not reach the embedder")
}

func TestResilientEmbedder_TimeoutIsUnavailable(t *testing.T) {
	inner := &flakyEmbedder{MockEmbedder: NewMockEmbedder(4), delay: time.Second}
	e := noSleep(NewResilientEmbedder(inner, ResilienceConfig{Timeout: 10 * time.Millisecond, BreakerFailures: 10}, nil))

	_, err := e.Embed(context.Background(), "Target")
	assert.ErrorIs(t, err, ErrEmbedderUnavailable)
}

func TestResilientEmbedder_CallerCancellation(t *testing.T) {
	inner := &flakyEmbedder{MockEmbedder: NewMockEmbedder(4)}
	e := NewResilientEmbedder(inner, ResilienceConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EmbedBatch(ctx, []string{"Target"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmbedderUnavailable))
}

func TestResilientEmbedder_RateLimit(t *testing.T) {
	inner := &flakyEmbedder{MockEmbedder: NewMockEmbedder(4)}
	e := NewResilientEmbedder(inner, ResilienceConfig{RateLimit: 20, Burst: 1}, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := e.Embed(context.Background(), "Target")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

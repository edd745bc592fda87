package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ResilienceConfig is the caller-side policy applied by ResilientEmbedder.
type ResilienceConfig struct {
	// Timeout bounds each attempt. Zero disables it.
	Timeout time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	// MaxRetries is the number of extra attempts after an ErrEmbedderUnavailable.
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// ResilientEmbedder applies a timeout, a token-bucket rate limit, a circuit
// breaker and bounded retries around another embedder. Only
// ErrEmbedderUnavailable is retried.
type ResilientEmbedder struct {
	inner   Embedder
	cfg     ResilienceConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewResilientEmbedder wraps inner with the policy in cfg.
func NewResilientEmbedder(inner Embedder, cfg ResilienceConfig, logger *zap.Logger) *ResilientEmbedder {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        "embedder:" + inner.Model(),
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Only unavailability counts against the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrEmbedderUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("embedder circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	}
	return &ResilientEmbedder{
		inner:   inner,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Embed embeds one text under the policy.
func (e *ResilientEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.do(ctx, func(ctx context.Context) error {
		v, err := e.inner.Embed(ctx, text)
		out = v
		return err
	})
	return out, err
}

// EmbedBatch embeds texts under the policy; a batch counts as one request.
func (e *ResilientEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.do(ctx, func(ctx context.Context) error {
		v, err := e.inner.EmbedBatch(ctx, texts)
		out = v
		return err
	})
	return out, err
}

func (e *ResilientEmbedder) do(ctx context.Context, fn func(context.Context) error) error {
	backoff := e.cfg.Backoff
	var err error
	for attempt := 0; ; attempt++ {
		err = e.attempt(ctx, fn)
		if err == nil || !errors.Is(err, ErrEmbedderUnavailable) || attempt >= e.cfg.MaxRetries {
			return err
		}
		if e.logger != nil {
			e.logger.Debug("retrying embed",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
		}
		if sleepErr := e.sleep(ctx, backoff); sleepErr != nil {
			return err
		}
		backoff *= 2
	}
}

func (e *ResilientEmbedder) attempt(ctx context.Context, fn func(context.Context) error) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := e.breaker.Execute(func() (interface{}, error) {
		callCtx := ctx
		if e.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
			defer cancel()
		}
		err := fn(callCtx)
		if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrEmbedderUnavailable) {
			err = fmt.Errorf("%w: timed out after %s: %v", ErrEmbedderUnavailable, e.cfg.Timeout, err)
		}
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrEmbedderUnavailable, err)
	}
	return err
}

// State returns the circuit breaker state, for status reporting.
func (e *ResilientEmbedder) State() string {
	return e.breaker.State().String()
}

// Model returns the inner model.
func (e *ResilientEmbedder) Model() string { return e.inner.Model() }

// Dimensions returns the inner dimensions.
func (e *ResilientEmbedder) Dimensions() int { return e.inner.Dimensions() }

// Close closes the inner embedder.
func (e *ResilientEmbedder) Close() error { return e.inner.Close() }

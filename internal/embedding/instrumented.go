package embedding

import (
	"context"
	"time"
)

// Observer receives one call per embedder request.
type Observer interface {
	ObserveEmbed(texts int, elapsed time.Duration, err error)
}

// InstrumentedEmbedder reports every Embed and EmbedBatch call to an Observer.
type InstrumentedEmbedder struct {
	inner    Embedder
	observer Observer
}

// NewInstrumentedEmbedder wraps inner. A nil observer returns inner unchanged.
func NewInstrumentedEmbedder(inner Embedder, observer Observer) Embedder {
	if observer == nil {
		return inner
	}
	return &InstrumentedEmbedder{inner: inner, observer: observer}
}

func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := e.inner.Embed(ctx, text)
	e.observer.ObserveEmbed(1, time.Since(start), err)
	return vec, err
}

func (e *InstrumentedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.inner.EmbedBatch(ctx, texts)
	e.observer.ObserveEmbed(len(texts), time.Since(start), err)
	return vecs, err
}

func (e *InstrumentedEmbedder) Model() string   { return e.inner.Model() }
func (e *InstrumentedEmbedder) Dimensions() int { return e.inner.Dimensions() }
func (e *InstrumentedEmbedder) Close() error    { return e.inner.Close() }

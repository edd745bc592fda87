package embedding

import (
	"context"
	"io"
)

// CachedEmbedder serves repeated texts from a Cache.
type CachedEmbedder struct {
	inner Embedder
	cache Cache
}

// NewCachedEmbedder wraps inner with cache.
func NewCachedEmbedder(inner Embedder, cache Cache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

// Embed returns the cached embedding or computes and stores it.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(e.inner.Model(), text)
	if v, ok := e.cache.Get(ctx, key); ok {
		return v, nil
	}
	v, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(ctx, key, v)
	return v, nil
}

// EmbedBatch sends only the cache misses to the inner embedder, in one batch.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	model := e.inner.Model()
	for i, text := range texts {
		if v, ok := e.cache.Get(ctx, CacheKey(model, text)); ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := e.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, v := range vecs {
		out[missingIdx[j]] = v
		e.cache.Set(ctx, CacheKey(model, missing[j]), v)
	}
	return out, nil
}

// Model returns the inner model.
func (e *CachedEmbedder) Model() string { return e.inner.Model() }

// Dimensions returns the inner dimensions.
func (e *CachedEmbedder) Dimensions() int { return e.inner.Dimensions() }

// Close closes the inner embedder and the cache when it holds a connection.
func (e *CachedEmbedder) Close() error {
	err := e.inner.Close()
	if c, ok := e.cache.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

package embedding

import (
	"context"

	"github.com/hyperjump/namesim/internal/vector"
)

// NormalizedModelSuffix marks a model name whose vectors are unit length. It
// keeps normalized and raw vectors of the same model apart in caches and in
// the model column.
const NormalizedModelSuffix = "+l2"

// NormalizingEmbedder scales every output to unit L2 norm, so dot scoring
// equals cosine similarity over its vectors.
type NormalizingEmbedder struct {
	inner Embedder
}

// NewNormalizingEmbedder wraps inner.
func NewNormalizingEmbedder(inner Embedder) *NormalizingEmbedder {
	return &NormalizingEmbedder{inner: inner}
}

func normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	vector.NormalizeL2(out)
	return out
}

// Embed embeds text with the inner embedder and returns a unit-length copy.
func (e *NormalizingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return normalized(v), nil
}

// EmbedBatch normalizes each vector of the inner batch.
func (e *NormalizingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.inner.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		out[i] = normalized(v)
	}
	return out, nil
}

// Model returns the inner model name with NormalizedModelSuffix appended.
func (e *NormalizingEmbedder) Model() string { return e.inner.Model() + NormalizedModelSuffix }

// Dimensions returns the inner embedder's dimensions.
func (e *NormalizingEmbedder) Dimensions() int { return e.inner.Dimensions() }

// Close closes the inner embedder.
func (e *NormalizingEmbedder) Close() error { return e.inner.Close() }

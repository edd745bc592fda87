package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/namesim/internal/config"
	"github.com/hyperjump/namesim/internal/vector"
)

func TestNewEmbedder_Mock(t *testing.T) {
	cfg := &config.Config{Embedding: config.EmbeddingConfig{Provider: "mock", Dimensions: 8, Normalize: true}}
	config.ApplyDefaults(cfg)

	e, err := NewEmbedder(&cfg.Embedding, nil)
	require.NoError(t, err)
	defer e.Close()

	assert.IsType(t, &CachedEmbedder{}, e)
	assert.Equal(t, "mock"+NormalizedModelSuffix, e.Model())
	assert.Equal(t, 8, e.Dimensions())
	v, err := e.Embed(context.Background(), "Target")
	require.NoError(t, err)
	assert.True(t, vector.IsUnitNorm(v, 1e-5))
}

func TestNewEmbedder_HostedIsResilient(t *testing.T) {
	cfg := &config.Config{Embedding: config.EmbeddingConfig{Provider: "hosted", BaseURL: "http://127.0.0.1:1", Cache: config.CacheConfig{Type: "none"}}}
	config.ApplyDefaults(cfg)

	e, err := NewEmbedder(&cfg.Embedding, nil)
	require.NoError(t, err)
	assert.IsType(t, &ResilientEmbedder{}, e)
	assert.Equal(t, "databricks-gte-large-en", e.Model())
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.EmbeddingConfig{Provider: "bedrock"}, nil)
	assert.Error(t, err)
}

func TestNormalizingEmbedder_DoesNotMutateInner(t *testing.T) {
	inner := &staticEmbedder{v: []float32{3, 4}}
	e := NewNormalizingEmbedder(inner)
	v, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.Equal(t, []float32{3, 4}, inner.v)
}

func TestNewEmbedder_NormalizeSeparatesCacheKeys(t *testing.T) {
	shared := NewEmbeddingCache(16)
	raw := NewCachedEmbedder(&staticEmbedder{v: []float32{3, 4}}, shared)
	unit := NewCachedEmbedder(NewNormalizingEmbedder(&staticEmbedder{v: []float32{3, 4}}), shared)
	ctx := context.Background()

	v, err := raw.Embed(ctx, "Target")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, v)

	v, err = unit.Embed(ctx, "Target")
	require.NoError(t, err)
	assert.True(t, vector.IsUnitNorm(v, 1e-5), "normalized embedder served a raw cached vector: %v", v)
	assert.NotEqual(t, CacheKey(raw.Model(), "Target"), CacheKey(unit.Model(), "Target"))

	v, err = raw.Embed(ctx, "Target")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, v)
}

type staticEmbedder struct{ v []float32 }

func (s *staticEmbedder) Embed(context.Context, string) ([]float32, error) { return s.v, nil }
func (s *staticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.v
	}
	return out, nil
}
func (s *staticEmbedder) Model() string   { return "static" }
func (s *staticEmbedder) Dimensions() int { return len(s.v) }
func (s *staticEmbedder) Close() error    { return nil }

package embedding

import (
	"context"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewEmbeddingCache(2)
	if v, ok := c.Get(ctx, "a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set(ctx, "a", []float32{1, 2, 3})
	v, ok := c.Get(ctx, "a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set(ctx, "b", []float32{4, 5})
	c.Get(ctx, "a")               // a is now most recent
	c.Set(ctx, "c", []float32{6}) // evicts b
	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Error("expected a to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d", c.Len())
	}
}

func TestCacheKey_ScopesByModel(t *testing.T) {
	if CacheKey("m1", "Target") == CacheKey("m2", "Target") {
		t.Error("keys for different models must differ")
	}
}

type countingEmbedder struct {
	*MockEmbedder
	batches [][]string
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches = append(c.batches, append([]string(nil), texts...))
	return c.MockEmbedder.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.batches = append(c.batches, []string{text})
	return c.MockEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder_BatchSendsOnlyMisses(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(4)}
	e := NewCachedEmbedder(inner, NewEmbeddingCache(10))

	if _, err := e.Embed(ctx, "Costco"); err != nil {
		t.Fatal(err)
	}
	out, err := e.EmbedBatch(ctx, []string{"Target", "Costco", "Kroger"})
	if err != nil {
		t.Fatal(err)
	}
	if len(inner.batches) != 2 {
		t.Fatalf("expected 2 inner calls, got %v", inner.batches)
	}
	if got := inner.batches[1]; len(got) != 2 || got[0] != "Target" || got[1] != "Kroger" {
		t.Errorf("second call should only carry misses, got %v", got)
	}
	want, _ := inner.MockEmbedder.Embed(ctx, "Costco")
	for i := range want {
		if out[1][i] != want[i] {
			t.Fatalf("cached vector out of place: %v vs %v", out[1], want)
		}
	}
	if _, err := e.EmbedBatch(ctx, []string{"Kroger"}); err != nil {
		t.Fatal(err)
	}
	if len(inner.batches) != 2 {
		t.Error("fully cached batch should not call the inner embedder")
	}
}

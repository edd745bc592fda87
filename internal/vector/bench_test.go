package vector

import (
	"context"
	"strconv"
	"testing"
)

func benchCandidates(n, dims int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		emb := make([]float32, dims)
		emb[0] = float32(i) / float32(n)
		emb[1] = 1 - emb[0]
		NormalizeL2(emb)
		out[i] = Candidate{ID: strconv.Itoa(i), Name: "name " + strconv.Itoa(i), Embedding: emb}
	}
	return out
}

func BenchmarkSearch(b *testing.B) {
	candidates := benchCandidates(10000, 384)
	query := make([]float32, 384)
	query[0] = 1
	for _, workers := range []int{1, 4} {
		b.Run("workers="+strconv.Itoa(workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = Search(query, candidates, 0.95, WithWorkers(workers), WithLimit(10))
			}
		})
	}
}

func BenchmarkMemoryIndexSearch(b *testing.B) {
	idx := NewMemoryIndex(1)
	ctx := context.Background()
	_ = idx.Add(ctx, benchCandidates(1000, 384))
	query := make([]float32, 384)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, query, 0.95, WithScoring(ScoringDot))
	}
}

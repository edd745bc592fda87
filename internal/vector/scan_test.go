package vector

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func demoCandidates() []Candidate {
	return []Candidate{
		{ID: "1", Name: "A", Embedding: []float32{1, 0}},
		{ID: "2", Name: "B", Embedding: []float32{0, 1}},
		{ID: "3", Name: "C", Embedding: []float32{0.99, 0.14}},
	}
}

func TestSearch_DotScoringKeepsAboveThreshold(t *testing.T) {
	results, err := Search([]float32{1, 0}, demoCandidates(), 0.95, WithScoring(ScoringDot))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Name)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "C", results[1].Name)
	assert.InDelta(t, 0.99, results[1].Score, 1e-6)
}

func TestSearch_CosineScoring(t *testing.T) {
	results, err := Search([]float32{1, 0}, demoCandidates(), 0.95)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Name)
	assert.Equal(t, "C", results[1].Name)
	assert.InDelta(t, 0.99/Norm2([]float32{0.99, 0.14}), results[1].Score, 1e-6)
}

func TestSearch_ThresholdIsStrict(t *testing.T) {
	cands := []Candidate{
		{ID: "1", Name: "exact", Embedding: []float32{0.5, 0}},
		{ID: "2", Name: "above", Embedding: []float32{0.75, 0}},
	}
	results, err := Search([]float32{1, 0}, cands, 0.5, WithScoring(ScoringDot))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "above", results[0].Name)
}

func TestSearch_Idempotent(t *testing.T) {
	cands := demoCandidates()
	first, err := Search([]float32{1, 0}, cands, 0.0, WithScoring(ScoringDot))
	require.NoError(t, err)
	second, err := Search([]float32{1, 0}, cands, 0.0, WithScoring(ScoringDot))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearch_SkipsMismatchedCandidates(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cands := append(demoCandidates(),
		Candidate{ID: "4", Name: "broken", Embedding: []float32{1, 0, 0}},
		Candidate{ID: "5", Name: "pending"},
	)
	var skipped int
	results, err := Search([]float32{1, 0}, cands, 0.95,
		WithScoring(ScoringDot), WithLogger(zap.New(core)), WithSkipCounter(&skipped))
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 2, logs.FilterMessage("skipping candidate").Len())
}

func TestSearch_CosineSkipsZeroVectors(t *testing.T) {
	cands := []Candidate{
		{ID: "1", Name: "zero", Embedding: []float32{0, 0}},
		{ID: "2", Name: "A", Embedding: []float32{1, 0}},
	}
	var skipped int
	results, err := Search([]float32{1, 0}, cands, 0.5, WithSkipCounter(&skipped))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, skipped)
}

func TestSearch_WarnsOnceForNonUnitDot(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cands := []Candidate{
		{ID: "1", Name: "big", Embedding: []float32{3, 0}},
		{ID: "2", Name: "bigger", Embedding: []float32{5, 0}},
	}
	_, err := Search([]float32{1, 0}, cands, 0.95, WithScoring(ScoringDot), WithLogger(zap.New(core)), WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}

func TestSearch_LimitAndTies(t *testing.T) {
	cands := []Candidate{
		{ID: "1", Name: "first", Embedding: []float32{1, 0}},
		{ID: "2", Name: "second", Embedding: []float32{1, 0}},
		{ID: "3", Name: "third", Embedding: []float32{1, 0}},
	}
	results, err := Search([]float32{1, 0}, cands, 0.5, WithLimit(2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Name)
	assert.Equal(t, "second", results[1].Name)
}

func TestSearch_ParallelMatchesSequential(t *testing.T) {
	cands := make([]Candidate, 0, 257)
	for i := 0; i < 257; i++ {
		x := float32(i%17) / 17
		cands = append(cands, Candidate{ID: fmt.Sprint(i), Name: fmt.Sprintf("n%d", i), Embedding: []float32{x, 1 - x, 0.5}})
	}
	if len(cands) > 10 {
		cands[10].Embedding = []float32{1}
	}
	query := []float32{0.7, 0.3, 0.5}
	seq, err := Search(query, cands, 0.1)
	require.NoError(t, err)
	par, err := Search(query, cands, 0.1, WithWorkers(8))
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestSearch_InvalidQuery(t *testing.T) {
	_, err := Search(nil, demoCandidates(), 0.5)
	assert.Error(t, err)
	_, err = Search([]float32{0, 0}, demoCandidates(), 0.5)
	assert.ErrorIs(t, err, ErrZeroVector)
}

func TestParseScoring(t *testing.T) {
	s, err := ParseScoring("")
	require.NoError(t, err)
	assert.Equal(t, ScoringCosine, s)
	s, err = ParseScoring("dot")
	require.NoError(t, err)
	assert.Equal(t, ScoringDot, s)
	_, err = ParseScoring("hamming")
	assert.Error(t, err)
}

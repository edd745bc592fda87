package vector

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/namesim/internal/models"
)

// Scoring selects how a candidate is scored against the query.
type Scoring string

const (
	// ScoringCosine divides the dot product by the product of norms.
	ScoringCosine Scoring = "cosine"
	// ScoringDot uses the raw dot product. It only equals cosine similarity when
	// every embedding is unit length.
	ScoringDot Scoring = "dot"
)

// unitTolerance is how far from 1 a norm may drift before dot scoring warns.
const unitTolerance = 1e-3

// ParseScoring maps a config/query string to a Scoring. Empty selects cosine.
func ParseScoring(s string) (Scoring, error) {
	switch Scoring(s) {
	case "", ScoringCosine:
		return ScoringCosine, nil
	case ScoringDot:
		return ScoringDot, nil
	default:
		return "", fmt.Errorf("unknown scoring %q (supported: cosine, dot)", s)
	}
}

// Candidate is a named embedding considered by Search.
type Candidate struct {
	ID        string
	Name      string
	Embedding []float32
}

type searchOptions struct {
	scoring Scoring
	limit   int
	workers int
	logger  *zap.Logger
	skipped *int
}

// SearchOption configures Search.
type SearchOption func(*searchOptions)

// WithScoring sets the scoring function (default cosine).
func WithScoring(s Scoring) SearchOption {
	return func(o *searchOptions) { o.scoring = s }
}

// WithLimit keeps at most k results after sorting. k <= 0 means no limit.
func WithLimit(k int) SearchOption {
	return func(o *searchOptions) { o.limit = k }
}

// WithWorkers splits the scan across n goroutines. Output is identical to n = 1.
func WithWorkers(n int) SearchOption {
	return func(o *searchOptions) { o.workers = n }
}

// WithLogger logs skipped candidates and the non-unit-norm warning.
func WithLogger(l *zap.Logger) SearchOption {
	return func(o *searchOptions) { o.logger = l }
}

// WithSkipCounter stores the number of skipped candidates in *n.
func WithSkipCounter(n *int) SearchOption {
	return func(o *searchOptions) { o.skipped = n }
}

type scored struct {
	pos   int
	score float64
}

type chunkResult struct {
	hits     []scored
	skipped  int
	nonUnit  bool
	firstBad string
}

// Search scores every candidate against query and returns those with a score
// strictly greater than threshold, highest first. Ties keep candidate order.
// Candidates with a mismatched dimension (or a zero norm under cosine scoring)
// are skipped, never failing the scan.
func Search(query []float32, candidates []Candidate, threshold float64, opts ...SearchOption) ([]models.SimilarityResult, error) {
	o := searchOptions{scoring: ScoringCosine, workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if math.IsNaN(threshold) {
		return nil, fmt.Errorf("threshold is NaN")
	}
	if o.scoring == ScoringCosine && Norm2(query) == 0 {
		return nil, fmt.Errorf("query: %w", ErrZeroVector)
	}

	chunks := splitRanges(len(candidates), o.workers)
	parts := make([]chunkResult, len(chunks))
	var g errgroup.Group
	for i, r := range chunks {
		g.Go(func() error {
			parts[i] = scanRange(query, candidates, r[0], r[1], threshold, &o)
			return nil
		})
	}
	_ = g.Wait()

	var hits []scored
	skipped := 0
	warned := false
	for _, p := range parts {
		hits = append(hits, p.hits...)
		skipped += p.skipped
		if p.nonUnit && !warned && o.logger != nil {
			o.logger.Warn("dot scoring over non-unit embeddings; scores are not cosine similarities",
				zap.String("candidate", p.firstBad))
			warned = true
		}
	}
	if o.skipped != nil {
		*o.skipped = skipped
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if o.limit > 0 && len(hits) > o.limit {
		hits = hits[:o.limit]
	}
	out := make([]models.SimilarityResult, len(hits))
	for i, h := range hits {
		c := candidates[h.pos]
		out[i] = models.SimilarityResult{ID: c.ID, Name: c.Name, Score: h.score}
	}
	return out, nil
}

func scanRange(query []float32, candidates []Candidate, from, to int, threshold float64, o *searchOptions) chunkResult {
	var res chunkResult
	for pos := from; pos < to; pos++ {
		c := candidates[pos]
		s, err := scoreCandidate(query, c.Embedding, o.scoring)
		if err != nil {
			res.skipped++
			if o.logger != nil {
				o.logger.Warn("skipping candidate",
					zap.String("id", c.ID),
					zap.String("name", c.Name),
					zap.Int("dimensions", len(c.Embedding)),
					zap.Int("query_dimensions", len(query)),
					zap.Error(err),
				)
			}
			continue
		}
		if o.scoring == ScoringDot && !res.nonUnit && !IsUnitNorm(c.Embedding, unitTolerance) {
			res.nonUnit = true
			res.firstBad = c.Name
		}
		if s > threshold {
			res.hits = append(res.hits, scored{pos: pos, score: s})
		}
	}
	return res
}

func scoreCandidate(query, emb []float32, s Scoring) (float64, error) {
	if s == ScoringDot {
		return DotProduct(query, emb)
	}
	return CosineSimilarity(query, emb)
}

// splitRanges divides [0, n) into at most workers contiguous ranges.
func splitRanges(n, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if workers == 0 {
		return nil
	}
	size := (n + workers - 1) / workers
	ranges := make([][2]int, 0, workers)
	for from := 0; from < n; from += size {
		to := from + size
		if to > n {
			to = n
		}
		ranges = append(ranges, [2]int{from, to})
	}
	return ranges
}

package vector

import (
	"context"

	"github.com/hyperjump/namesim/internal/models"
)

// Index holds candidates in memory and runs threshold searches over them.
type Index interface {
	Add(ctx context.Context, candidates []Candidate) error
	Search(ctx context.Context, query []float32, threshold float64, opts ...SearchOption) ([]models.SimilarityResult, error)
	Remove(ctx context.Context, ids []string) error
	Reset(candidates []Candidate)
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

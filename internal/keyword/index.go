// Package keyword provides the lexical name index used for fuzzy lookups.
package keyword

import (
	"context"

	"github.com/hyperjump/namesim/internal/models"
)

// SearchOptions optional parameters for a name search. Nil means exact term matching.
type SearchOptions struct {
	// Fuzzy matches each query term within Fuzziness edits.
	Fuzzy bool
	// Fuzziness is the maximum edit distance per term (1 or 2). Defaults to 1.
	Fuzziness int
}

// NameIndex defines lexical name index operations. Documents are scoped by namespace.
type NameIndex interface {
	Index(ctx context.Context, ns models.Namespace, rec *models.NameRecord) error
	IndexBatch(ctx context.Context, ns models.Namespace, recs []*models.NameRecord) error
	// Replace makes recs the complete set of names indexed for ns.
	Replace(ctx context.Context, ns models.Namespace, recs []*models.NameRecord) error
	Search(ctx context.Context, ns models.Namespace, query string, limit int, opts *SearchOptions) ([]models.LexicalMatch, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// TermDictionary exposes indexed name terms to the Suggester.
type TermDictionary interface {
	// GetAllTerms returns all unique name terms in the index.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns how many names contain the term.
	GetTermFrequency(term string) (int, error)
}

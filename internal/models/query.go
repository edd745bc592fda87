package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidQuery is wrapped by every SearchQuery validation error.
var ErrInvalidQuery = errors.New("invalid query")

const (
	// DefaultThreshold is the similarity cut-off used when a query does not set one.
	DefaultThreshold = 0.95
	defaultLimit     = 10
	maxLimit         = 100
)

// SearchQuery is a similarity search request. Exactly one of Text or Vector is used;
// Vector wins when both are set.
type SearchQuery struct {
	Namespace Namespace `json:"namespace,omitempty"`
	Text      string    `json:"text,omitempty"`
	Vector    []float32 `json:"vector,omitempty"`
	Threshold *float64  `json:"threshold,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Scoring   string    `json:"scoring,omitempty"`  // "cosine" or "dot"; empty uses the engine default
	Pushdown  bool      `json:"pushdown,omitempty"` // run the scan inside the store
	Lexical   bool      `json:"lexical,omitempty"`  // add fuzzy name matches
}

// Validate checks the query and fills in defaults for limit and threshold.
func (q *SearchQuery) Validate() error {
	if q.Text == "" && len(q.Vector) == 0 {
		return fmt.Errorf("%w: text or vector is required", ErrInvalidQuery)
	}
	if q.Threshold == nil {
		t := DefaultThreshold
		q.Threshold = &t
	}
	if math.IsNaN(*q.Threshold) {
		return fmt.Errorf("%w: threshold must be a number", ErrInvalidQuery)
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	switch q.Scoring {
	case "", "cosine", "dot":
	default:
		return fmt.Errorf("%w: unknown scoring %q (supported: cosine, dot)", ErrInvalidQuery, q.Scoring)
	}
	return nil
}

// ThresholdValue returns the threshold, or DefaultThreshold when unset.
func (q *SearchQuery) ThresholdValue() float64 {
	if q.Threshold == nil {
		return DefaultThreshold
	}
	return *q.Threshold
}

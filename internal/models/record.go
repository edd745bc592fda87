// Package models defines core data structures for name records, namespaces, and search results.
package models

import "time"

// NameRecord is one row of the name lookup table. Embedding is nil until the
// record has been vectorized.
type NameRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Source     string     `json:"source,omitempty"`
	Embedding  []float32  `json:"embedding,omitempty"`
	Model      string     `json:"model,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	EmbeddedAt *time.Time `json:"embedded_at,omitempty"`
}

// HasEmbedding reports whether the vectorization step has run for the record.
func (r *NameRecord) HasEmbedding() bool {
	return r != nil && r.Embedding != nil
}

// NameInput is the input for adding names through the API.
type NameInput struct {
	Namespace Namespace `json:"namespace,omitempty"`
	Names     []string  `json:"names"`
	Source    string    `json:"source,omitempty"`
}

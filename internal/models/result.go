package models

// SimilarityResult is a single match above the threshold.
type SimilarityResult struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank,omitempty"`
}

// LexicalMatch is a fuzzy name match from the keyword index. Distance is the
// edit distance between the lowercased query and name.
type LexicalMatch struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Distance int     `json:"distance"`
}

// SearchResponse is the response for a similarity search.
type SearchResponse struct {
	Results   []SimilarityResult `json:"results"`
	Total     int                `json:"total"`
	Skipped   int                `json:"skipped,omitempty"` // candidates dropped for dimension mismatch or zero norm
	Threshold float64            `json:"threshold"`
	Scoring   string             `json:"scoring"`
	QueryTime int64              `json:"query_time_ms"`
	Query     string             `json:"query,omitempty"`
	// Lexical holds fuzzy name matches; only populated when the query asked for them.
	Lexical []LexicalMatch `json:"lexical,omitempty"`
}

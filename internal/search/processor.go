package search

import (
	"github.com/hyperjump/namesim/internal/config"
	"github.com/hyperjump/namesim/internal/models"
)

// ProcessQuery fills unset fields from the search config and the default
// namespace, then validates the query. The configured max limit caps Limit.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig, ns models.Namespace) error {
	if query.Namespace.IsZero() {
		query.Namespace = ns
	}
	if cfg != nil {
		if query.Threshold == nil {
			t := cfg.Threshold()
			query.Threshold = &t
		}
		if query.Limit <= 0 {
			query.Limit = cfg.DefaultLimit
		}
		if cfg.MaxLimit > 0 && query.Limit > cfg.MaxLimit {
			query.Limit = cfg.MaxLimit
		}
		if query.Scoring == "" {
			query.Scoring = cfg.Scoring
		}
		if cfg.Pushdown {
			query.Pushdown = true
		}
	}
	return query.Validate()
}

// Package search runs threshold similarity searches over the name table.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/namesim/internal/config"
	"github.com/hyperjump/namesim/internal/embedding"
	"github.com/hyperjump/namesim/internal/keyword"
	"github.com/hyperjump/namesim/internal/metrics"
	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/storage"
	"github.com/hyperjump/namesim/internal/vector"
)

// Engine answers similarity queries from the in-memory index, or from the store
// when a query asks for pushdown.
type Engine struct {
	store     storage.Store
	embedder  embedding.Embedder
	vectors   *vector.IndexSet
	names     keyword.NameIndex // optional
	suggester *keyword.Suggester
	config    *config.SearchConfig
	namespace models.Namespace
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu     sync.Mutex
	loaded map[models.Namespace]bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger logs skipped candidates and reloads.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records search latency, result counts, and skipped candidates.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a search engine. ns is used for queries that name no namespace.
func NewEngine(
	store storage.Store,
	embedder embedding.Embedder,
	vectors *vector.IndexSet,
	names keyword.NameIndex,
	cfg *config.SearchConfig,
	ns models.Namespace,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		store:     store,
		embedder:  embedder,
		vectors:   vectors,
		names:     names,
		config:    cfg,
		namespace: ns,
		loaded:    make(map[models.Namespace]bool),
	}
	if dict, ok := names.(keyword.TermDictionary); ok {
		e.suggester = keyword.NewSuggester(dict)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns every name scoring strictly above the query threshold, best first.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config, e.namespace); err != nil {
		return nil, err
	}
	scoring, err := vector.ParseScoring(query.Scoring)
	if err != nil {
		return nil, err
	}
	ns := query.Namespace

	queryVec := query.Vector
	if len(queryVec) == 0 {
		queryVec, err = e.embedder.Embed(ctx, query.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding failed: %w", err)
		}
	}

	threshold := query.ThresholdValue()
	var (
		results []models.SimilarityResult
		skipped int
		mode    = "memory"
	)
	if query.Pushdown {
		mode = "pushdown"
		results, skipped, err = e.store.SimilarTo(ctx, ns, queryVec, threshold, query.Limit, scoring)
		if err != nil {
			return nil, fmt.Errorf("similarity query failed: %w", err)
		}
	} else {
		if err := e.ensureLoaded(ctx, ns); err != nil {
			return nil, err
		}
		results, err = e.vectors.For(ns).Search(ctx, queryVec, threshold,
			vector.WithScoring(scoring),
			vector.WithLimit(query.Limit),
			vector.WithLogger(e.logger),
			vector.WithSkipCounter(&skipped),
		)
		if err != nil {
			return nil, fmt.Errorf("vector search failed: %w", err)
		}
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	response := &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Skipped:   skipped,
		Threshold: threshold,
		Scoring:   string(scoring),
		Query:     query.Text,
	}
	if response.Results == nil {
		response.Results = []models.SimilarityResult{}
	}
	if query.Lexical && query.Text != "" && e.names != nil {
		lexical, err := e.names.Search(ctx, ns, query.Text, query.Limit, &keyword.SearchOptions{Fuzzy: true})
		if err != nil {
			return nil, fmt.Errorf("lexical search failed: %w", err)
		}
		response.Lexical = lexical
	}
	elapsed := time.Since(startTime)
	response.QueryTime = elapsed.Milliseconds()
	e.metrics.ObserveSearch(mode, elapsed, len(results), skipped)
	return response, nil
}

// LookupResult is the outcome of a lexical name lookup.
type LookupResult struct {
	Matches []models.LexicalMatch `json:"matches"`
	// DidYouMean is a corrected query, set only when nothing matched.
	DidYouMean string `json:"did_you_mean,omitempty"`
}

// Lookup searches names lexically. When nothing matches, it proposes a
// corrected query built from indexed name terms.
func (e *Engine) Lookup(ctx context.Context, ns models.Namespace, text string, limit int, fuzzy bool) (*LookupResult, error) {
	if e.names == nil {
		return nil, errors.New("lexical name index is not configured")
	}
	if ns.IsZero() {
		ns = e.namespace
	}
	matches, err := e.names.Search(ctx, ns, text, limit, &keyword.SearchOptions{Fuzzy: fuzzy})
	if err != nil {
		return nil, err
	}
	res := &LookupResult{Matches: matches}
	if len(matches) == 0 && e.suggester != nil {
		if corrected, changed, err := e.suggester.Correct(text); err == nil && changed {
			res.DidYouMean = corrected
		}
	}
	return res, nil
}

func (e *Engine) ensureLoaded(ctx context.Context, ns models.Namespace) error {
	e.mu.Lock()
	ok := e.loaded[ns]
	e.mu.Unlock()
	if ok {
		return nil
	}
	_, err := e.Reload(ctx, ns)
	return err
}

// Reload rebuilds the in-memory vector index and the name index for ns from
// the store. It returns the number of embedded candidates loaded.
func (e *Engine) Reload(ctx context.Context, ns models.Namespace) (int, error) {
	if ns.IsZero() {
		ns = e.namespace
	}
	unlock := e.vectors.Lock(ns)
	defer unlock()
	embedded, err := e.store.ListEmbedded(ctx, ns)
	if err != nil {
		return 0, fmt.Errorf("failed to load embeddings: %w", err)
	}
	candidates := make([]vector.Candidate, len(embedded))
	for i, rec := range embedded {
		candidates[i] = vector.Candidate{ID: rec.ID, Name: rec.Name, Embedding: rec.Embedding}
	}
	e.vectors.For(ns).Reset(candidates)
	if err := e.reloadNames(ctx, ns); err != nil {
		return 0, err
	}
	e.markLoaded(ns)
	if e.logger != nil {
		e.logger.Info("search index reloaded", zap.String("namespace", ns.String()), zap.Int("candidates", len(candidates)))
	}
	return len(candidates), nil
}

func (e *Engine) reloadNames(ctx context.Context, ns models.Namespace) error {
	if e.names == nil {
		return nil
	}
	all, err := e.store.ListNames(ctx, ns, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to load names: %w", err)
	}
	if err := e.names.Replace(ctx, ns, all); err != nil {
		return fmt.Errorf("failed to index names: %w", err)
	}
	if e.suggester != nil {
		_ = e.suggester.Refresh()
	}
	return nil
}

func (e *Engine) markLoaded(ns models.Namespace) {
	e.mu.Lock()
	e.loaded[ns] = true
	e.mu.Unlock()
}

// WarmStart fills the vector index for ns from the snapshot at path when the
// snapshot holds exactly the store's embedded IDs. Otherwise it reloads from
// the store and rewrites the snapshot. An empty path always reloads.
func (e *Engine) WarmStart(ctx context.Context, ns models.Namespace, path string) (int, error) {
	if ns.IsZero() {
		ns = e.namespace
	}
	if path == "" {
		return e.Reload(ctx, ns)
	}
	if _, err := os.Stat(path); err == nil {
		n, ok, err := e.loadSnapshot(ctx, ns, path)
		if err != nil {
			return 0, err
		}
		if ok {
			return n, nil
		}
	}
	n, err := e.Reload(ctx, ns)
	if err != nil {
		return 0, err
	}
	if err := e.vectors.For(ns).Save(path); err != nil {
		return n, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return n, nil
}

// loadSnapshot installs the snapshot at path when it matches the store's
// embedded IDs. ok is false when the snapshot is unreadable or stale.
func (e *Engine) loadSnapshot(ctx context.Context, ns models.Namespace, path string) (int, bool, error) {
	unlock := e.vectors.Lock(ns)
	defer unlock()
	want, err := e.store.EmbeddedIDs(ctx, ns)
	if err != nil {
		return 0, false, err
	}
	snap := vector.NewMemoryIndex(1)
	if err := snap.Load(path); err != nil {
		if e.logger != nil {
			e.logger.Warn("ignoring unreadable snapshot", zap.String("path", path), zap.Error(err))
		}
		return 0, false, nil
	}
	if !sameIDs(snap.IDs(), want) {
		if e.logger != nil {
			e.logger.Info("snapshot is stale, reloading", zap.String("path", path),
				zap.Int("snapshot", snap.Size()), zap.Int("store", len(want)))
		}
		return 0, false, nil
	}
	e.vectors.For(ns).Reset(snap.Candidates())
	if err := e.reloadNames(ctx, ns); err != nil {
		return 0, false, err
	}
	e.markLoaded(ns)
	if e.logger != nil {
		e.logger.Info("search index loaded from snapshot", zap.String("path", path), zap.Int("candidates", snap.Size()))
	}
	return snap.Size(), true, nil
}

// sameIDs reports whether a and b hold the same IDs, ignoring order.
func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

// SaveSnapshot writes the in-memory vector index for ns to path.
func (e *Engine) SaveSnapshot(ns models.Namespace, path string) error {
	if ns.IsZero() {
		ns = e.namespace
	}
	return e.vectors.For(ns).Save(path)
}

// Namespace returns the default namespace.
func (e *Engine) Namespace() models.Namespace {
	return e.namespace
}

// IndexedCount returns the number of candidates in the in-memory index for ns.
func (e *Engine) IndexedCount(ns models.Namespace) int {
	if ns.IsZero() {
		ns = e.namespace
	}
	return e.vectors.For(ns).Size()
}

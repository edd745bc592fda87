// Package indexer seeds name records and vectorizes them into the store and indices.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/namesim/internal/config"
	"github.com/hyperjump/namesim/internal/embedding"
	"github.com/hyperjump/namesim/internal/extract"
	"github.com/hyperjump/namesim/internal/fileid"
	"github.com/hyperjump/namesim/internal/keyword"
	"github.com/hyperjump/namesim/internal/metrics"
	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/storage"
	"github.com/hyperjump/namesim/internal/vector"
)

const defaultBatchSize = 16

// OnError values for Vectorize.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// VectorizeReport summarizes one Vectorize run.
type VectorizeReport struct {
	Pending  int           `json:"pending"`
	Embedded int           `json:"embedded"`
	Skipped  int           `json:"skipped"`
	Model    string        `json:"model"`
	Duration time.Duration `json:"duration_ns"`
}

// Indexer writes name records to the store and keeps the vector and name indices in sync.
type Indexer struct {
	store     storage.Store
	embedder  embedding.Embedder
	vectors   *vector.IndexSet
	names     keyword.NameIndex // optional
	config    *config.VectorizeConfig
	batchSize int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for seed and vectorize events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithMetrics records vectorize outcomes.
func WithMetrics(m *metrics.Metrics) IndexerOption {
	return func(idx *Indexer) { idx.metrics = m }
}

// WithBatchSize sets how many names go into one EmbedBatch call.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// NewIndexer creates an indexer. names may be nil when lexical lookup is disabled.
func NewIndexer(
	store storage.Store,
	embedder embedding.Embedder,
	vectors *vector.IndexSet,
	names keyword.NameIndex,
	cfg *config.VectorizeConfig,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		store:     store,
		embedder:  embedder,
		vectors:   vectors,
		names:     names,
		config:    cfg,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Seed inserts names into ns. Blank names are dropped; duplicates are kept.
// source is the seed-file ID, or empty for API and CLI inserts.
func (idx *Indexer) Seed(ctx context.Context, ns models.Namespace, names []string, source string) ([]*models.NameRecord, error) {
	now := time.Now().UTC()
	records := make([]*models.NameRecord, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		records = append(records, &models.NameRecord{
			ID:        uuid.New().String(),
			Name:      name,
			Source:    source,
			CreatedAt: now,
		})
	}
	if len(records) == 0 {
		return nil, nil
	}
	if err := idx.store.InsertNames(ctx, ns, records); err != nil {
		return nil, fmt.Errorf("failed to store names: %w", err)
	}
	if idx.names != nil {
		if err := idx.names.IndexBatch(ctx, ns, records); err != nil {
			return nil, fmt.Errorf("failed to index names: %w", err)
		}
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer seeded names",
			zap.String("namespace", ns.String()),
			zap.Int("count", len(records)),
			zap.String("source", source))
	}
	return records, nil
}

// SeedFile reads names from path and replaces every record previously seeded from it.
func (idx *Indexer) SeedFile(ctx context.Context, ns models.Namespace, path string) ([]*models.NameRecord, error) {
	source, err := fileid.SourceID(path)
	if err != nil {
		return nil, err
	}
	names, err := extract.ReadNames(path)
	if err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	if _, err := idx.RemoveSource(ctx, ns, source); err != nil {
		return nil, err
	}
	return idx.Seed(ctx, ns, names, source)
}

// RemoveSource deletes every record seeded from source.
func (idx *Indexer) RemoveSource(ctx context.Context, ns models.Namespace, source string) (int64, error) {
	all, err := idx.store.ListNames(ctx, ns, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list names: %w", err)
	}
	var ids []string
	for _, rec := range all {
		if rec.Source == source {
			ids = append(ids, rec.ID)
		}
	}
	n, err := idx.store.DeleteBySource(ctx, ns, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete source %s: %w", source, err)
	}
	if err := idx.forget(ctx, ns, ids); err != nil {
		return n, err
	}
	if idx.logger != nil && n > 0 {
		idx.logger.Debug("indexer removed source", zap.String("source", source), zap.Int64("count", n))
	}
	return n, nil
}

// DeleteName removes one record from the store and both indices.
func (idx *Indexer) DeleteName(ctx context.Context, ns models.Namespace, id string) error {
	if err := idx.store.DeleteName(ctx, ns, id); err != nil {
		return err
	}
	return idx.forget(ctx, ns, []string{id})
}

func (idx *Indexer) forget(ctx context.Context, ns models.Namespace, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := idx.vectors.For(ns).Remove(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete from vector index: %w", err)
	}
	if idx.names != nil {
		for _, id := range ids {
			if err := idx.names.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete from name index: %w", err)
			}
		}
	}
	return nil
}

// Vectorize embeds every record in ns that has no embedding yet. With on_error
// "skip", records the embedder cannot serve are logged and left pending; with
// "abort" the first failure stops the run. Records embedded before an abort stay
// written.
func (idx *Indexer) Vectorize(ctx context.Context, ns models.Namespace) (*VectorizeReport, error) {
	start := time.Now()
	pending, err := idx.store.ListPending(ctx, ns)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending names: %w", err)
	}
	report := &VectorizeReport{Pending: len(pending), Model: idx.embedder.Model()}
	if len(pending) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	concurrency := 1
	skip := false
	if idx.config != nil {
		if idx.config.Concurrency > 0 {
			concurrency = idx.config.Concurrency
		}
		skip = idx.config.OnError == OnErrorSkip
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for from := 0; from < len(pending); from += idx.batchSize {
		batch := pending[from:min(from+idx.batchSize, len(pending))]
		g.Go(func() error {
			embedded, skipped, err := idx.vectorizeBatch(gctx, ns, batch, skip)
			mu.Lock()
			report.Embedded += embedded
			report.Skipped += skipped
			mu.Unlock()
			return err
		})
	}
	err = g.Wait()
	report.Duration = time.Since(start)
	idx.metrics.ObserveVectorize(report.Embedded, report.Skipped)
	if idx.logger != nil {
		idx.logger.Info("vectorize finished",
			zap.String("namespace", ns.String()),
			zap.Int("pending", report.Pending),
			zap.Int("embedded", report.Embedded),
			zap.Int("skipped", report.Skipped),
			zap.Duration("duration", report.Duration),
			zap.Error(err))
	}
	return report, err
}

func (idx *Indexer) vectorizeBatch(ctx context.Context, ns models.Namespace, batch []*models.NameRecord, skip bool) (embedded, skipped int, err error) {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Name
	}
	vecs, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if !skip || !errors.Is(err, embedding.ErrEmbedderUnavailable) {
			return 0, 0, fmt.Errorf("failed to embed batch: %w", err)
		}
		// Fall back to one call per record so only the failing ones are skipped.
		vecs = make([][]float32, len(batch))
		for i, rec := range batch {
			vec, err := idx.embedder.Embed(ctx, rec.Name)
			if err != nil {
				if !errors.Is(err, embedding.ErrEmbedderUnavailable) {
					return embedded, skipped, fmt.Errorf("failed to embed %q: %w", rec.Name, err)
				}
				if idx.logger != nil {
					idx.logger.Warn("skipping record", zap.String("id", rec.ID), zap.String("name", rec.Name), zap.Error(err))
				}
				skipped++
				continue
			}
			vecs[i] = vec
		}
	}
	if len(vecs) != len(batch) {
		return 0, 0, fmt.Errorf("embedder returned %d vectors for %d names", len(vecs), len(batch))
	}

	model := idx.embedder.Model()
	candidates := make([]vector.Candidate, 0, len(batch))
	for i, rec := range batch {
		if vecs[i] == nil {
			continue
		}
		if len(vecs[i]) == 0 {
			return embedded, skipped, fmt.Errorf("embedder returned an empty vector for %q", rec.Name)
		}
		if err := idx.store.SetEmbedding(ctx, ns, rec.ID, vecs[i], model); err != nil {
			return embedded, skipped, fmt.Errorf("failed to store embedding for %s: %w", rec.ID, err)
		}
		candidates = append(candidates, vector.Candidate{ID: rec.ID, Name: rec.Name, Embedding: vecs[i]})
		embedded++
	}
	unlock := idx.vectors.Lock(ns)
	defer unlock()
	if err := idx.vectors.For(ns).Add(ctx, candidates); err != nil {
		return embedded, skipped, fmt.Errorf("failed to index vectors: %w", err)
	}
	return embedded, skipped, nil
}

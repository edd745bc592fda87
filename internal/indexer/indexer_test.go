package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hyperjump/namesim/internal/config"
	"github.com/hyperjump/namesim/internal/embedding"
	"github.com/hyperjump/namesim/internal/fileid"
	"github.com/hyperjump/namesim/internal/keyword"
	"github.com/hyperjump/namesim/internal/metrics"
	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/storage"
	"github.com/hyperjump/namesim/internal/vector"
)

var testNS = models.Namespace{Catalog: "namesim", Schema: "retail"}

type fixture struct {
	idx     *Indexer
	store   *storage.SQLiteStore
	vectors *vector.IndexSet
	names   *keyword.BleveIndex
}

func newFixture(t *testing.T, embedder embedding.Embedder, cfg *config.VectorizeConfig, opts ...IndexerOption) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if err := store.EnsureNamespace(ctx, testNS); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateNameTable(ctx, testNS, false); err != nil {
		t.Fatal(err)
	}
	names, err := keyword.NewMemBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = names.Close() })
	vectors := vector.NewIndexSet(1)
	if cfg == nil {
		cfg = &config.VectorizeConfig{Concurrency: 2, OnError: OnErrorAbort}
	}
	return &fixture{
		idx:     NewIndexer(store, embedder, vectors, names, cfg, opts...),
		store:   store,
		vectors: vectors,
		names:   names,
	}
}

// downEmbedder reports the embedder as unavailable for names containing "down".
type downEmbedder struct {
	*embedding.MockEmbedder
	calls atomic.Int32
}

func (e *downEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if strings.Contains(text, "down") {
		return nil, fmt.Errorf("503: %w", embedding.ErrEmbedderUnavailable)
	}
	return e.MockEmbedder.Embed(ctx, text)
}

func (e *downEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func TestSeed_dropsBlanksKeepsDuplicates(t *testing.T) {
	f := newFixture(t, embedding.NewMockEmbedder(8), nil)
	ctx := context.Background()

	recs, err := f.idx.Seed(ctx, testNS, []string{"Acme Stores", "  ", "Acme Stores", "Globex"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].ID == recs[1].ID {
		t.Error("duplicate names must get distinct IDs")
	}
	n, err := f.store.CountNames(ctx, testNS)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountNames = %d, want 3", n)
	}
	hits, err := f.names.Search(ctx, testNS, "globex", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("expected seeded name in the name index, got %+v", hits)
	}
}

func TestSeedFile_replacesPreviousRecords(t *testing.T) {
	f := newFixture(t, embedding.NewMockEmbedder(8), nil)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "retailers.txt")

	if err := os.WriteFile(path, []byte("Acme\nGlobex\nInitech\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := f.idx.SeedFile(ctx, testNS, path); err != nil {
		t.Fatal(err)
	}
	if _, err := f.idx.Vectorize(ctx, testNS); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("Acme\nUmbrella\n"), 0600); err != nil {
		t.Fatal(err)
	}
	recs, err := f.idx.SeedFile(ctx, testNS, path)
	if err != nil {
		t.Fatal(err)
	}
	source, _ := fileid.SourceID(path)
	for _, r := range recs {
		if r.Source != source {
			t.Errorf("record %q source = %q, want %q", r.Name, r.Source, source)
		}
	}

	all, err := f.store.ListNames(ctx, testNS, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Name != "Acme" || all[1].Name != "Umbrella" {
		t.Errorf("unexpected names after reseed: %+v", all)
	}
	if size := f.vectors.For(testNS).Size(); size != 0 {
		t.Errorf("old vectors should be dropped, index size = %d", size)
	}
	hits, err := f.names.Search(ctx, testNS, "initech", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("removed name still in name index: %+v", hits)
	}
}

func TestVectorize_embedsPendingOnly(t *testing.T) {
	m := metrics.New()
	f := newFixture(t, embedding.NewMockEmbedder(8), nil, WithBatchSize(2), WithMetrics(m))
	ctx := context.Background()
	if _, err := f.idx.Seed(ctx, testNS, []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli"}, ""); err != nil {
		t.Fatal(err)
	}

	report, err := f.idx.Vectorize(ctx, testNS)
	if err != nil {
		t.Fatal(err)
	}
	if report.Pending != 5 || report.Embedded != 5 || report.Skipped != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.Model != "mock" {
		t.Errorf("Model = %q", report.Model)
	}
	if n, _ := f.store.CountEmbedded(ctx, testNS); n != 5 {
		t.Errorf("CountEmbedded = %d, want 5", n)
	}
	if size := f.vectors.For(testNS).Size(); size != 5 {
		t.Errorf("vector index size = %d, want 5", size)
	}

	again, err := f.idx.Vectorize(ctx, testNS)
	if err != nil {
		t.Fatal(err)
	}
	if again.Pending != 0 || again.Embedded != 0 {
		t.Errorf("second run should find nothing pending: %+v", again)
	}
}

func TestVectorize_skipLeavesFailedRecordsPending(t *testing.T) {
	emb := &downEmbedder{MockEmbedder: embedding.NewMockEmbedder(8)}
	f := newFixture(t, emb, &config.VectorizeConfig{Concurrency: 1, OnError: OnErrorSkip}, WithBatchSize(4))
	ctx := context.Background()
	if _, err := f.idx.Seed(ctx, testNS, []string{"Acme", "downtown deli", "Globex"}, ""); err != nil {
		t.Fatal(err)
	}

	report, err := f.idx.Vectorize(ctx, testNS)
	if err != nil {
		t.Fatalf("skip mode should not fail: %v", err)
	}
	if report.Embedded != 2 || report.Skipped != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	pending, err := f.store.ListPending(ctx, testNS)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Name != "downtown deli" {
		t.Errorf("expected the failed record to stay pending, got %+v", pending)
	}
}

func TestVectorize_abortStopsOnUnavailable(t *testing.T) {
	emb := &downEmbedder{MockEmbedder: embedding.NewMockEmbedder(8)}
	f := newFixture(t, emb, &config.VectorizeConfig{Concurrency: 1, OnError: OnErrorAbort}, WithBatchSize(1))
	ctx := context.Background()
	if _, err := f.idx.Seed(ctx, testNS, []string{"downtown deli", "Acme"}, ""); err != nil {
		t.Fatal(err)
	}

	_, err := f.idx.Vectorize(ctx, testNS)
	if !errors.Is(err, embedding.ErrEmbedderUnavailable) {
		t.Fatalf("expected ErrEmbedderUnavailable, got %v", err)
	}
}

func TestDeleteName(t *testing.T) {
	f := newFixture(t, embedding.NewMockEmbedder(8), nil)
	ctx := context.Background()
	recs, err := f.idx.Seed(ctx, testNS, []string{"Acme", "Globex"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.idx.Vectorize(ctx, testNS); err != nil {
		t.Fatal(err)
	}
	if err := f.idx.DeleteName(ctx, testNS, recs[0].ID); err != nil {
		t.Fatal(err)
	}
	if size := f.vectors.For(testNS).Size(); size != 1 {
		t.Errorf("vector index size = %d, want 1", size)
	}
	if err := f.idx.DeleteName(ctx, testNS, recs[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

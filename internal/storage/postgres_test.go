package storage

import (
	"context"
	"os"
	"testing"

	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/vector"
)

func TestPostgresTable(t *testing.T) {
	got, err := postgresTable(models.Namespace{Catalog: "demo", Schema: "retail"})
	if err != nil {
		t.Fatal(err)
	}
	if got != `"retail"."names"` {
		t.Errorf("got %s", got)
	}
	if _, err := postgresTable(models.Namespace{Catalog: "demo", Schema: "re tail"}); err == nil {
		t.Error("expected invalid identifier error")
	}
}

func TestFloat64ArrayConversion(t *testing.T) {
	if toFloat64Array(nil) != nil {
		t.Error("nil embedding should bind as NULL")
	}
	if fromFloat64Array(nil) != nil {
		t.Error("NULL array should scan as nil embedding")
	}
}

// Runs against a live server when NAMESIM_POSTGRES_DSN is set.
func TestPostgresStore_Live(t *testing.T) {
	dsn := os.Getenv("NAMESIM_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NAMESIM_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var db string
	if err := store.db.QueryRowContext(ctx, `SELECT current_database()`).Scan(&db); err != nil {
		t.Fatal(err)
	}
	ns := models.Namespace{Catalog: db, Schema: "namesim_test"}
	if err := store.EnsureNamespace(ctx, ns); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateNameTable(ctx, ns, true); err != nil {
		t.Fatal(err)
	}
	records := []*models.NameRecord{
		{Name: "A", Embedding: []float32{1, 0}},
		{Name: "B", Embedding: []float32{0, 1}},
		{Name: "C", Embedding: []float32{0.99, 0.14}},
	}
	if err := store.InsertNames(ctx, ns, records); err != nil {
		t.Fatal(err)
	}
	results, _, err := store.SimilarTo(ctx, ns, []float32{1, 0}, 0.95, 10, vector.ScoringDot)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Name != "A" || results[1].Name != "C" {
		t.Errorf("unexpected results: %+v", results)
	}
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeBytes(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, n), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestMeasureDiskUsage_breakdown(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "namesim.db")
	bleveDir := filepath.Join(dir, "names.bleve")
	snap := filepath.Join(dir, "vectors.zst")

	writeBytes(t, db, 100)
	writeBytes(t, db+"-wal", 20)
	writeBytes(t, filepath.Join(bleveDir, "store", "root.bolt"), 7)
	writeBytes(t, filepath.Join(bleveDir, "index_meta.json"), 3)
	writeBytes(t, snap, 5)

	u, err := MeasureDiskUsage(db, bleveDir, snap)
	if err != nil {
		t.Fatal(err)
	}
	want := DiskUsage{Database: 120, NameIndex: 10, Snapshot: 5, Total: 135}
	if u != want {
		t.Errorf("got %+v, want %+v", u, want)
	}
}

func TestMeasureDiskUsage_missingAndEmptyPaths(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "namesim.db")
	writeBytes(t, db, 8)

	u, err := MeasureDiskUsage(db, "", filepath.Join(dir, "absent.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if u != (DiskUsage{Database: 8, Total: 8}) {
		t.Errorf("got %+v", u)
	}

	u, err = MeasureDiskUsage("", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if u != (DiskUsage{}) {
		t.Errorf("expected zero usage, got %+v", u)
	}
}

func TestMeasureDiskUsage_liveStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	if err := store.EnsureNamespace(ctx, testNS); err != nil {
		t.Fatal(err)
	}

	u, err := MeasureDiskUsage(path, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if u.Database == 0 || u.Total != u.Database {
		t.Errorf("expected a non-empty database, got %+v", u)
	}
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/sqlfunc"
	"github.com/hyperjump/namesim/internal/vector"
)

// Option configures a store.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// SQLiteStore implements Store using SQLite. A namespace maps to the table
// "<catalog>__<schema>__names"; provisioned namespaces are recorded in the
// namespaces table.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens or creates a SQLite database at dbPath with the vector
// SQL functions registered. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		// Concurrent vectorize workers write through separate pool connections.
		dsn += "?_busy_timeout=5000"
	}
	db, err := sqlfunc.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS namespaces (
		catalog TEXT NOT NULL,
		schema TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (catalog, schema)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: o.logger}, nil
}

func sqliteTable(ns models.Namespace) (string, error) {
	if err := ValidateNamespace(ns); err != nil {
		return "", err
	}
	return quoteIdent(ns.Catalog + tableSeparator + ns.Schema + "__names"), nil
}

// wrapTableErr maps a missing table to ErrNotFound.
func wrapTableErr(ns models.Namespace, err error) error {
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("name table for %s: %w", ns, ErrNotFound)
	}
	return err
}

// EnsureNamespace records ns as provisioned.
func (s *SQLiteStore) EnsureNamespace(ctx context.Context, ns models.Namespace) error {
	if err := ValidateNamespace(ns); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO namespaces (catalog, schema, created_at) VALUES (?, ?, ?)`,
		ns.Catalog, ns.Schema, time.Now(),
	)
	return err
}

// CreateNameTable creates the name table for ns. With replace, an existing
// table and its rows are dropped first.
func (s *SQLiteStore) CreateNameTable(ctx context.Context, ns models.Namespace, replace bool) error {
	table, err := sqliteTable(ns)
	if err != nil {
		return err
	}
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM namespaces WHERE catalog = ? AND schema = ?`, ns.Catalog, ns.Schema,
	).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("namespace %s: %w", ns, ErrNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return fmt.Errorf("failed to drop name table: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		embedding BLOB,
		model TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		embedded_at TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create name table: %w", err)
	}
	index := quoteIdent(ns.Catalog + tableSeparator + ns.Schema + "__names_source")
	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS `+index+` ON `+table+`(source)`); err != nil {
		return fmt.Errorf("failed to create source index: %w", err)
	}
	return tx.Commit()
}

// InsertNames inserts records in one transaction. Missing IDs are generated
// and CreatedAt is set on every record.
func (s *SQLiteStore) InsertNames(ctx context.Context, ns models.Namespace, records []*models.NameRecord) error {
	table, err := sqliteTable(ns)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+table+` (id, name, source, embedding, model, created_at, embedded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return wrapTableErr(ns, err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		r.CreatedAt = now
		var blob, embeddedAt interface{}
		if len(r.Embedding) > 0 {
			blob = vector.EncodeEmbedding(r.Embedding)
		}
		if r.EmbeddedAt != nil {
			embeddedAt = *r.EmbeddedAt
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Source, blob, r.Model, r.CreatedAt, embeddedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const recordColumns = `id, name, source, embedding, model, created_at, embedded_at`

func (s *SQLiteStore) queryRecords(ctx context.Context, ns models.Namespace, query string, args ...interface{}) ([]*models.NameRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapTableErr(ns, err)
	}
	defer rows.Close()

	var records []*models.NameRecord
	for rows.Next() {
		var r models.NameRecord
		var blob []byte
		var embeddedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Name, &r.Source, &blob, &r.Model, &r.CreatedAt, &embeddedAt); err != nil {
			return nil, err
		}
		if r.Embedding, err = vector.DecodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		if embeddedAt.Valid {
			t := embeddedAt.Time
			r.EmbeddedAt = &t
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// ListNames returns records in insertion order with offset and limit.
func (s *SQLiteStore) ListNames(ctx context.Context, ns models.Namespace, offset, limit int) ([]*models.NameRecord, error) {
	table, err := sqliteTable(ns)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	return s.queryRecords(ctx, ns,
		`SELECT `+recordColumns+` FROM `+table+` ORDER BY rowid LIMIT ? OFFSET ?`, limit, offset)
}

// ListPending returns records that have not been vectorized.
func (s *SQLiteStore) ListPending(ctx context.Context, ns models.Namespace) ([]*models.NameRecord, error) {
	table, err := sqliteTable(ns)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, ns,
		`SELECT `+recordColumns+` FROM `+table+` WHERE embedding IS NULL ORDER BY rowid`)
}

// ListEmbedded returns records that carry an embedding.
func (s *SQLiteStore) ListEmbedded(ctx context.Context, ns models.Namespace) ([]*models.NameRecord, error) {
	table, err := sqliteTable(ns)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, ns,
		`SELECT `+recordColumns+` FROM `+table+` WHERE embedding IS NOT NULL ORDER BY rowid`)
}

// EmbeddedIDs returns the IDs of vectorized records without reading embeddings.
func (s *SQLiteStore) EmbeddedIDs(ctx context.Context, ns models.Namespace) ([]string, error) {
	table, err := sqliteTable(ns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM `+table+` WHERE embedding IS NOT NULL ORDER BY rowid`)
	if err != nil {
		return nil, wrapTableErr(ns, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetEmbedding attaches an embedding to a record.
func (s *SQLiteStore) SetEmbedding(ctx context.Context, ns models.Namespace, id string, embedding []float32, model string) error {
	table, err := sqliteTable(ns)
	if err != nil {
		return err
	}
	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding for record %s", id)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET embedding = ?, model = ?, embedded_at = ? WHERE id = ?`,
		vector.EncodeEmbedding(embedding), model, time.Now(), id,
	)
	if err != nil {
		return wrapTableErr(ns, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteBySource removes every record seeded from source.
func (s *SQLiteStore) DeleteBySource(ctx context.Context, ns models.Namespace, source string) (int64, error) {
	table, err := sqliteTable(ns)
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE source = ?`, source)
	if err != nil {
		return 0, wrapTableErr(ns, err)
	}
	return result.RowsAffected()
}

// DeleteName removes a record by ID.
func (s *SQLiteStore) DeleteName(ctx context.Context, ns models.Namespace, id string) error {
	table, err := sqliteTable(ns)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return wrapTableErr(ns, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountNames returns the total number of records.
func (s *SQLiteStore) CountNames(ctx context.Context, ns models.Namespace) (int64, error) {
	return s.count(ctx, ns, "")
}

// CountEmbedded returns the number of vectorized records.
func (s *SQLiteStore) CountEmbedded(ctx context.Context, ns models.Namespace) (int64, error) {
	return s.count(ctx, ns, " WHERE embedding IS NOT NULL")
}

func (s *SQLiteStore) count(ctx context.Context, ns models.Namespace, where string) (int64, error) {
	table, err := sqliteTable(ns)
	if err != nil {
		return 0, err
	}
	var count int64
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+where).Scan(&count)
	return count, wrapTableErr(ns, err)
}

// SimilarTo runs the threshold scan in SQL with the registered vector
// functions. Rows whose dimension differs from the query (or whose norm is
// zero under cosine scoring) are excluded and counted as skipped.
func (s *SQLiteStore) SimilarTo(ctx context.Context, ns models.Namespace, query []float32, threshold float64, limit int, scoring vector.Scoring) ([]models.SimilarityResult, int, error) {
	table, err := sqliteTable(ns)
	if err != nil {
		return nil, 0, err
	}
	if len(query) == 0 {
		return nil, 0, fmt.Errorf("query vector is empty")
	}
	scoreFn := "dot_product"
	eligible := `embedding IS NOT NULL AND vector_dims(embedding) = ?`
	if scoring == vector.ScoringCosine {
		if vector.Norm2(query) == 0 {
			return nil, 0, fmt.Errorf("query: %w", vector.ErrZeroVector)
		}
		scoreFn = "cosine_similarity"
		eligible += ` AND vector_norm(embedding) > 0`
	}
	if limit <= 0 {
		limit = -1
	}
	blob := vector.EncodeEmbedding(query)
	dims := len(query)

	var skipped int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE embedding IS NOT NULL AND NOT (`+eligible+`)`, dims,
	).Scan(&skipped); err != nil {
		return nil, 0, wrapTableErr(ns, err)
	}
	if skipped > 0 && s.logger != nil {
		s.logger.Warn("skipping rows with mismatched embeddings",
			zap.String("namespace", ns.String()),
			zap.Int("skipped", skipped),
			zap.Int("query_dimensions", dims),
		)
	}

	// CASE keeps the scoring function off ineligible rows so a mismatched
	// dimension never aborts the query.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score FROM (
			SELECT rowid AS pos, id, name,
				CASE WHEN `+eligible+` THEN `+scoreFn+`(embedding, ?) END AS score
			FROM `+table+`
		) WHERE score > ? ORDER BY score DESC, pos ASC LIMIT ?`,
		dims, blob, threshold, limit,
	)
	if err != nil {
		return nil, 0, wrapTableErr(ns, err)
	}
	defer rows.Close()

	var results []models.SimilarityResult
	for rows.Next() {
		var r models.SimilarityResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Score); err != nil {
			return nil, 0, err
		}
		results = append(results, r)
	}
	return results, skipped, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

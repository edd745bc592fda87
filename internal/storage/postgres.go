package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/vector"
)

// pqUndefinedTable is the SQLSTATE for a missing relation.
const pqUndefinedTable = "42P01"

// PostgresStore implements Store on PostgreSQL. The catalog of a namespace is
// the database itself; the schema holds a "names" table with a REAL[] embedding.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db, logger: o.logger}, nil
}

func postgresTable(ns models.Namespace) (string, error) {
	if err := ValidateNamespace(ns); err != nil {
		return "", err
	}
	return pq.QuoteIdentifier(ns.Schema) + `.` + pq.QuoteIdentifier("names"), nil
}

func wrapPQErr(ns models.Namespace, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable {
		return fmt.Errorf("name table for %s: %w", ns, ErrNotFound)
	}
	return err
}

// EnsureNamespace creates the schema. The catalog must name the connected database.
func (s *PostgresStore) EnsureNamespace(ctx context.Context, ns models.Namespace) error {
	if err := ValidateNamespace(ns); err != nil {
		return err
	}
	var current string
	if err := s.db.QueryRowContext(ctx, `SELECT current_database()`).Scan(&current); err != nil {
		return err
	}
	if current != ns.Catalog {
		return fmt.Errorf("catalog %q is not the connected database %q", ns.Catalog, current)
	}
	_, err := s.db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+pq.QuoteIdentifier(ns.Schema))
	return err
}

// CreateNameTable creates the names table in the namespace schema. With
// replace, an existing table is dropped first.
func (s *PostgresStore) CreateNameTable(ctx context.Context, ns models.Namespace, replace bool) error {
	table, err := postgresTable(ns)
	if err != nil {
		return err
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE catalog_name = $1 AND schema_name = $2)`,
		ns.Catalog, ns.Schema,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
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
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		embedding REAL[],
		model TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		embedded_at TIMESTAMPTZ
	)`); err != nil {
		return fmt.Errorf("failed to create name table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS names_source_idx ON `+table+` (source)`); err != nil {
		return fmt.Errorf("failed to create source index: %w", err)
	}
	return tx.Commit()
}

func toFloat64Array(v []float32) interface{} {
	if len(v) == 0 {
		return nil
	}
	out := make(pq.Float64Array, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func fromFloat64Array(a pq.Float64Array) []float32 {
	if a == nil {
		return nil
	}
	out := make([]float32, len(a))
	for i, x := range a {
		out[i] = float32(x)
	}
	return out
}

// InsertNames inserts records in one transaction.
func (s *PostgresStore) InsertNames(ctx context.Context, ns models.Namespace, records []*models.NameRecord) error {
	table, err := postgresTable(ns)
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
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	)
	if err != nil {
		return wrapPQErr(ns, err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		r.CreatedAt = now
		if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Source, toFloat64Array(r.Embedding), r.Model, r.CreatedAt, r.EmbeddedAt); err != nil {
			return wrapPQErr(ns, err)
		}
	}
	return tx.Commit()
}

const pgRecordColumns = `id, name, source, embedding, model, created_at, embedded_at`

func (s *PostgresStore) queryRecords(ctx context.Context, ns models.Namespace, query string, args ...interface{}) ([]*models.NameRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapPQErr(ns, err)
	}
	defer rows.Close()

	var records []*models.NameRecord
	for rows.Next() {
		var r models.NameRecord
		var emb pq.Float64Array
		var embeddedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Name, &r.Source, &emb, &r.Model, &r.CreatedAt, &embeddedAt); err != nil {
			return nil, err
		}
		r.Embedding = fromFloat64Array(emb)
		if embeddedAt.Valid {
			t := embeddedAt.Time
			r.EmbeddedAt = &t
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// ListNames returns records in insertion order with offset and limit.
func (s *PostgresStore) ListNames(ctx context.Context, ns models.Namespace, offset, limit int) ([]*models.NameRecord, error) {
	table, err := postgresTable(ns)
	if err != nil {
		return nil, err
	}
	var lim interface{}
	if limit > 0 {
		lim = limit
	}
	return s.queryRecords(ctx, ns,
		`SELECT `+pgRecordColumns+` FROM `+table+` ORDER BY seq LIMIT $1 OFFSET $2`, lim, offset)
}

// ListPending returns records that have not been vectorized.
func (s *PostgresStore) ListPending(ctx context.Context, ns models.Namespace) ([]*models.NameRecord, error) {
	table, err := postgresTable(ns)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, ns,
		`SELECT `+pgRecordColumns+` FROM `+table+` WHERE embedding IS NULL ORDER BY seq`)
}

// ListEmbedded returns records that carry an embedding.
func (s *PostgresStore) ListEmbedded(ctx context.Context, ns models.Namespace) ([]*models.NameRecord, error) {
	table, err := postgresTable(ns)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, ns,
		`SELECT `+pgRecordColumns+` FROM `+table+` WHERE embedding IS NOT NULL ORDER BY seq`)
}

// EmbeddedIDs returns the IDs of vectorized records without reading embeddings.
func (s *PostgresStore) EmbeddedIDs(ctx context.Context, ns models.Namespace) ([]string, error) {
	table, err := postgresTable(ns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM `+table+` WHERE embedding IS NOT NULL ORDER BY seq`)
	if err != nil {
		return nil, wrapPQErr(ns, err)
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
func (s *PostgresStore) SetEmbedding(ctx context.Context, ns models.Namespace, id string, embedding []float32, model string) error {
	table, err := postgresTable(ns)
	if err != nil {
		return err
	}
	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding for record %s", id)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET embedding = $1, model = $2, embedded_at = $3 WHERE id = $4`,
		toFloat64Array(embedding), model, time.Now(), id,
	)
	if err != nil {
		return wrapPQErr(ns, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteBySource removes every record seeded from source.
func (s *PostgresStore) DeleteBySource(ctx context.Context, ns models.Namespace, source string) (int64, error) {
	table, err := postgresTable(ns)
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE source = $1`, source)
	if err != nil {
		return 0, wrapPQErr(ns, err)
	}
	return result.RowsAffected()
}

// DeleteName removes a record by ID.
func (s *PostgresStore) DeleteName(ctx context.Context, ns models.Namespace, id string) error {
	table, err := postgresTable(ns)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return wrapPQErr(ns, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountNames returns the total number of records.
func (s *PostgresStore) CountNames(ctx context.Context, ns models.Namespace) (int64, error) {
	return s.count(ctx, ns, "")
}

// CountEmbedded returns the number of vectorized records.
func (s *PostgresStore) CountEmbedded(ctx context.Context, ns models.Namespace) (int64, error) {
	return s.count(ctx, ns, " WHERE embedding IS NOT NULL")
}

func (s *PostgresStore) count(ctx context.Context, ns models.Namespace, where string) (int64, error) {
	table, err := postgresTable(ns)
	if err != nil {
		return 0, err
	}
	var count int64
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+where).Scan(&count)
	return count, wrapPQErr(ns, err)
}

// SimilarTo loads the embedded rows and runs the threshold scan in process.
func (s *PostgresStore) SimilarTo(ctx context.Context, ns models.Namespace, query []float32, threshold float64, limit int, scoring vector.Scoring) ([]models.SimilarityResult, int, error) {
	records, err := s.ListEmbedded(ctx, ns)
	if err != nil {
		return nil, 0, err
	}
	candidates := make([]vector.Candidate, len(records))
	for i, r := range records {
		candidates[i] = vector.Candidate{ID: r.ID, Name: r.Name, Embedding: r.Embedding}
	}
	var skipped int
	results, err := vector.Search(query, candidates, threshold,
		vector.WithScoring(scoring),
		vector.WithLimit(limit),
		vector.WithLogger(s.logger),
		vector.WithSkipCounter(&skipped),
	)
	if err != nil {
		return nil, 0, err
	}
	return results, skipped, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

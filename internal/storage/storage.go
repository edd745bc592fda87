// Package storage defines the persistence interface for the name lookup table.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/namesim/internal/models"
	"github.com/hyperjump/namesim/internal/vector"
)

var (
	// ErrNotFound is returned when a record or namespace does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidIdentifier is returned for catalog, schema or table names that are not plain identifiers.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

const tableSeparator = "__"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store persists name records. Every call is scoped by a namespace.
type Store interface {
	// Namespace operations
	EnsureNamespace(ctx context.Context, ns models.Namespace) error
	CreateNameTable(ctx context.Context, ns models.Namespace, replace bool) error

	// Record operations
	InsertNames(ctx context.Context, ns models.Namespace, records []*models.NameRecord) error
	ListNames(ctx context.Context, ns models.Namespace, offset, limit int) ([]*models.NameRecord, error)
	ListPending(ctx context.Context, ns models.Namespace) ([]*models.NameRecord, error)
	ListEmbedded(ctx context.Context, ns models.Namespace) ([]*models.NameRecord, error)
	EmbeddedIDs(ctx context.Context, ns models.Namespace) ([]string, error)
	SetEmbedding(ctx context.Context, ns models.Namespace, id string, embedding []float32, model string) error
	DeleteBySource(ctx context.Context, ns models.Namespace, source string) (int64, error)
	DeleteName(ctx context.Context, ns models.Namespace, id string) error

	// Stats
	CountNames(ctx context.Context, ns models.Namespace) (int64, error)
	CountEmbedded(ctx context.Context, ns models.Namespace) (int64, error)

	// SimilarTo runs the threshold scan inside the store. It returns the matches
	// and the number of embedded rows skipped for a dimension mismatch.
	SimilarTo(ctx context.Context, ns models.Namespace, query []float32, threshold float64, limit int, scoring vector.Scoring) ([]models.SimilarityResult, int, error)

	Close() error
}

// ValidateIdentifier rejects anything that is not a plain SQL identifier.
func ValidateIdentifier(kind, s string) error {
	if !identPattern.MatchString(s) {
		return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, kind, s)
	}
	return nil
}

// ValidateNamespace checks both parts of ns. Physical table names join the
// parts with "__", so a part may neither contain that separator nor start or
// end with an underscore; otherwise {a_, b} and {a, _b} would share a table.
func ValidateNamespace(ns models.Namespace) error {
	for _, part := range []struct{ kind, value string }{
		{"catalog", ns.Catalog},
		{"schema", ns.Schema},
	} {
		if err := ValidateIdentifier(part.kind, part.value); err != nil {
			return err
		}
		if strings.Contains(part.value, tableSeparator) ||
			strings.HasPrefix(part.value, "_") || strings.HasSuffix(part.value, "_") {
			return fmt.Errorf("%w: %s %q must not contain %q or start or end with '_'", ErrInvalidIdentifier, part.kind, part.value, tableSeparator)
		}
	}
	return nil
}

// quoteIdent double-quotes an identifier. Callers validate first.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Open returns a Store for driver ("sqlite" or "postgres"). For sqlite, dsn is the database path.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case "", "sqlite", "sqlite3":
		return NewSQLiteStore(dsn, opts...)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, dsn, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %q (supported: sqlite, postgres)", driver)
	}
}

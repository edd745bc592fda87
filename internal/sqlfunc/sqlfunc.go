// Package sqlfunc registers a SQLite driver that exposes the similarity
// primitives as SQL scalar functions.
//
//	dot_product(a BLOB, b BLOB) REAL
//	vector_norm(v BLOB [, order REAL]) REAL
//	cosine_similarity(a BLOB, b BLOB) REAL
//	vector_dims(v BLOB) INTEGER
//
// Embeddings are little-endian float32 BLOBs (vector.EncodeEmbedding). A NULL
// argument yields NULL.
package sqlfunc

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/namesim/internal/vector"
)

// DriverName is the database/sql driver name to pass to sql.Open.
const DriverName = "sqlite3_namesim"

var registerOnce sync.Once

// Register installs the driver. It is safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{ConnectHook: registerFunctions})
	})
}

// Open registers the driver and opens dsn with it.
func Open(dsn string) (*sql.DB, error) {
	Register()
	return sql.Open(DriverName, dsn)
}

func registerFunctions(conn *sqlite3.SQLiteConn) error {
	funcs := []struct {
		name string
		impl interface{}
	}{
		{"dot_product", dotProduct},
		{"vector_norm", vectorNorm},
		{"cosine_similarity", cosineSimilarity},
		{"vector_dims", vectorDims},
	}
	for _, f := range funcs {
		if err := conn.RegisterFunc(f.name, f.impl, true); err != nil {
			return fmt.Errorf("register %s: %w", f.name, err)
		}
	}
	return nil
}

func asEmbedding(fn string, arg interface{}) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T; want BLOB", fn, arg)
	}
}

func asEmbeddingPair(fn string, a, b interface{}) ([]float32, []float32, bool, error) {
	va, err := asEmbedding(fn, a)
	if err != nil {
		return nil, nil, false, err
	}
	vb, err := asEmbedding(fn, b)
	if err != nil {
		return nil, nil, false, err
	}
	if a == nil || b == nil {
		return nil, nil, false, nil
	}
	return va, vb, true, nil
}

func dotProduct(a, b interface{}) (interface{}, error) {
	va, vb, ok, err := asEmbeddingPair("dot_product", a, b)
	if err != nil || !ok {
		return nil, err
	}
	d, err := vector.DotProduct(va, vb)
	if err != nil {
		return nil, fmt.Errorf("dot_product: %w", err)
	}
	return d, nil
}

func cosineSimilarity(a, b interface{}) (interface{}, error) {
	va, vb, ok, err := asEmbeddingPair("cosine_similarity", a, b)
	if err != nil || !ok {
		return nil, err
	}
	c, err := vector.CosineSimilarity(va, vb)
	if err != nil {
		return nil, fmt.Errorf("cosine_similarity: %w", err)
	}
	return c, nil
}

func vectorNorm(args ...interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("vector_norm: expected 1 or 2 arguments, got %d", len(args))
	}
	order := 2.0
	if len(args) == 2 {
		switch o := args[1].(type) {
		case nil:
			return nil, nil
		case int64:
			order = float64(o)
		case float64:
			order = o
		default:
			return nil, fmt.Errorf("vector_norm: unsupported order type %T", args[1])
		}
	}
	if args[0] == nil {
		return nil, nil
	}
	v, err := asEmbedding("vector_norm", args[0])
	if err != nil {
		return nil, err
	}
	n, err := vector.VectorNorm(v, order)
	if err != nil {
		return nil, fmt.Errorf("vector_norm: %w", err)
	}
	return n, nil
}

func vectorDims(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("vector_dims: unsupported argument type %T; want BLOB", v)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector_dims: invalid embedding blob length %d", len(b))
	}
	return int64(len(b) / 4), nil
}

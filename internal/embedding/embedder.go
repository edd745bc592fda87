// Package embedding turns names into vectors through a hosted endpoint, a local
// ONNX model or a deterministic mock, with caching and resilience decorators.
package embedding

import (
	"context"
	"errors"
)

// ErrEmbedderUnavailable marks transient failures (transport errors, timeouts,
// throttling, open circuit). Only these are retried.
var ErrEmbedderUnavailable = errors.New("embedder unavailable")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the model that produced the vectors.
	Model() string
	Dimensions() int
	Close() error
}

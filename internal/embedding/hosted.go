package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

// HostedConfig configures a HostedEmbedder.
type HostedConfig struct {
	// BaseURL is the root of an OpenAI-compatible serving endpoint; the client
	// posts to BaseURL + "/embeddings".
	BaseURL string
	// Model is the serving endpoint or model name, e.g. databricks-gte-large-en.
	Model string
	Token string
	// Dimensions is the expected vector length; 0 accepts whatever the first response returns.
	Dimensions int
	BatchSize  int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// HostedEmbedder calls a hosted embeddings endpoint. It does not retry;
// wrap it in a ResilientEmbedder for retries and rate limiting.
type HostedEmbedder struct {
	client     openai.Client
	model      string
	batchSize  int
	dimensions atomic.Int64
	logger     *zap.Logger
}

// NewHostedEmbedder returns an embedder backed by the endpoint in cfg.
func NewHostedEmbedder(cfg HostedConfig) (*HostedEmbedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("hosted embedder: model is required")
	}
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.Token != "" {
		opts = append(opts, option.WithAPIKey(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	e := &HostedEmbedder{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}
	e.dimensions.Store(int64(cfg.Dimensions))
	return e, nil
}

// Embed returns the embedding for a single text.
func (e *HostedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in requests of at most BatchSize inputs. The output
// is index-aligned with texts.
func (e *HostedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.request(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *HostedEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vecs := make([][]float32, len(data))
	for i, d := range data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding for input %d", i)
		}
		if err := e.checkDimensions(len(d.Embedding)); err != nil {
			return nil, err
		}
		v := make([]float32, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		vecs[i] = v
	}
	return vecs, nil
}

func (e *HostedEmbedder) checkDimensions(n int) error {
	if e.dimensions.CompareAndSwap(0, int64(n)) {
		if e.logger != nil {
			e.logger.Info("embedding dimensions detected", zap.String("model", e.model), zap.Int("dimensions", n))
		}
		return nil
	}
	if want := int(e.dimensions.Load()); want != n {
		return fmt.Errorf("embedding has %d dimensions, expected %d", n, want)
	}
	return nil
}

// classifyError wraps transient failures in ErrEmbedderUnavailable. Client
// errors other than throttling are returned as permanent.
func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d: %v", ErrEmbedderUnavailable, apiErr.StatusCode, err)
		}
		return fmt.Errorf("embeddings request rejected: %w", err)
	}
	return fmt.Errorf("%w: %v", ErrEmbedderUnavailable, err)
}

// Model returns the configured model name.
func (e *HostedEmbedder) Model() string {
	return e.model
}

// Dimensions returns the vector length, or 0 before the first response when not configured.
func (e *HostedEmbedder) Dimensions() int {
	return int(e.dimensions.Load())
}

// Close is a no-op; the HTTP client is shared.
func (e *HostedEmbedder) Close() error {
	return nil
}

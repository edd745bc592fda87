package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// fakeEndpoint answers embeddings requests with [len(text), index+1, 0...] vectors.
func fakeEndpoint(t *testing.T, dims int, reverse bool, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]interface{}, 0, len(req.Input))
		for i, text := range req.Input {
			v := make([]float64, dims)
			v[0] = float64(len(text))
			if dims > 1 {
				v[1] = float64(i + 1)
			}
			data = append(data, map[string]interface{}{"object": "embedding", "index": i, "embedding": v})
		}
		if reverse {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func newTestHosted(t *testing.T, url string, dims, batch int) *HostedEmbedder {
	t.Helper()
	e, err := NewHostedEmbedder(HostedConfig{
		BaseURL:    url,
		Model:      "databricks-gte-large-en",
		Token:      "test-token",
		Dimensions: dims,
		BatchSize:  batch,
	})
	require.NoError(t, err)
	return e
}

func TestHostedEmbedder_EmbedBatch(t *testing.T) {
	var calls int32
	srv := fakeEndpoint(t, 3, true, &calls)
	defer srv.Close()

	e := newTestHosted(t, srv.URL, 3, 2)
	out, err := e.EmbedBatch(context.Background(), []string{"Target", "Walmart", "Aldi"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "3 inputs at batch size 2 take 2 requests")
	assert.Equal(t, []float32{6, 1, 0}, out[0])
	assert.Equal(t, []float32{7, 2, 0}, out[1])
	assert.Equal(t, []float32{4, 1, 0}, out[2])
	assert.Equal(t, "databricks-gte-large-en", e.Model())
}

func TestHostedEmbedder_DetectsDimensions(t *testing.T) {
	var calls int32
	srv := fakeEndpoint(t, 5, false, &calls)
	defer srv.Close()

	e := newTestHosted(t, srv.URL, 0, 8)
	assert.Equal(t, 0, e.Dimensions())
	v, err := e.Embed(context.Background(), "Costco")
	require.NoError(t, err)
	assert.Len(t, v, 5)
	assert.Equal(t, 5, e.Dimensions())
}

func TestHostedEmbedder_DimensionMismatch(t *testing.T) {
	var calls int32
	srv := fakeEndpoint(t, 4, false, &calls)
	defer srv.Close()

	e := newTestHosted(t, srv.URL, 1024, 8)
	_, err := e.Embed(context.Background(), "Costco")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1024")
}

func TestHostedEmbedder_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
	}{
		{"ServerError", http.StatusInternalServerError, true},
		{"Throttled", http.StatusTooManyRequests, true},
		{"BadRequest", http.StatusBadRequest, false},
		{"Unauthorized", http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"test"}}`))
			}))
			defer srv.Close()

			e := newTestHosted(t, srv.URL, 0, 8)
			_, err := e.Embed(context.Background(), "Target")
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.Is(err, ErrEmbedderUnavailable))
		})
	}
}

func TestHostedEmbedder_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e := newTestHosted(t, url, 0, 8)
	_, err := e.Embed(context.Background(), "Target")
	assert.ErrorIs(t, err, ErrEmbedderUnavailable)
}

func TestHostedEmbedder_ShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"m"}`))
	}))
	defer srv.Close()

	e := newTestHosted(t, srv.URL, 0, 8)
	_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmbedderUnavailable))
}

func TestNewHostedEmbedder_RequiresModel(t *testing.T) {
	_, err := NewHostedEmbedder(HostedConfig{})
	assert.Error(t, err)
}

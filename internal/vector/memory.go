package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hyperjump/namesim/internal/models"
)

// MemoryIndex is an in-memory candidate set searched by linear scan.
// Insertion order is preserved so ties resolve the same way on every search.
type MemoryIndex struct {
	candidates []Candidate
	workers    int
	mu         sync.RWMutex
}

// NewMemoryIndex creates an empty index. workers <= 1 scans on the calling goroutine.
func NewMemoryIndex(workers int) *MemoryIndex {
	return &MemoryIndex{workers: workers}
}

// Add appends candidates. A candidate whose ID is already present replaces the
// existing entry in place. Embeddings are copied; dimensions are not checked
// here because Search skips mismatched candidates.
func (m *MemoryIndex) Add(ctx context.Context, candidates []Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos := make(map[string]int, len(m.candidates))
	for i, c := range m.candidates {
		pos[c.ID] = i
	}
	for _, c := range candidates {
		if c.ID == "" {
			return fmt.Errorf("candidate %q has no id", c.Name)
		}
		vec := make([]float32, len(c.Embedding))
		copy(vec, c.Embedding)
		cand := Candidate{ID: c.ID, Name: c.Name, Embedding: vec}
		if i, ok := pos[c.ID]; ok {
			m.candidates[i] = cand
			continue
		}
		pos[c.ID] = len(m.candidates)
		m.candidates = append(m.candidates, cand)
	}
	return nil
}

// Search runs Search over a snapshot of the candidates.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, threshold float64, opts ...SearchOption) ([]models.SimilarityResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := append([]SearchOption{WithWorkers(m.workers)}, opts...)
	return Search(query, m.candidates, threshold, all...)
}

// Remove drops candidates by ID.
func (m *MemoryIndex) Remove(ctx context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.candidates[:0]
	for _, c := range m.candidates {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	m.candidates = kept
	return nil
}

// Reset replaces the contents with candidates.
func (m *MemoryIndex) Reset(candidates []Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = append([]Candidate(nil), candidates...)
}

// Candidates returns a copy of the candidate list in insertion order.
func (m *MemoryIndex) Candidates() []Candidate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Candidate(nil), m.candidates...)
}

// Save writes a zstd-compressed snapshot to path. Layout per candidate:
// idLen, id, nameLen, name, dim, dim*float32, all little-endian; preceded by the count.
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := binary.Write(enc, binary.LittleEndian, uint32(len(m.candidates))); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write count: %w", err)
	}
	for _, c := range m.candidates {
		if err := writeString(enc, c.ID); err != nil {
			_ = enc.Close()
			return fmt.Errorf("write id: %w", err)
		}
		if err := writeString(enc, c.Name); err != nil {
			_ = enc.Close()
			return fmt.Errorf("write name: %w", err)
		}
		if err := binary.Write(enc, binary.LittleEndian, uint32(len(c.Embedding))); err != nil {
			_ = enc.Close()
			return fmt.Errorf("write dim: %w", err)
		}
		if _, err := enc.Write(EncodeEmbedding(c.Embedding)); err != nil {
			_ = enc.Close()
			return fmt.Errorf("write vector: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// Snapshot field limits. Load rejects anything larger instead of allocating it.
const (
	maxSnapshotCandidates = 1 << 26
	maxSnapshotDims       = 1 << 16
	maxSnapshotString     = 1 << 16
	loadPrealloc          = 1 << 12
)

// Load replaces the contents with the snapshot at path. A missing file is not
// an error; a corrupt one is, and leaves the index unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var n uint32
	if err := binary.Read(dec, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	if n > maxSnapshotCandidates {
		return fmt.Errorf("snapshot claims %d candidates, limit is %d", n, maxSnapshotCandidates)
	}
	loaded := make([]Candidate, 0, min(int(n), loadPrealloc))
	for i := uint32(0); i < n; i++ {
		id, err := readString(dec)
		if err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		name, err := readString(dec)
		if err != nil {
			return fmt.Errorf("read name: %w", err)
		}
		var dim uint32
		if err := binary.Read(dec, binary.LittleEndian, &dim); err != nil {
			return fmt.Errorf("read dim: %w", err)
		}
		if dim > maxSnapshotDims {
			return fmt.Errorf("candidate %q claims %d dimensions, limit is %d", id, dim, maxSnapshotDims)
		}
		buf := make([]byte, int(dim)*4)
		if _, err := io.ReadFull(dec, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		vec, err := DecodeEmbedding(buf)
		if err != nil {
			return err
		}
		loaded = append(loaded, Candidate{ID: id, Name: name, Embedding: vec})
	}
	m.Reset(loaded)
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxSnapshotString {
		return "", fmt.Errorf("string length %d exceeds %d", n, maxSnapshotString)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// IDs returns candidate IDs in insertion order.
func (m *MemoryIndex) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.candidates))
	for i, c := range m.candidates {
		ids[i] = c.ID
	}
	return ids
}

// Size returns the number of candidates.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.candidates)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

package vector

import (
	"sync"

	"github.com/hyperjump/namesim/internal/models"
)

// IndexSet holds one Index per namespace.
type IndexSet struct {
	workers int
	mu      sync.Mutex
	indexes map[models.Namespace]Index
	writers map[models.Namespace]*sync.Mutex
}

// NewIndexSet creates an empty set whose indexes scan with workers goroutines.
func NewIndexSet(workers int) *IndexSet {
	return &IndexSet{
		workers: workers,
		indexes: make(map[models.Namespace]Index),
		writers: make(map[models.Namespace]*sync.Mutex),
	}
}

// For returns the index for ns, creating an empty one on first use.
func (s *IndexSet) For(ns models.Namespace) Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[ns]
	if !ok {
		idx = NewMemoryIndex(s.workers)
		s.indexes[ns] = idx
	}
	return idx
}

// Lock takes the writer lock for ns and returns its release func. Rebuilds
// that read the store and then Reset the index hold it across both steps so
// a concurrent Add cannot land in between and be discarded.
func (s *IndexSet) Lock(ns models.Namespace) func() {
	s.mu.Lock()
	w, ok := s.writers[ns]
	if !ok {
		w = &sync.Mutex{}
		s.writers[ns] = w
	}
	s.mu.Unlock()
	w.Lock()
	return w.Unlock
}

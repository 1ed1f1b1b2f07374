package catalog

import (
	"context"
	"sync"
)

// MemStore keeps the catalog in process memory. It backs tests and dry
// runs where nothing should touch the filesystem.
type MemStore struct {
	mu  sync.RWMutex
	cat *Catalog
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{cat: New()}
}

// Load returns a deep copy so callers can mutate freely.
func (s *MemStore) Load(ctx context.Context) (*Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat.Clone(), nil
}

// Save replaces the stored catalog.
func (s *MemStore) Save(ctx context.Context, c *Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cat = c.Clone()
	return nil
}

package catalog

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store holds the current catalog snapshot and supports out-of-band reload.
// Readers always see a complete catalog: reload builds the replacement fully
// before swapping the pointer.
type Store struct {
	path     string
	snapshot atomic.Pointer[Catalog]
	reloadMu sync.Mutex
}

// NewStore loads the catalog from path and returns a store around it.
// A load failure here is fatal to the caller: the pipeline cannot operate
// without the card tables.
func NewStore(path string) (*Store, error) {
	cat, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	s := &Store{path: path}
	s.snapshot.Store(cat)
	return s, nil
}

// Current returns the current catalog snapshot.
func (s *Store) Current() *Catalog {
	return s.snapshot.Load()
}

// Reload re-reads the catalog document and atomically swaps the snapshot.
// On error the previous snapshot stays in place. Concurrent reloads are
// serialized.
func (s *Store) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	cat, err := Load(s.path)
	if err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}

	s.snapshot.Store(cat)
	return nil
}

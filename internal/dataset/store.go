package dataset

import (
	"sync"
	"sync/atomic"

	"github.com/KaramelBytes/serpdiff/internal/tabular"
)

// Store owns the current dataset. Replacement is a pointer swap, so readers
// see either the old or the new dataset, never a partial one.
type Store struct {
	mu   sync.Mutex // serializes Replace
	next uint64
	cur  atomic.Pointer[Dataset]
}

// NewStore returns an empty store at generation 0.
func NewStore() *Store { return &Store{} }

// Current returns the current dataset, or nil before the first load.
func (s *Store) Current() *Dataset { return s.cur.Load() }

// Generation returns the generation of the current dataset; 0 means none.
func (s *Store) Generation() uint64 {
	if d := s.cur.Load(); d != nil {
		return d.Generation
	}
	return 0
}

// Replace stamps d with the next generation and publishes it. d must not be
// modified afterwards.
func (s *Store) Replace(d *Dataset) *Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	d.Generation = s.next
	s.cur.Store(d)
	return d
}

// Load builds a dataset from tbl and publishes it. On error the store is
// left unchanged.
func (s *Store) Load(tbl *tabular.Table) (*Dataset, error) {
	d, err := Build(tbl)
	if err != nil {
		return nil, err
	}
	return s.Replace(d), nil
}

package chart

import (
	"slices"
	"sync"

	"PatternScope/internal/model"
)

// Store keeps the latest analysis per symbol.
type Store struct {
	mu     sync.RWMutex
	latest map[string]*model.Analysis
}

func NewStore() *Store {
	return &Store{latest: make(map[string]*model.Analysis)}
}

// Put replaces the analysis held for a.Symbol.
func (s *Store) Put(a *model.Analysis) {
	s.mu.Lock()
	s.latest[a.Symbol] = a
	s.mu.Unlock()
}

// Get returns the latest analysis for symbol, or nil.
func (s *Store) Get(symbol string) *model.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[symbol]
}

// Symbols returns the stored symbols in sorted order.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.latest))
	for name := range s.latest {
		names = append(names, name)
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names
}

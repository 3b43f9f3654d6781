// Package memory is an in-process mirror used in development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"bilancio/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New() *Store {
	return &Store{}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-appending an already mirrored transaction replaces it, mirroring
	// what an edit does on the real backend.
	for i, existing := range s.items {
		if existing.ID == t.ID {
			s.items[i] = t
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	s.items = append(s.items, t)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Delete removes the transaction by id. Deleting something never mirrored is
// not an error; the mirror converges either way.
func (s *Store) Delete(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if existing.ID == t.ID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Items returns a copy of the mirrored transactions.
func (s *Store) Items() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}

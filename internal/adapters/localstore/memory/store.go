// Package memory is an in-process KeyValueStore for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
)

// Store keeps values in a map guarded by a read-write mutex.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

var _ portsrepo.KeyValueStore = (*Store)(nil)

// Get returns the value for key and whether it was set.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Package memory implements an in-process persistence backend.
package memory

import (
	"context"
	"sync"

	"github.com/example/equipment-rental/internal/persistence"
)

// Store keeps payloads in a map. Data does not outlive the process.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var (
	_ persistence.Backend     = (*Store)(nil)
	_ persistence.BatchWriter = (*Store)(nil)
)

// New returns an empty in-memory backend.
func New() *Store { return &Store{data: make(map[string][]byte)} }

func (s *Store) Driver() string { return "memory" }

func (s *Store) Close() error { return nil }

// Read returns a copy of the payload stored under key.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.data[key]
	if !ok {
		return nil, persistence.ErrKeyNotFound
	}
	return clone(payload), nil
}

// Write stores a copy of payload under key.
func (s *Store) Write(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	s.data[key] = clone(payload)
	s.mu.Unlock()
	return nil
}

// WriteBatch stores every payload under one lock.
func (s *Store) WriteBatch(_ context.Context, payloads map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, payload := range payloads {
		s.data[key] = clone(payload)
	}
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

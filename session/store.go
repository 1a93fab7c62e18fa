package session

import (
	"context"
	"fmt"
	"sync"
)

// Store is the persistence contract for session records, keyed by
// HashToken(token). Implementations must be safe for concurrent use.
type Store interface {
	// Put inserts or overwrites the record under the hash key.
	Put(ctx context.Context, hash string, rec *Record) error
	// Get returns the record for the hash key, or ErrNoSession.
	Get(ctx context.Context, hash string) (*Record, error)
	// Delete removes the record for the hash key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, hash string) error
}

// MemStore is the default in-process store. There is no background sweep:
// expired records are removed lazily when a verify call trips over them, and
// everything is lost on process restart.
type MemStore struct {
	mu sync.Mutex
	m  map[string]Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		m: map[string]Record{},
	}
}

// Put implements Store.
func (s *MemStore) Put(_ context.Context, hash string, rec *Record) error {
	const op = "session.(MemStore).Put"
	if rec == nil {
		return fmt.Errorf("%s: record is nil: %w", op, ErrNilParameter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[hash] = *rec
	return nil
}

// Get implements Store. The returned record is a copy.
func (s *MemStore) Get(_ context.Context, hash string) (*Record, error) {
	const op = "session.(MemStore).Get"
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.m[hash]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	return &rec, nil
}

// Delete implements Store.
func (s *MemStore) Delete(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, hash)
	return nil
}

// Len reports how many records the store currently holds.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

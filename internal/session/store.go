package session

import "sync"

// Store abstracts persistence of the session Record across restarts.
// Implementations must treat Clear as idempotent and Load on an empty store
// as a zero Record, not an error.
type Store interface {
	// Load returns the current record. A store with no saved session
	// returns a zero Record and nil error.
	Load() (Record, error)
	// Save replaces the stored record in full.
	Save(Record) error
	// Clear removes the record and the cached user snapshot. Safe to call
	// on an already-empty store.
	Clear() error
}

// MemStore is an in-memory Store for ephemeral sessions and tests.
type MemStore struct {
	mu     sync.Mutex
	record Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns the current record.
func (s *MemStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record, nil
}

// Save replaces the stored record.
func (s *MemStore) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = r
	return nil
}

// Clear resets the store to empty.
func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = Record{}
	return nil
}

package credentials

import (
	"context"
	"sync"
)

// Store is the durable credential backend, keyed by user id. Get returns
// (nil, nil) when no record exists. Set replaces the whole record for the
// uid; partial updates are never visible to readers.
type Store interface {
	Get(ctx context.Context, uid string) (*Credentials, error)
	Set(ctx context.Context, uid string, creds *Credentials) error
	Delete(ctx context.Context, uid string) error
}

// MemoryStore is the in-process Store used by tests and single-node dev
// setups. Records are copied on the way in and out so callers never share
// memory with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Credentials)}
}

func (s *MemoryStore) Get(_ context.Context, uid string) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[uid]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *MemoryStore) Set(_ context.Context, uid string, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[uid] = *creds
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, uid)
	return nil
}

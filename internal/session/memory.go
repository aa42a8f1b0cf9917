package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Expired records are
// rejected on read; Sweep evicts them and is driven by jobs.SessionSweeper.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Sweep removes expired records and returns how many were dropped
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for token, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, token)
			n++
		}
	}
	return n
}

// Len returns the number of stored records, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Save(_ context.Context, token string, rec Record) error {
	s.mu.Lock()
	s.records[token] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, token string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[token]
	s.mu.RUnlock()

	if !ok || rec.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.records, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[token]
	if !ok || rec.Expired(s.now()) {
		return ErrNotFound
	}
	rec.ExpiresAt = expiresAt
	s.records[token] = rec
	return nil
}

package logstore

import (
	"context"
	"sync"
)

// MemoryStore keeps topic logs in process memory. The single mutex covers
// the whole read-modify-write of an append, so concurrent appends to the
// same topic cannot lose entries. Entries live for the process lifetime.
type MemoryStore struct {
	mu     sync.Mutex
	topics map[string][]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		topics: make(map[string][]Entry),
	}
}

// Append appends an entry to the topic, creating the topic if absent.
func (s *MemoryStore) Append(ctx context.Context, topic string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[topic] = append(s.topics[topic], entry)
	return nil
}

// Get returns a copy of the topic's entries, in append order. Unknown
// topics yield an empty slice. Mutating the returned slice does not
// affect the store.
func (s *MemoryStore) Get(ctx context.Context, topic string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.topics[topic]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Contains reports whether the topic has ever been appended to.
func (s *MemoryStore) Contains(ctx context.Context, topic string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.topics[topic]
	return ok, nil
}

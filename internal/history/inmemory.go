package history

import (
	"context"
	"sync"
)

// InMemoryStore is a simple in-process history store for local/dev use.
type InMemoryStore struct {
	mu       sync.RWMutex
	payloads map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{payloads: make(map[string][]byte)}
}

func (s *InMemoryStore) Load(_ context.Context, origin, conversationID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.payloads[storeKey(origin, conversationID)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *InMemoryStore) Replace(_ context.Context, origin, conversationID string, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[storeKey(origin, conversationID)] = cp
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

func storeKey(origin, conversationID string) string {
	return origin + "\x00" + conversationID
}

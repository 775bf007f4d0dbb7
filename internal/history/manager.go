package history

import (
	"context"
	"sync"
)

// Manager fronts a Store with a typed per-conversation cache so each access
// does not re-parse the serialized payload. The cache is refreshed on
// Persist and dropped when a write fails, so a stale entry never outlives a
// divergence from the store. A per-conversation generation counter guards
// the miss path: a Read that was loading from the store while a Persist
// landed must not install its pre-persist snapshot over the fresh entry.
type Manager struct {
	store Store

	mu    sync.Mutex
	cache map[string][]Turn
	gen   map[string]uint64
}

func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		cache: make(map[string][]Turn),
		gen:   make(map[string]uint64),
	}
}

// Read returns the conversation's turns, oldest first. A malformed stored
// payload surfaces as ErrMalformed; callers degrade to an empty history.
// The returned slice is the caller's to keep.
func (m *Manager) Read(ctx context.Context, origin, conversationID string) ([]Turn, error) {
	key := storeKey(origin, conversationID)

	m.mu.Lock()
	if turns, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return cloneTurns(turns), nil
	}
	gen := m.gen[key]
	m.mu.Unlock()

	raw, err := m.store.Load(ctx, origin, conversationID)
	if err != nil {
		return nil, err
	}
	turns, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	// Install only if no write moved the conversation on while we were
	// loading; the snapshot is still valid for this caller either way.
	if m.gen[key] == gen {
		if _, ok := m.cache[key]; !ok {
			m.cache[key] = cloneTurns(turns)
		}
	}
	m.mu.Unlock()
	return turns, nil
}

// Persist replaces the stored history with exactly these turns and refreshes
// the cache. A failed write invalidates the cache entry instead. Either way
// the generation advances, fencing off in-flight miss-path reads.
func (m *Manager) Persist(ctx context.Context, origin, conversationID string, turns []Turn) error {
	raw, err := Encode(turns)
	if err != nil {
		return err
	}

	key := storeKey(origin, conversationID)
	if err := m.store.Replace(ctx, origin, conversationID, raw); err != nil {
		m.mu.Lock()
		delete(m.cache, key)
		m.gen[key]++
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.cache[key] = cloneTurns(turns)
	m.gen[key]++
	m.mu.Unlock()
	return nil
}

// Invalidate drops the cached turns for one conversation.
func (m *Manager) Invalidate(origin, conversationID string) {
	key := storeKey(origin, conversationID)
	m.mu.Lock()
	delete(m.cache, key)
	m.gen[key]++
	m.mu.Unlock()
}

func cloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

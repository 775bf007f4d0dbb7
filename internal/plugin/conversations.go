package plugin

import (
	"sync"

	"github.com/google/uuid"
)

// conversationRegistry maps message origins to conversation ids, creating
// one on first sight. Check-then-insert runs under the mutex so concurrent
// events for a new origin agree on a single id.
type conversationRegistry struct {
	mu  sync.Mutex
	ids map[string]string
}

func newConversationRegistry() *conversationRegistry {
	return &conversationRegistry{ids: make(map[string]string)}
}

func (r *conversationRegistry) Resolve(origin string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[origin]; ok {
		return id
	}
	id := uuid.NewString()
	r.ids[origin] = id
	return id
}

// Package convlock serializes read-modify-write access to a conversation's
// history across concurrent message events.
package convlock

import (
	"container/list"
	"sync"
)

// Registry hands out one mutex per conversation id. Creation is atomic under
// the registry mutex, so two concurrent callers always receive the same lock
// for an id. Idle entries beyond maxEntries are evicted least-recently-used;
// an entry with an active holder or waiters is never evicted, so exclusion
// is preserved even for conversations that fall out of the registry and
// return later.
type Registry struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]*entry
	order      *list.List // front = most recently used
}

type entry struct {
	lock sync.Mutex
	id   string
	refs int
	elem *list.Element
}

const DefaultMaxEntries = 4096

func NewRegistry(maxEntries int) *Registry {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Registry{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
		order:      list.New(),
	}
}

// Acquire blocks until the conversation's lock is held and returns the
// release function. Release is safe to call exactly once and must run on
// every exit path, so callers defer it immediately.
func (r *Registry) Acquire(conversationID string) (release func()) {
	r.mu.Lock()
	e, ok := r.entries[conversationID]
	if !ok {
		e = &entry{id: conversationID}
		e.elem = r.order.PushFront(e)
		r.entries[conversationID] = e
	} else {
		r.order.MoveToFront(e.elem)
	}
	// Refcount before trimming: a fresh entry at refs 0 would otherwise be
	// its own eviction candidate, orphaning the mutex its creator is about
	// to lock and letting a racing Acquire mint a second lock for the id.
	e.refs++
	r.evictIdle()
	r.mu.Unlock()

	e.lock.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.lock.Unlock()
			r.mu.Lock()
			e.refs--
			r.evictIdle()
			r.mu.Unlock()
		})
	}
}

// Len reports the number of tracked conversation locks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// evictIdle drops least-recently-used unheld entries until the registry fits
// the bound. Called with r.mu held.
func (r *Registry) evictIdle() {
	for len(r.entries) > r.maxEntries {
		evicted := false
		for el := r.order.Back(); el != nil; el = el.Prev() {
			e := el.Value.(*entry)
			if e.refs > 0 {
				continue
			}
			r.order.Remove(el)
			delete(r.entries, e.id)
			evicted = true
			break
		}
		if !evicted {
			// Every entry is held or has waiters; growth resumes once they drain.
			return
		}
	}
}

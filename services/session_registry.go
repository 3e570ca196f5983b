package services

import (
	"sync"

	"github.com/google/uuid"
)

// SessionRegistry owns one EntryStore per client session.
type SessionRegistry struct {
	mu     sync.Mutex
	stores map[string]*EntryStore
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{stores: make(map[string]*EntryStore)}
}

// NewSessionID issues a fresh session identifier.
func (r *SessionRegistry) NewSessionID() string { return uuid.NewString() }

// Store returns the session's store, creating it on first use.
func (r *SessionRegistry) Store(sessionID string) *EntryStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[sessionID]
	if !ok {
		st = NewEntryStore(sessionID)
		r.stores[sessionID] = st
	}
	return st
}

// Lookup returns the session's store without creating one.
func (r *SessionRegistry) Lookup(sessionID string) (*EntryStore, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[sessionID]
	return st, ok
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

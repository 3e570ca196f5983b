package services

import (
	"errors"
	"sync"

	"foodlog/models"
)

var ErrEntryNotFound = errors.New("food entry not found")

// EntryStore is the ordered, append-only entry collection of one session.
// Entries are appended or removed by id, never edited.
type EntryStore struct {
	sessionID string

	mu      sync.RWMutex
	entries []models.FoodEntry
}

func NewEntryStore(sessionID string) *EntryStore {
	return &EntryStore{sessionID: sessionID}
}

func (s *EntryStore) SessionID() string { return s.sessionID }

func (s *EntryStore) Append(e models.FoodEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
}

// Remove deletes the entry with the given id, keeping the order of the rest.
func (s *EntryStore) Remove(id string) (models.FoodEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			// copy into a fresh slice so earlier snapshots stay intact
			next := make([]models.FoodEntry, 0, len(s.entries)-1)
			next = append(next, s.entries[:i]...)
			next = append(next, s.entries[i+1:]...)
			s.entries = next
			return e, nil
		}
	}
	return models.FoodEntry{}, ErrEntryNotFound
}

func (s *EntryStore) Get(id string) (models.FoodEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.FoodEntry{}, false
}

// Snapshot returns a copy of the collection in insertion order.
func (s *EntryStore) Snapshot() []models.FoodEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FoodEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *EntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

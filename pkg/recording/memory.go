package recording

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps finalized recordings in memory, evicting the oldest
// once it holds more than its capacity.
type MemoryStore struct {
	capacity int

	mu    sync.RWMutex
	items map[string]*Artifact
	order []string // Oldest first
}

// NewMemoryStore creates a store holding at most capacity artifacts.
// Zero means unbounded.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{
		capacity: capacity,
		items:    make(map[string]*Artifact),
	}
}

// Save implements Sink.
func (s *MemoryStore) Save(_ context.Context, a *Artifact) error {
	s.Put(a)
	return nil
}

// Put stores a, replacing any artifact with the same ID.
func (s *MemoryStore) Put(a *Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.items[a.ID] = a

	for s.capacity > 0 && len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
}

// Get returns the artifact with id.
func (s *MemoryStore) Get(id string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Delete removes the artifact with id.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns every artifact, newest first.
func (s *MemoryStore) List() []*Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Artifact, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stopped.Equal(out[j].Stopped) {
			return out[i].ID < out[j].ID
		}
		return out[i].Stopped.After(out[j].Stopped)
	})
	return out
}

// Len returns the number of stored artifacts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. When a limit is set, the oldest
// entries are evicted once it is exceeded.
type MemoryStore[T any] struct {
	mu    sync.RWMutex
	m     map[string]T
	order []string
	limit int
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{m: map[string]T{}}
}

// NewBoundedMemoryStore keeps at most limit entries.
func NewBoundedMemoryStore[T any](limit int) *MemoryStore[T] {
	s := NewMemoryStore[T]()
	s.limit = limit
	return s
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[id]
	return v, ok, nil
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(id, v)
	return nil
}

func (s *MemoryStore[T]) PutIfAbsent(_ context.Context, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; ok {
		return ErrExists
	}
	s.put(id, v)
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return nil
	}
	delete(s.m, id)
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *MemoryStore[T]) NewID() string {
	return uuid.NewString()
}

// put must be called with mu held.
func (s *MemoryStore[T]) put(id string, v T) {
	if _, ok := s.m[id]; !ok {
		s.order = append(s.order, id)
	}
	s.m[id] = v
	for s.limit > 0 && len(s.order) > s.limit {
		delete(s.m, s.order[0])
		s.order = s.order[1:]
	}
}

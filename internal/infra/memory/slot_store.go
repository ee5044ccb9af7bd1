package memory

import (
	"context"
	"sync"
)

// SlotStore is an in-memory implementation of app.SlotStore. Values are
// copied in and out so callers never share backing arrays with the store.
type SlotStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewSlotStore() *SlotStore {
	return &SlotStore{
		slots: make(map[string][]byte),
	}
}

func (s *SlotStore) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (s *SlotStore) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), value...)
	return nil
}

package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SlotStore keeps each slot as a single Redis string: GET reads the whole
// value and SET replaces it. Slots never expire.
type SlotStore struct {
	client redis.UniversalClient
	prefix string
}

func NewSlotStore(client redis.UniversalClient, prefix string) *SlotStore {
	return &SlotStore{client: client, prefix: prefix}
}

func (s *SlotStore) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *SlotStore) Write(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *SlotStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

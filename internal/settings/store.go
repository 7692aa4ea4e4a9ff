package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const defaultKey = "game:settings"

// RedisStore keeps the settings record as a single JSON value under a fixed
// key, the same shape the original persisted to local key-value storage.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store; key falls back to the default when empty.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*Settings, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var record Settings
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) Save(ctx context.Context, record Settings) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	// No TTL: settings outlive any session.
	return s.client.Set(ctx, s.key, data, 0).Err()
}

// MemoryStore is an in-process store used in tests and when no Redis address
// is configured.
type MemoryStore struct {
	mu     sync.Mutex
	record *Settings
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, nil
	}
	record := *s.record
	return &record, nil
}

func (s *MemoryStore) Save(_ context.Context, record Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = &record
	return nil
}

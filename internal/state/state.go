package state

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"
)

// KeySignupCompleted survives account deletion so the device skips onboarding.
const KeySignupCompleted = "signupCompleted"

// PreservedKeys are kept when local state is cleared.
var PreservedKeys = []string{KeySignupCompleted}

// LocalState is the per-user key/value store backing client session state.
type LocalState interface {
	Set(ctx context.Context, userID, key, value string) error
	Get(ctx context.Context, userID, key string) (string, bool, error)
	// Clear removes every key for userID except those in keep.
	Clear(ctx context.Context, userID string, keep ...string) error
}

const keyPrefix = "state:user:"

type RedisState struct {
	client *redis.Client
}

func NewRedisState(client *redis.Client) *RedisState {
	return &RedisState{client: client}
}

func stateKey(userID string) string {
	return keyPrefix + userID
}

func (s *RedisState) Set(ctx context.Context, userID, key, value string) error {
	if err := s.client.HSet(ctx, stateKey(userID), key, value).Err(); err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

func (s *RedisState) Get(ctx context.Context, userID, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, stateKey(userID), key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get state %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisState) Clear(ctx context.Context, userID string, keep ...string) error {
	key := stateKey(userID)
	fields, err := s.client.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("list state keys: %w", err)
	}

	var drop []string
	for _, f := range fields {
		if !slices.Contains(keep, f) {
			drop = append(drop, f)
		}
	}
	if len(drop) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, key, drop...).Err(); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// MemoryState is the LocalState used when Redis is not configured.
type MemoryState struct {
	mu     sync.Mutex
	values map[string]map[string]string
}

func NewMemoryState() *MemoryState {
	return &MemoryState{values: map[string]map[string]string{}}
}

func (m *MemoryState) Set(_ context.Context, userID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[userID] == nil {
		m.values[userID] = map[string]string{}
	}
	m.values[userID][key] = value
	return nil
}

func (m *MemoryState) Get(_ context.Context, userID, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[userID][key]
	return v, ok, nil
}

func (m *MemoryState) Clear(_ context.Context, userID string, keep ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.values[userID] {
		if !slices.Contains(keep, k) {
			delete(m.values[userID], k)
		}
	}
	return nil
}

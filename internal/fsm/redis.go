package fsm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTTL bounds how long an idle conversation keeps its state
const stateTTL = 30 * 24 * time.Hour

// RedisStore persists conversation state in Redis so open prompts survive
// bot restarts
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr and verifies the connection
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %v", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func stateKey(userID int64) string {
	return fmt.Sprintf("fsm:%d", userID)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (State, error) {
	raw, err := s.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state for user %d: %v", userID, err)
	}
	return Unmarshal(raw)
}

func (s *RedisStore) Set(ctx context.Context, userID int64, state State) error {
	raw, err := Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, stateKey(userID), raw, stateTTL).Err(); err != nil {
		return fmt.Errorf("failed to set state for user %d: %v", userID, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear state for user %d: %v", userID, err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

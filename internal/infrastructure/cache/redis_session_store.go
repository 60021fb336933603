package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore implements linking.SessionStore using Redis. Pending
// link sessions are keyed by their state token and expire via Redis TTL, so
// abandoned flows clean themselves up without any background job.
type RedisSessionStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisSessionStore(cfg RedisConfig) (*RedisSessionStore, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RedisSessionStore{
		client:    client,
		keyPrefix: "linking:session:",
	}, nil
}

// Put stores the session under its state token with the given TTL,
// replacing any previous value
func (s *RedisSessionStore) Put(ctx context.Context, session *linking.PendingLinkSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	key := s.keyPrefix + session.State
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns the session for the state token. A missing or expired key
// surfaces as ErrSessionExpired; the caller cannot tell the two apart and
// does not need to.
func (s *RedisSessionStore) Get(ctx context.Context, state string) (*linking.PendingLinkSession, error) {
	key := s.keyPrefix + state

	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, linking.ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session linking.PendingLinkSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}
	return &session, nil
}

// Delete removes the session. Removing an absent session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, state string) error {
	key := s.keyPrefix + state
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// Ensure RedisSessionStore implements SessionStore
var _ linking.SessionStore = (*RedisSessionStore)(nil)

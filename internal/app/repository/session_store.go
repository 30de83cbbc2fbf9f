package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clicktally/clicktally/internal/app/model"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSessionNotFound signals a token with no live session behind it.
	ErrSessionNotFound = errors.New("session not found")
)

const sessionKeyPrefix = "session:"

// SessionStore is the server-side session capability. The authenticator owns
// the lifecycle; the store only holds state keyed by the opaque session id.
// Implementations must evict entries once the ttl passed to Set elapses.
type SessionStore interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Set(ctx context.Context, id string, session *model.Session, ttl time.Duration) error
	Destroy(ctx context.Context, id string) error
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore returns a SessionStore backed by Redis. Expiry is
// delegated to Redis key TTLs.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session store: get: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("session store: decode: %w", err)
	}
	return &session, nil
}

func (s *redisSessionStore) Set(ctx context.Context, id string, session *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session store: encode: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+id, data, ttl).Err(); err != nil {
		return fmt.Errorf("session store: set: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session store: destroy: %w", err)
	}
	return nil
}

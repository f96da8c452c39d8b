package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

const sessionPrefix = "session:"

// SessionStore keeps session identities in Redis.
// Key format: session:<token>, expiring after the idle timeout.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, token string, identity domain.Identity, ttl time.Duration) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token), payload, ttl).Err(); err != nil {
		return storeErr("save session", err)
	}
	return nil
}

// Load reads the session and pushes its expiry out by ttl.
func (s *SessionStore) Load(ctx context.Context, token string, ttl time.Duration) (domain.Identity, error) {
	key := s.key(token)

	var get *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		get = p.Get(ctx, key)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.Anonymous, storeErr("load session", err)
	}

	raw, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Anonymous, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Anonymous, storeErr("load session", err)
	}

	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil || identity.IsAnonymous() {
		// Unreadable state is treated as no session at all.
		_ = s.client.Del(ctx, key).Err()
		return domain.Anonymous, domain.ErrSessionNotFound
	}
	return identity, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return storeErr("delete session", err)
	}
	return nil
}

func (s *SessionStore) key(token string) string {
	return sessionPrefix + token
}

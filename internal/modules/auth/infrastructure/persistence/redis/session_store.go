package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "portal:session:"

// SessionStore keeps each client's session in one hash whose fields are
// the session keys.
type SessionStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewSessionStore creates a redis-backed store. A non-positive ttl keeps
// sessions until cleared.
func NewSessionStore(client *goredis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(clientID string) string {
	return keyPrefix + clientID
}

// Save replaces the session of clientID in a single transaction.
func (s *SessionStore) Save(ctx context.Context, clientID string, session domain.Session) error {
	key := sessionKey(clientID)
	values := session.Values()

	fields := make([]any, 0, len(domain.SessionKeys)*2)
	for _, k := range domain.SessionKeys {
		fields = append(fields, k, values[k])
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, clientID string) (domain.Session, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(clientID)).Result()
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if values[domain.KeyToken] == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return domain.SessionFromValues(values), nil
}

func (s *SessionStore) Clear(ctx context.Context, clientID string) error {
	if err := s.client.Del(ctx, sessionKey(clientID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "toolcrib:session:"
	userSessionPrefix = "toolcrib:session:user:"
)

// RedisStore shares session state across instances. Expiry rides on Redis key
// TTLs, so an idle session disappears without any sweeper.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func userKey(userID uuid.UUID) string { return userSessionPrefix + userID.String() }

func (s *RedisStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:           newSessionID(),
		UserID:       userID,
		LastActivity: now,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(sess.ID), payload, ttl)
	pipe.SAdd(ctx, userKey(userID), sess.ID)
	// Keep the user index from outliving its sessions forever.
	pipe.Expire(ctx, userKey(userID), ttl+24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Touch(ctx context.Context, id string, ttl time.Duration) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	sess.LastActivity = now
	sess.ExpiresAt = now.Add(ttl)

	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(id), payload, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, userKey(sess.UserID), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, sessionKey(id))
	}
	pipe.Del(ctx, userKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}

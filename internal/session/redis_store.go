// Package session resolves portal identities and keeps their session records.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"atelier/portal/internal/store"
	"github.com/redis/go-redis/v9"
)

// Store persists session records keyed by token hash. RedisStore and
// store.PostgresStore both satisfy it.
type Store interface {
	SaveSession(ctx context.Context, record store.SessionRecord) error
	LookupSession(ctx context.Context, key string) (store.SessionRecord, error)
	RevokeSession(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client), nil
}

func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "portal:session:"}
}

func (s *RedisStore) key(hash string) string {
	return s.prefix + hash
}

// SaveSession writes the record with a TTL matching its expiry.
func (s *RedisStore) SaveSession(ctx context.Context, record store.SessionRecord) error {
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("save session: already expired at %s", record.ExpiresAt.Format(time.RFC3339))
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.Key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) LookupSession(ctx context.Context, hash string) (store.SessionRecord, error) {
	raw, err := s.client.Get(ctx, s.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.SessionRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.SessionRecord{}, fmt.Errorf("lookup session: %w", err)
	}
	var record store.SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return store.SessionRecord{}, fmt.Errorf("unmarshal session: %w", err)
	}
	record.Key = hash
	return record, nil
}

func (s *RedisStore) RevokeSession(ctx context.Context, hash string) error {
	if err := s.client.Del(ctx, s.key(hash)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

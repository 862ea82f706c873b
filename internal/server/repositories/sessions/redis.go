package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

const keyPrefix = "ecopoints:session:"

func sessionKey(id string) string {
	return keyPrefix + id
}

// RedisRepository stores each session as a JSON value whose key TTL tracks
// the session expiry, so Redis evicts expired sessions on its own.
type RedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRepository parses url, connects and verifies the connection.
func NewRedisRepository(ctx context.Context, url string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return NewRedisRepositoryWithClient(client), nil
}

// NewRedisRepositoryWithClient wraps an existing client.
func NewRedisRepositoryWithClient(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, now: time.Now}
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) ttl(expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(r.now())
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	return ttl
}

func (r *RedisRepository) Create(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, sessionKey(s.ID), data, r.ttl(s.ExpiresAt)).Result()
	if err != nil {
		return wrapRedis(err)
	}
	if !ok {
		return common.ErrDuplicateKey
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, wrapRedis(err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Touch rewrites the value only if the key still exists, so a session that
// Redis evicted in between is not resurrected.
func (r *RedisRepository) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	s, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	s.ExpiresAt = expiresAt
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetXX(ctx, sessionKey(id), data, r.ttl(expiresAt)).Result()
	if err != nil {
		return wrapRedis(err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	return wrapRedis(r.client.Del(ctx, sessionKey(id)).Err())
}

// DeleteExpired is a no-op: key TTLs already expire sessions.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func wrapRedis(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}

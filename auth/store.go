package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrUnknownRefreshToken means the token was never issued or has been revoked.
var ErrUnknownRefreshToken = errors.New("unknown refresh token")

// RefreshStore remembers which refresh tokens are still valid.
type RefreshStore interface {
	Save(ctx context.Context, token string, userID uint, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (uint, error)
	Revoke(ctx context.Context, token string) error
}

// RedisRefreshStore keeps refresh tokens in Redis with their TTL.
type RedisRefreshStore struct {
	rdb *redis.Client
}

var _ RefreshStore = (*RedisRefreshStore)(nil)

func NewRedisRefreshStore(rdb *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{rdb: rdb}
}

func refreshKey(token string) string {
	return "refresh:" + token
}

func (s *RedisRefreshStore) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, refreshKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (s *RedisRefreshStore) Lookup(ctx context.Context, token string) (uint, error) {
	val, err := s.rdb.Get(ctx, refreshKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrUnknownRefreshToken
	}
	if err != nil {
		return 0, fmt.Errorf("lookup refresh token: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt refresh token entry: %w", err)
	}
	return uint(id), nil
}

func (s *RedisRefreshStore) Revoke(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, refreshKey(token)).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

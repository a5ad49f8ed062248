package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stemsi/mockview-backend/internal/config"
)

// RedisTokenStore keeps active token IDs in Redis with the token's expiry.
type RedisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func (s *RedisTokenStore) Activate(ctx context.Context, jti string, userID int, ttl time.Duration) error {
	return s.rdb.Set(ctx, config.CacheKey.AuthSessionKey(jti), strconv.Itoa(userID), ttl).Err()
}

func (s *RedisTokenStore) IsActive(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.AuthSessionKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, config.CacheKey.AuthSessionKey(jti)).Err()
}

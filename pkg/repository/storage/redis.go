package storage

import (
	"context"
	"errors"
	"time"

	"github.com/napryag/salon_bot/pkg/utils/errs"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStorage stores keys as plain strings without expiry.
type RedisStorage struct {
	rdb *redis.Client
}

func NewRedisStorage(ctx context.Context, cfg RedisConfig) (*RedisStorage, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errs.New("failed to ping redis").Arg("addr", cfg.Addr).Wrap(err)
	}
	return &RedisStorage{rdb: rdb}, nil
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.New("failed to read key").Arg("key", key).Wrap(err)
	}
	return v, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return errs.New("failed to write key").Arg("key", key).Wrap(err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return errs.New("failed to delete key").Arg("key", key).Wrap(err)
	}
	return nil
}

func (s *RedisStorage) Close() {
	_ = s.rdb.Close()
}

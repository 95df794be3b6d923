package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one JSON document per profile under prefix:profile. It is
// meant for kiosk or shared-terminal deployments where several front ends sign
// in as the same profile.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, prefix, profile string) *RedisStore {
	return &RedisStore{rdb: rdb, key: redisKey(prefix, profile)}
}

func redisKey(prefix, profile string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "petsocial:credentials"
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	return prefix + ":" + profile
}

func (s *RedisStore) Get(ctx context.Context) (Credentials, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("redis get credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return creds, nil
}

func (s *RedisStore) Set(ctx context.Context, creds Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis clear credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

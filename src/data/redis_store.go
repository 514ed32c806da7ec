package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

const (
	redisTokenKey    = "marketdata:token"
	redisSnapshotKey = "marketdata:snapshot"
)

// RedisStore persists the credential and snapshot in redis, for deployments
// where the process has no durable disk. Values never expire; they are
// overwritten by the next save.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SaveCredential(ctx context.Context, accessToken string) error {
	if err := s.client.Set(ctx, redisTokenKey, accessToken, 0).Err(); err != nil {
		return fmt.Errorf("RedisStore.SaveCredential: failed to set %s: %w", redisTokenKey, err)
	}

	return nil
}

func (s *RedisStore) LoadCredential(ctx context.Context) (string, bool, error) {
	accessToken, err := s.client.Get(ctx, redisTokenKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("RedisStore.LoadCredential: failed to get %s: %w", redisTokenKey, err)
	}

	if accessToken == "" {
		return "", false, nil
	}

	return accessToken, true, nil
}

func (s *RedisStore) SaveSnapshot(ctx context.Context, snapshot *eventmodels.MarketSnapshotDTO) error {
	if snapshot == nil {
		return fmt.Errorf("RedisStore.SaveSnapshot: snapshot is nil")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("RedisStore.SaveSnapshot: failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, redisSnapshotKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("RedisStore.SaveSnapshot: failed to set %s: %w", redisSnapshotKey, err)
	}

	return nil
}

func (s *RedisStore) LoadSnapshot(ctx context.Context) (*eventmodels.MarketSnapshotDTO, bool, error) {
	payload, err := s.client.Get(ctx, redisSnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("RedisStore.LoadSnapshot: failed to get %s: %w", redisSnapshotKey, err)
	}

	var dto eventmodels.MarketSnapshotDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return nil, false, fmt.Errorf("RedisStore.LoadSnapshot: failed to unmarshal snapshot: %w", err)
	}

	return &dto, true, nil
}

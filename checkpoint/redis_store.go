package checkpoint

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "stepflow:checkpoint:"

// RedisStore keeps snapshots in Redis, one key per workflow id. Suitable
// when the orchestrating process is ephemeral but a Redis instance
// outlives it.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(workflowID string) string {
	return redisKeyPrefix + workflowID
}

func (s *RedisStore) Put(ctx context.Context, workflowID string, data []byte) error {
	return s.client.Set(ctx, redisKey(workflowID), data, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, workflowID string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKey(workflowID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Exists(ctx context.Context, workflowID string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKey(workflowID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, workflowID string) error {
	return s.client.Del(ctx, redisKey(workflowID)).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

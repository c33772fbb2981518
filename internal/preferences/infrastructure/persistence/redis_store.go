package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each student's preferences in one hash.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// RedisKey is the hash holding studentID's preferences.
func RedisKey(studentID uuid.UUID) string {
	return "driverapp:prefs:" + studentID.String()
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, studentID uuid.UUID, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, RedisKey(studentID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores the value.
func (s *RedisStore) Set(ctx context.Context, studentID uuid.UUID, key, value string) error {
	return s.client.HSet(ctx, RedisKey(studentID), key, value).Err()
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, studentID uuid.UUID, key string) error {
	return s.client.HDel(ctx, RedisKey(studentID), key).Err()
}

// All returns every key of the student.
func (s *RedisStore) All(ctx context.Context, studentID uuid.UUID) (map[string]string, error) {
	return s.client.HGetAll(ctx, RedisKey(studentID)).Result()
}

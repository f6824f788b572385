package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps every record as one field of a single hash
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to redisURL and checks the connection
func OpenRedis(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Info("Credential store opened", zap.String("driver", "redis"), zap.String("addr", opts.Addr))
	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "discord-verify"
	}
	return &RedisStore{client: client, prefix: strings.TrimSuffix(prefix, ":")}
}

func (s *RedisStore) hashKey() string {
	return fmt.Sprintf("%s:authorizations", s.prefix)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (models.AuthorizationRecord, error) {
	payload, err := s.client.HGet(ctx, s.hashKey(), userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.AuthorizationRecord{}, ErrNotFound
	}
	if err != nil {
		return models.AuthorizationRecord{}, fmt.Errorf("failed to get record from Redis: %w", err)
	}

	rec, err := decodeRecord(userID, payload)
	if err != nil {
		return models.AuthorizationRecord{}, &StoreCorruptError{Location: s.hashKey() + "#" + userID, Err: err}
	}
	return rec, nil
}

func (s *RedisStore) Put(ctx context.Context, rec models.AuthorizationRecord) error {
	if strings.TrimSpace(rec.UserID) == "" {
		return ErrMissingUserID
	}

	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, s.hashKey(), rec.UserID, payload).Err(); err != nil {
		return fmt.Errorf("failed to set record in Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]models.AuthorizationRecord, error) {
	res, err := s.client.HGetAll(ctx, s.hashKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records from Redis: %w", err)
	}

	records := make([]models.AuthorizationRecord, 0, len(res))
	for userID, payload := range res {
		rec, err := decodeRecord(userID, []byte(payload))
		if err != nil {
			return nil, &StoreCorruptError{Location: s.hashKey() + "#" + userID, Err: err}
		}
		records = append(records, rec)
	}

	sortByAuthorizedAt(records)
	return records, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

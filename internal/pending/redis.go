package pending

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldImage     = "image"
	fieldMIMEType  = "mime_type"
	fieldCreatedAt = "created_at"
)

// RedisStore keeps each upload in a hash under prefix+conversation with a
// native expiry, so uploads survive restarts and are shared across replicas.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A non-positive ttl stores keys without expiry.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(conversation string) string {
	return s.prefix + conversation
}

func (s *RedisStore) Put(ctx context.Context, conversation string, u Upload) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	key := s.key(conversation)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldImage, u.Image,
			fieldMIMEType, u.MIMEType,
			fieldCreatedAt, u.CreatedAt.UnixMilli(),
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store pending upload: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, conversation string) (Upload, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(conversation)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Upload{}, false, nil
		}
		return Upload{}, false, fmt.Errorf("failed to load pending upload: %w", err)
	}
	if len(fields) == 0 {
		return Upload{}, false, nil
	}

	u := Upload{
		Image:    []byte(fields[fieldImage]),
		MIMEType: fields[fieldMIMEType],
	}
	if ms, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		u.CreatedAt = time.UnixMilli(ms)
	}
	return u, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, conversation string) error {
	if err := s.client.Del(ctx, s.key(conversation)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending upload: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

package correlation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Refund mappings outlive any reasonable settlement window, then expire.
const refundKeyTTL = 90 * 24 * time.Hour

var _ Store = (*RedisStore)(nil)

// RedisStore persists refund correlations across process restarts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the given Redis instance.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func refundKey(refundID string) string {
	return fmt.Sprintf("refund:%s", refundID)
}

func (s *RedisStore) SaveRefund(ctx context.Context, refundID, paymentID string) error {
	if err := s.client.Set(ctx, refundKey(refundID), paymentID, refundKeyTTL).Err(); err != nil {
		return fmt.Errorf("redis SET error: %w", err)
	}
	return nil
}

func (s *RedisStore) PaymentIDForRefund(ctx context.Context, refundID string) (string, error) {
	paymentID, err := s.client.Get(ctx, refundKey(refundID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis GET error: %w", err)
	}
	return paymentID, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

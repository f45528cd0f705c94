// Package redis provides Redis-based implementations of the store interfaces.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vigil-go/internal/config"
)

// Key prefix for per-rule emission timestamps.
const prefixEmissions = "emissions:"

// How long emission members are retained beyond the largest suppression
// window. Keys expire on their own if a rule stops firing.
const emissionTTL = 2 * time.Hour

// RecentAlertCounter implements store.RecentAlertCounter using a Redis
// sorted set per rule, scored by emission time. Counting a trailing window
// is a ZCOUNT; old members are trimmed on each write.
type RecentAlertCounter struct {
	client *redis.Client
}

// NewRecentAlertCounter creates a new Redis-backed alert counter.
func NewRecentAlertCounter(cfg *config.RedisConfig) (*RecentAlertCounter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RecentAlertCounter{client: client}, nil
}

// emissionsKey generates the Redis key for a rule's emission set.
func emissionsKey(ruleID string) string {
	return prefixEmissions + ruleID
}

// Record notes that the rule emitted an alert at the given instant.
func (c *RecentAlertCounter) Record(ctx context.Context, ruleID string, at time.Time) error {
	key := emissionsKey(ruleID)

	// Member must be unique per emission; the score carries the timestamp.
	member := strconv.FormatInt(at.UnixNano(), 10) + ":" + uuid.New().String()

	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixNano()), Member: member})
	pipe.ZRemRangeByScore(ctx, key, "-inf",
		strconv.FormatInt(at.Add(-emissionTTL).UnixNano(), 10))
	pipe.Expire(ctx, key, emissionTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record emission: %w", err)
	}

	return nil
}

// CountSince returns how many alerts the rule emitted at or after since.
func (c *RecentAlertCounter) CountSince(ctx context.Context, ruleID string, since time.Time) (int, error) {
	key := emissionsKey(ruleID)

	count, err := c.client.ZCount(ctx, key,
		strconv.FormatInt(since.UnixNano(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count emissions: %w", err)
	}

	return int(count), nil
}

// Close closes the Redis client connection.
func (c *RecentAlertCounter) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

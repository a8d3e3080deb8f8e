package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

// baselineTTL bounds how long a pinned starting price survives. Long enough
// to cover any single match, short enough that keys from finished matches
// age out on their own.
const baselineTTL = 24 * time.Hour

var _ BaselineStorage = (*RedisBaselineStorage)(nil)

// RedisBaselineStorage pins market baselines in Redis so they survive
// feed-service restarts mid-match.
type RedisBaselineStorage struct {
	client *redis.Client
}

func NewRedisBaselineStorage(cfg *config.RedisConfig) (*RedisBaselineStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBaselineStorage{client: client}, nil
}

func baselineKey(source models.Source, marketID string) string {
	return fmt.Sprintf("baseline:%s:%s", source, marketID)
}

// EnsureBaseline writes odds under the market key only when absent, then
// reads back whichever value won. SetNX makes the set-once property hold
// across concurrent polling cycles.
func (r *RedisBaselineStorage) EnsureBaseline(ctx context.Context, source models.Source, marketID string, odds float64) (float64, error) {
	key := baselineKey(source, marketID)

	if err := r.client.SetNX(ctx, key, odds, baselineTTL).Err(); err != nil {
		return 0, fmt.Errorf("failed to pin baseline: %w", err)
	}

	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read baseline: %w", err)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt baseline for %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisBaselineStorage) Close() error {
	return r.client.Close()
}

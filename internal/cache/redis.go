package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/logging"
	"github.com/actuallystonmai/order-recommender/internal/metrics"
)

const defaultTTL = 10 * time.Minute

const breakerName = "redis-cache"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker[[]byte]
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("cache circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &Cache{client: client, ttl: ttl, cb: cb}
}

// Connect parses a redis:// URL and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Results are scoped to the model generation so a retrained model never
// serves stale entries.
func buildKey(generation string, employeeID int64) string {
	return fmt.Sprintf("rec:model:%s:employee:%d", generation, employeeID)
}

// Get recommendations from cache. A miss returns (nil, nil).
func (c *Cache) Get(ctx context.Context, generation string, employeeID int64) (*domain.RecommendationResult, error) {
	key := buildKey(generation, employeeID)
	val, err := c.cb.Execute(func() ([]byte, error) {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations from cache: %w", err)
	}
	if val == nil {
		return nil, nil
	}

	var result domain.RecommendationResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations %s: %w", key, err)
	}
	return &result, nil
}

// Store recommendations in cache
func (c *Cache) Set(ctx context.Context, generation string, result *domain.RecommendationResult) error {
	key := buildKey(generation, result.EmployeeID)
	val, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	_, err = c.cb.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, key, val, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set recommendations in cache: %w", err)
	}
	return nil
}

// ClearModelCache drops every entry for generation, or for all
// generations when generation is empty. Returns the number of keys removed.
func (c *Cache) ClearModelCache(ctx context.Context, generation string) (int, error) {
	pattern := "rec:model:*"
	if generation != "" {
		pattern = fmt.Sprintf("rec:model:%s:employee:*", generation)
	}

	removed := 0
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
		removed++
	}
	return removed, iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/go-weather-auth/internal/domain"
)

// Cmdable is the subset of *redis.Client the cache uses.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// WeatherCache stores assembled weather payloads keyed by city.
// Key format: weather:<lower-cased city>
type WeatherCache struct {
	client Cmdable
	ttl    time.Duration
}

func NewWeatherCache(client Cmdable, ttl time.Duration) *WeatherCache {
	return &WeatherCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *WeatherCache) Get(ctx context.Context, city string) (*domain.Weather, bool, error) {
	raw, err := c.client.Get(ctx, key(city)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("weather cache get: %w", err)
	}
	var w domain.Weather
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, false, fmt.Errorf("weather cache decode: %w", err)
	}
	return &w, true, nil
}

func (c *WeatherCache) Set(ctx context.Context, city string, w *domain.Weather) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("weather cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key(city), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("weather cache set: %w", err)
	}
	return nil
}

func key(city string) string {
	return "weather:" + strings.ToLower(strings.TrimSpace(city))
}

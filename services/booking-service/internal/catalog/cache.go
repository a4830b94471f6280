// Package catalog caches calendars and services in Redis in front of the authoritative store.
// Bookings are never cached, so cancellations and new bookings are visible immediately.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/metrics"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "bookora:catalog:"

type Config struct {
	TTL time.Duration
	// OpTimeout bounds each Redis round trip so a slow cache never slows a booking.
	OpTimeout time.Duration
}

// Cache is a read-through booking.Catalog. Redis failures trip a breaker and reads fall
// through to the origin until Redis recovers.
type Cache struct {
	origin  booking.Catalog
	client  redis.Cmdable
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Collector
	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker[[]byte]
}

var _ booking.Catalog = (*Cache)(nil)

func New(origin booking.Catalog, client redis.Cmdable, cfg Config, logger *slog.Logger, m *metrics.Collector) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 150 * time.Millisecond
	}
	c := &Cache{
		origin:  origin,
		client:  client,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog-redis",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

func CalendarKey(calendarID string) string { return keyPrefix + "calendar:" + calendarID }
func ServiceKey(serviceID string) string   { return keyPrefix + "service:" + serviceID }

func (c *Cache) Calendar(ctx context.Context, calendarID string) (model.Calendar, error) {
	return lookup(ctx, c, CalendarKey(calendarID), func(ctx context.Context) (model.Calendar, error) {
		return c.origin.Calendar(ctx, calendarID)
	})
}

func (c *Cache) Service(ctx context.Context, serviceID string) (model.Service, error) {
	return lookup(ctx, c, ServiceKey(serviceID), func(ctx context.Context) (model.Service, error) {
		return c.origin.Service(ctx, serviceID)
	})
}

// Invalidate drops the cached calendar and services so the next read reloads them.
func (c *Cache) Invalidate(ctx context.Context, calendarID string, serviceIDs ...string) error {
	var keys []string
	if calendarID != "" {
		keys = append(keys, CalendarKey(calendarID))
	}
	for _, id := range serviceIDs {
		if id != "" {
			keys = append(keys, ServiceKey(id))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del %v: %w", keys, err)
	}
	return nil
}

func lookup[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := c.get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			c.count("hit")
			return v, nil
		}
		c.logger.Warn("catalog cache entry unreadable, reloading", "key", key)
		c.count("miss")
	case errors.Is(err, redis.Nil):
		c.count("miss")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.count("bypass")
	default:
		c.count("error")
		c.logger.Warn("catalog cache read failed", "key", key, "err", err)
	}

	// Concurrent misses for one key share a single origin read.
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, v)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
		defer cancel()
		return c.client.Get(ctx, key).Bytes()
	})
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("catalog cache marshal failed", "key", key, "err", err)
		return
	}
	_, err = c.breaker.Execute(func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
		defer cancel()
		return nil, c.client.Set(ctx, key, payload, c.cfg.TTL).Err()
	})
	if err != nil {
		c.logger.Debug("catalog cache write skipped", "key", key, "err", err)
	}
}

func (c *Cache) count(result string) {
	if c.metrics != nil {
		c.metrics.CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

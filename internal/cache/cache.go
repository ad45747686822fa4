// Package cache keeps list pages of the record store in redis.
//
// Pages are stored under features:v{generation}:{offset}:{limit}. Every
// write bumps the generation counter, so one INCR invalidates every cached
// page without scanning keys; old generations simply expire. Redis errors
// never fail a request: the cache logs, counts the error and reads through
// to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/five82/waypoint/internal/config"
	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/metrics"
	"github.com/five82/waypoint/internal/store"
)

// ErrMiss is returned by a Backend when a key does not exist.
var ErrMiss = errors.New("cache miss")

const generationKey = "features:gen"

// Backend is the subset of redis the cache uses.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Redis adapts a go-redis client to Backend.
type Redis struct {
	client *redis.Client
}

// OpenRedis builds a client for cfg. It returns nil when no address is set.
func OpenRedis(cfg config.Redis) *Redis {
	if cfg.Addr == "" {
		return nil
	}
	return &Redis{client: redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

// Ping checks the redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Cached wraps a Repository with a redis page cache.
type Cached struct {
	store.Repository

	backend Backend
	ttl     time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// Compile-time check.
var _ store.Repository = (*Cached)(nil)

// New wraps next. A nil metrics value disables counting.
func New(next store.Repository, backend Backend, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Cached {
	return &Cached{
		Repository: next,
		backend:    backend,
		ttl:        ttl,
		log:        logger.With().Str("component", "cache").Logger(),
		metrics:    m,
	}
}

// PageKey names the cache entry for one page of one generation.
func PageKey(generation int64, offset, limit int) string {
	return fmt.Sprintf("features:v%d:%d:%d", generation, offset, limit)
}

// List serves a page from redis when possible.
func (c *Cached) List(ctx context.Context, offset, limit int) ([]store.Feature, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.fail(err, "read generation")
		return c.Repository.List(ctx, offset, limit)
	}
	key := PageKey(gen, offset, limit)

	cached, err := c.backend.Get(ctx, key)
	switch {
	case err == nil:
		var rows []store.Feature
		if jerr := json.Unmarshal([]byte(cached), &rows); jerr == nil {
			c.count(func(m *metrics.Metrics) { m.CacheHitsTotal.Inc() })
			return rows, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case errors.Is(err, ErrMiss):
	default:
		c.fail(err, "read page")
		return c.Repository.List(ctx, offset, limit)
	}
	c.count(func(m *metrics.Metrics) { m.CacheMissesTotal.Inc() })

	rows, err := c.Repository.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return rows, nil
	}
	if err := c.backend.Set(ctx, key, string(data), c.ttl); err != nil {
		c.fail(err, "write page")
	}
	return rows, nil
}

func (c *Cached) Create(ctx context.Context, p features.Payload) (store.Feature, error) {
	row, err := c.Repository.Create(ctx, p)
	if err == nil {
		c.invalidate(ctx)
	}
	return row, err
}

func (c *Cached) Update(ctx context.Context, id int64, p features.Payload) (store.Feature, error) {
	row, err := c.Repository.Update(ctx, id, p)
	if err == nil {
		c.invalidate(ctx)
	}
	return row, err
}

func (c *Cached) Delete(ctx context.Context, id int64) error {
	err := c.Repository.Delete(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

func (c *Cached) Replace(ctx context.Context, rows []store.Feature) error {
	err := c.Repository.Replace(ctx, rows)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

func (c *Cached) Insert(ctx context.Context, rows []store.Feature) error {
	err := c.Repository.Insert(ctx, rows)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

func (c *Cached) generation(ctx context.Context) (int64, error) {
	v, err := c.backend.Get(ctx, generationKey)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse generation %q: %w", v, err)
	}
	return gen, nil
}

// Ping checks the wrapped repository when it supports health checks.
func (c *Cached) Ping(ctx context.Context) error {
	if p, ok := c.Repository.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Cached) invalidate(ctx context.Context) {
	gen, err := c.backend.Incr(ctx, generationKey)
	if err != nil {
		// A generation that cannot be incremented is overwritten instead.
		// If that fails too, old pages stay valid until their TTL runs out.
		gen = time.Now().UnixNano()
		if serr := c.backend.Set(ctx, generationKey, strconv.FormatInt(gen, 10), 0); serr != nil {
			c.fail(errors.Join(err, serr), "bump generation")
			return
		}
		c.count(func(m *metrics.Metrics) { m.CacheErrorsTotal.Inc() })
		c.log.Warn().Err(err).Int64("generation", gen).Msg("list cache generation reset")
		return
	}
	c.log.Debug().Int64("generation", gen).Msg("list cache invalidated")
}

func (c *Cached) fail(err error, op string) {
	c.count(func(m *metrics.Metrics) { m.CacheErrorsTotal.Inc() })
	c.log.Warn().Err(err).Str("op", op).Msg("redis unavailable, using database")
}

func (c *Cached) count(fn func(*metrics.Metrics)) {
	if c.metrics != nil {
		fn(c.metrics)
	}
}

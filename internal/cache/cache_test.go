package cache

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/waypoint/internal/config"
	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/metrics"
	"github.com/five82/waypoint/internal/store"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
	// incrErr fails only Incr, leaving Get and Set working.
	incrErr error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (b *memBackend) Get(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	v, ok := b.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (b *memBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.data[key] = value
	b.ttls[key] = ttl
	return nil
}

func (b *memBackend) Incr(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	if b.incrErr != nil {
		return 0, b.incrErr
	}
	n, _ := strconv.ParseInt(b.data[key], 10, 64)
	n++
	b.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

type countingRepo struct {
	rows  []store.Feature
	lists int
}

func (r *countingRepo) List(_ context.Context, offset, limit int) ([]store.Feature, error) {
	r.lists++
	if offset >= len(r.rows) {
		return []store.Feature{}, nil
	}
	end := offset + limit
	if end > len(r.rows) {
		end = len(r.rows)
	}
	return append([]store.Feature(nil), r.rows[offset:end]...), nil
}

func (r *countingRepo) Get(_ context.Context, id int64) (store.Feature, error) {
	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return store.Feature{}, store.ErrNotFound
}

func (r *countingRepo) Create(_ context.Context, p features.Payload) (store.Feature, error) {
	row, err := store.NewFeature(p)
	if err != nil {
		return store.Feature{}, err
	}
	row.ID = int64(len(r.rows) + 1)
	r.rows = append(r.rows, row)
	return row, nil
}

func (r *countingRepo) Update(_ context.Context, id int64, _ features.Payload) (store.Feature, error) {
	return store.Feature{}, store.ErrNotFound
}

func (r *countingRepo) Delete(_ context.Context, _ int64) error { return store.ErrNotFound }

func (r *countingRepo) Replace(_ context.Context, rows []store.Feature) error {
	r.rows = rows
	return nil
}

func (r *countingRepo) Insert(_ context.Context, rows []store.Feature) error {
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *countingRepo) Count(_ context.Context) (int64, error) { return int64(len(r.rows)), nil }

func point(name string) features.Payload {
	return features.Payload{Name: name, Geometry: geojson.NewGeometry(orb.Point{1, 2})}
}

func TestPageKey(t *testing.T) {
	assert.Equal(t, "features:v3:100:50", PageKey(3, 100, 50))
}

func TestListServesSecondReadFromCache(t *testing.T) {
	repo := &countingRepo{}
	backend := newMemBackend()
	m := metrics.New()
	c := New(repo, backend, time.Minute, zerolog.Nop(), m)
	ctx := context.Background()

	_, err := repo.Create(ctx, point("A"))
	require.NoError(t, err)

	first, err := c.List(ctx, 0, 50)
	require.NoError(t, err)
	second, err := c.List(ctx, 0, 50)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.lists)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.JSONEq(t, string(first[0].Geometry), string(second[0].Geometry))
	assert.Equal(t, time.Minute, backend.ttls[PageKey(0, 0, 50)])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestWritesInvalidateAllPages(t *testing.T) {
	repo := &countingRepo{}
	backend := newMemBackend()
	c := New(repo, backend, time.Minute, zerolog.Nop(), nil)
	ctx := context.Background()

	_, err := c.List(ctx, 0, 50)
	require.NoError(t, err)
	_, err = c.Create(ctx, point("B"))
	require.NoError(t, err)

	rows, err := c.List(ctx, 0, 50)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, repo.lists)
	assert.Contains(t, backend.data, PageKey(1, 0, 50))

	require.NoError(t, c.Replace(ctx, nil))
	rows, err = c.List(ctx, 0, 50)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, "2", backend.data[generationKey])
}

func TestFailedWriteKeepsGeneration(t *testing.T) {
	repo := &countingRepo{}
	backend := newMemBackend()
	c := New(repo, backend, time.Minute, zerolog.Nop(), nil)

	err := c.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotContains(t, backend.data, generationKey)
}

func TestFailedIncrResetsGeneration(t *testing.T) {
	repo := &countingRepo{}
	backend := newMemBackend()
	m := metrics.New()
	c := New(repo, backend, time.Minute, zerolog.Nop(), m)
	ctx := context.Background()

	_, err := c.List(ctx, 0, 50)
	require.NoError(t, err)
	backend.incrErr = errors.New("ERR value is not an integer or out of range")

	_, err = c.Create(ctx, point("E"))
	require.NoError(t, err)
	assert.NotEqual(t, "", backend.data[generationKey])

	rows, err := c.List(ctx, 0, 50)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, repo.lists)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheErrorsTotal))
}

func TestPingChecksWrappedStore(t *testing.T) {
	repo, err := store.Open(config.Database{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ping.db"),
	}, zerolog.Nop())
	require.NoError(t, err)

	c := New(repo, newMemBackend(), time.Minute, zerolog.Nop(), nil)
	require.NoError(t, c.Ping(context.Background()))

	require.NoError(t, repo.Close())
	assert.Error(t, c.Ping(context.Background()))

	// Repositories without a health check report healthy.
	assert.NoError(t, New(&countingRepo{}, newMemBackend(), time.Minute, zerolog.Nop(), nil).Ping(context.Background()))
}

func TestBackendErrorsFallBackToStore(t *testing.T) {
	repo := &countingRepo{}
	backend := newMemBackend()
	backend.err = errors.New("connection refused")
	m := metrics.New()
	c := New(repo, backend, time.Minute, zerolog.Nop(), m)
	ctx := context.Background()

	_, err := c.Create(ctx, point("C"))
	require.NoError(t, err)
	rows, err := c.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheErrorsTotal))
}

func TestUnreachableRedisDegrades(t *testing.T) {
	backend := OpenRedis(config.Redis{Addr: "127.0.0.1:1"})
	require.NotNil(t, backend)
	t.Cleanup(func() { _ = backend.Close() })

	repo := &countingRepo{}
	c := New(repo, backend, time.Minute, zerolog.Nop(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := c.Create(ctx, point("D"))
	require.NoError(t, err)
	rows, err := c.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOpenRedisWithoutAddr(t *testing.T) {
	assert.Nil(t, OpenRedis(config.Redis{}))
}

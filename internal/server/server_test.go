package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/waypoint/internal/cache"
	"github.com/five82/waypoint/internal/config"
	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/metrics"
	"github.com/five82/waypoint/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	repo, err := store.Open(config.Database{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	srv, err := New(Options{Repo: repo, Logger: zerolog.Nop(), Metrics: metrics.New()})
	require.NoError(t, err)
	return srv, repo
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

const pointBody = `{"name":"Depot","description":"main","geometry":{"type":"Point","coordinates":[77.59,12.97]}}`

func TestNewRequiresRepo(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestCreateAndGet(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/features/", pointBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created features.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, "Depot", created.Name)
	assert.Equal(t, "main", created.Description)

	rec = do(t, h, http.MethodGet, "/api/features/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got features.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, orb.Point{77.59, 12.97}, got.Geometry.Geometry())
}

func TestCreateValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"geometry":{"type":"Point","coordinates":[0,0]}}`, "name"},
		{"blank name", `{"name":"  ","geometry":{"type":"Point","coordinates":[0,0]}}`, "name"},
		{"missing geometry", `{"name":"A"}`, "geometry"},
		{"bad geometry type", `{"name":"A","geometry":{"type":"Circle","coordinates":[0,0]}}`, "geometry"},
		{"malformed json", `{"name":`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/features/", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, detail(t, rec), tt.want)
		})
	}
}

func TestListPagingAndLimits(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.Handler()
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		_, err := repo.Create(ctx, features.Payload{Name: name, Geometry: geojson.NewGeometry(orb.Point{1, 1})})
		require.NoError(t, err)
	}

	rec := do(t, h, http.MethodGet, "/api/features/?limit=2&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page []features.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page, 2)
	assert.Equal(t, "B", page[0].Name)
	assert.Equal(t, "C", page[1].Name)

	rec = do(t, h, http.MethodGet, "/api/features/?offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, q := range []string{"limit=0", "limit=1001", "limit=abc", "offset=-1"} {
		rec := do(t, h, http.MethodGet, "/api/features/?"+q, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
	}
}

func TestMissingFeatureIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := do(t, h, method, "/api/features/42", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.Equal(t, "Feature not found", detail(t, rec))
	}
	rec := do(t, h, http.MethodPut, "/api/features/42", pointBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/features/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.Handler()
	row, err := repo.Create(context.Background(), features.Payload{Name: "Old", Description: "x", Geometry: geojson.NewGeometry(orb.Point{0, 0})})
	require.NoError(t, err)
	path := "/api/features/" + features.ID(row.ID).String()

	rec := do(t, h, http.MethodPut, path, `{"name":"New","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated features.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "New", updated.Name)
	assert.Empty(t, updated.Description)
	assert.Equal(t, "LineString", updated.Geometry.Type)

	rec = do(t, h, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Feature deleted successfully"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/features/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/api/features/", "")
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodOptions, "/api/features/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, rec.Body.String())

	_ = do(t, h, http.MethodGet, "/api/features/", "")
	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `waypoint_requests_total{method="GET",route="/api/features/",status="200"} 1`)
}

type failingCheck struct{}

func (failingCheck) Ping(context.Context) error { return errors.New("redis down") }

func TestHealthReportsFailedCheck(t *testing.T) {
	repo, err := store.Open(config.Database{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "h.db")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	srv, err := New(Options{Repo: repo, Logger: zerolog.Nop(), Checks: map[string]Pinger{"cache": failingCheck{}}})
	require.NoError(t, err)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis down")
}

type nullBackend struct{}

func (nullBackend) Get(context.Context, string) (string, error)               { return "", cache.ErrMiss }
func (nullBackend) Set(context.Context, string, string, time.Duration) error { return nil }
func (nullBackend) Incr(context.Context, string) (int64, error)              { return 1, nil }

func TestHealthChecksDatabaseBehindCache(t *testing.T) {
	repo, err := store.Open(config.Database{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "c.db")}, zerolog.Nop())
	require.NoError(t, err)

	cached := cache.New(repo, nullBackend{}, time.Minute, zerolog.Nop(), nil)
	srv, err := New(Options{Repo: cached, Logger: zerolog.Nop()})
	require.NoError(t, err)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, rec.Body.String())

	require.NoError(t, repo.Close())
	rec = do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is closed")
}

type panickingRepo struct {
	store.Repository
}

func (panickingRepo) List(context.Context, int, int) ([]store.Feature, error) {
	panic("boom")
}

func TestRecoveryReturns500(t *testing.T) {
	srv, err := New(Options{Repo: panickingRepo{}, Logger: zerolog.Nop()})
	require.NoError(t, err)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/features/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", detail(t, rec))
}

// The editor's HTTP client and this server must agree on the wire format.
func TestClientRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client, err := features.NewClient(ts.URL, 5*time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := client.Create(ctx, features.Payload{Name: "C", Geometry: geojson.NewGeometry(orb.Point{0, 0})})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	updated, err := client.Update(ctx, created.ID, features.Payload{Name: "C2", Description: "moved", Geometry: geojson.NewGeometry(orb.Point{1, 1})})
	require.NoError(t, err)
	assert.Equal(t, "moved", updated.Description)

	page, err := client.List(ctx, 0, 50)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "C2", page[0].Name)

	require.NoError(t, client.Delete(ctx, created.ID))
	_, err = client.Get(ctx, created.ID)
	assert.True(t, features.IsNotFound(err))
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

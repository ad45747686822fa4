package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/waypoint/internal/config"
	"github.com/five82/waypoint/internal/features"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.Database{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "waypoint.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func payload(name string, x, y float64) features.Payload {
	return features.Payload{Name: name, Geometry: geojson.NewGeometry(orb.Point{x, y})}
}

func TestCreateGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := payload("Depot", 77.59, 12.97)
	p.Description = "  main depot  "
	created, err := s.Create(ctx, p)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	rec, err := got.Record()
	require.NoError(t, err)

	assert.Equal(t, features.ID(created.ID), rec.ID)
	assert.Equal(t, "Depot", rec.Name)
	assert.Equal(t, "main depot", rec.Description)
	require.NotNil(t, rec.Geometry)
	assert.Equal(t, orb.Point{77.59, 12.97}, rec.Geometry.Geometry())
}

func TestBlankDescriptionStoredAsNull(t *testing.T) {
	s := openTestStore(t)
	created, err := s.Create(context.Background(), payload("A", 0, 0))
	require.NoError(t, err)
	assert.Nil(t, created.Description)
}

func TestListOrdersByIDAndPages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		_, err := s.Create(ctx, payload(name, 1, 1))
		require.NoError(t, err)
	}

	page, err := s.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "C", page[0].Name)
	assert.Equal(t, "D", page[1].Name)

	tail, err := s.List(ctx, 4, 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "E", tail[0].Name)

	empty, err := s.List(ctx, 50, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestUpdateReplacesEditableColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := payload("Old", 1, 1)
	p.Description = "keep?"
	created, err := s.Create(ctx, p)
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, payload("New", 2, 3))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "New", updated.Name)
	assert.Nil(t, updated.Description)

	rec, err := updated.Record()
	require.NoError(t, err)
	assert.Equal(t, orb.Point{2, 3}, rec.Geometry.Geometry())
}

func TestMissingIDsReportNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Update(ctx, 99, payload("X", 0, 0))
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Delete(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, payload("Gone", 0, 0))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, created.ID))

	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceAndInsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, payload("Stale", 0, 0))
	require.NoError(t, err)

	var rows []Feature
	for _, name := range []string{"One", "Two"} {
		row, err := NewFeature(payload(name, 5, 5))
		require.NoError(t, err)
		require.NoError(t, row.SetProperties(map[string]any{"source": "import"}))
		rows = append(rows, row)
	}
	require.NoError(t, s.Replace(ctx, rows))

	page, err := s.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "One", page[0].Name)

	rec, err := page[0].Record()
	require.NoError(t, err)
	assert.Equal(t, "import", rec.Properties["source"])

	extra, err := NewFeature(payload("Three", 6, 6))
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, []Feature{extra}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	require.NoError(t, s.Replace(ctx, nil))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewFeatureRequiresGeometry(t *testing.T) {
	_, err := NewFeature(features.Payload{Name: "No shape"})
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.Database{Driver: "mysql"}, zerolog.Nop())
	assert.Error(t, err)
}

// Package ingest bulk loads GeoJSON FeatureCollections into the feature
// store.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/store"
)

// DefaultPrefix names features whose properties carry no name.
const DefaultPrefix = "Feature"

// Writer is the part of the store the loader needs.
type Writer interface {
	Replace(ctx context.Context, rows []store.Feature) error
	Insert(ctx context.Context, rows []store.Feature) error
}

// Options controls a load.
type Options struct {
	// Prefix is used for synthesized names and descriptions.
	Prefix string
	// Replace empties the table before inserting.
	Replace bool
	Logger  zerolog.Logger
}

// Result summarizes a load.
type Result struct {
	Inserted int
	Skipped  int
}

// Read decodes a FeatureCollection from path, or from stdin when path is "-".
func Read(path string, stdin io.Reader) (*geojson.FeatureCollection, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return fc, nil
}

// Load converts every feature of fc into a row and writes them in one call.
// Features without geometry are skipped.
func Load(ctx context.Context, w Writer, fc *geojson.FeatureCollection, opts Options) (Result, error) {
	if fc == nil {
		return Result{}, fmt.Errorf("feature collection is nil")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	log := opts.Logger.With().Str("component", "ingest").Logger()

	var res Result
	rows := make([]store.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		n := i + 1
		if f == nil || f.Geometry == nil {
			res.Skipped++
			log.Warn().Int("index", n).Msg("skipping feature without geometry")
			continue
		}
		row, err := convert(f, n, prefix)
		if err != nil {
			return Result{}, fmt.Errorf("feature %d: %w", n, err)
		}
		rows = append(rows, row)
	}

	write := w.Insert
	if opts.Replace {
		write = w.Replace
	}
	if err := write(ctx, rows); err != nil {
		return Result{}, err
	}
	res.Inserted = len(rows)
	log.Info().
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Bool("replace", opts.Replace).
		Msg("load complete")
	return res, nil
}

func convert(f *geojson.Feature, n int, prefix string) (store.Feature, error) {
	geomType := f.Geometry.GeoJSONType()
	name := propString(f.Properties, "name")
	if name == "" {
		name = fmt.Sprintf("%s %d", prefix, n)
	}
	desc := propString(f.Properties, "description")
	if desc == "" {
		desc = fmt.Sprintf("%s %d with geometry type %s", prefix, n, geomType)
	}

	row, err := store.NewFeature(features.Payload{
		Name:        name,
		Description: desc,
		Geometry:    geojson.NewGeometry(f.Geometry),
	})
	if err != nil {
		return store.Feature{}, err
	}

	extra := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		if k == "name" || k == "description" {
			continue
		}
		extra[k] = v
	}
	if err := row.SetProperties(extra); err != nil {
		return store.Feature{}, err
	}
	return row, nil
}

func propString(props geojson.Properties, key string) string {
	v, ok := props[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

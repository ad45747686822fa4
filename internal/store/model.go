package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"gorm.io/datatypes"

	"github.com/five82/waypoint/internal/features"
)

// Feature is one row of the features table.
type Feature struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:255;not null;index"`
	Description *string
	Geometry    datatypes.JSON `gorm:"not null"`
	Properties  datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName pins the table name.
func (Feature) TableName() string {
	return "features"
}

// NewFeature builds a row from a validated payload.
func NewFeature(p features.Payload) (Feature, error) {
	var f Feature
	if err := f.apply(p); err != nil {
		return Feature{}, err
	}
	return f, nil
}

// apply overwrites the editable columns with p. A blank description is
// stored as NULL.
func (f *Feature) apply(p features.Payload) error {
	if p.Geometry == nil {
		return fmt.Errorf("encode geometry: geometry is nil")
	}
	geom, err := json.Marshal(p.Geometry)
	if err != nil {
		return fmt.Errorf("encode geometry: %w", err)
	}
	f.Name = strings.TrimSpace(p.Name)
	f.Description = nil
	if d := strings.TrimSpace(p.Description); d != "" {
		f.Description = &d
	}
	f.Geometry = datatypes.JSON(geom)
	return nil
}

// SetProperties stores extra GeoJSON properties alongside the row.
func (f *Feature) SetProperties(props map[string]any) error {
	if len(props) == 0 {
		f.Properties = nil
		return nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	f.Properties = datatypes.JSON(data)
	return nil
}

// Record converts the row to the wire representation.
func (f Feature) Record() (features.Record, error) {
	rec := features.Record{ID: features.ID(f.ID), Name: f.Name}
	if f.Description != nil {
		rec.Description = *f.Description
	}
	if len(f.Geometry) > 0 {
		g, err := geojson.UnmarshalGeometry(f.Geometry)
		if err != nil {
			return features.Record{}, fmt.Errorf("decode geometry of feature %d: %w", f.ID, err)
		}
		rec.Geometry = g
	}
	if len(f.Properties) > 0 {
		if err := json.Unmarshal(f.Properties, &rec.Properties); err != nil {
			return features.Record{}, fmt.Errorf("decode properties of feature %d: %w", f.ID, err)
		}
	}
	return rec, nil
}

// Records converts a page of rows.
func Records(rows []Feature) ([]features.Record, error) {
	out := make([]features.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

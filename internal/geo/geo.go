// Package geo wraps paulmach/orb for the pieces of GeoJSON handling waypoint
// needs: parsing geometry text typed by the operator, formatting geometries
// back into editable text, and computing bounds for the map overlay.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrEmptyGeometry is returned when there is no geometry text to parse.
var ErrEmptyGeometry = errors.New("geometry is empty")

var geometryTypes = map[string]bool{
	"Point":              true,
	"MultiPoint":         true,
	"LineString":         true,
	"MultiLineString":    true,
	"Polygon":            true,
	"MultiPolygon":       true,
	"GeometryCollection": true,
}

// ParseGeometry decodes GeoJSON geometry text. It rejects unknown types and
// geometries without coordinates before handing the payload to orb.
func ParseGeometry(text string) (*geojson.Geometry, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyGeometry
	}
	return ParseGeometryJSON([]byte(trimmed))
}

// ParseGeometryJSON is ParseGeometry for raw bytes.
func ParseGeometryJSON(data []byte) (*geojson.Geometry, error) {
	if len(data) == 0 {
		return nil, ErrEmptyGeometry
	}
	var head struct {
		Type        string            `json:"type"`
		Coordinates json.RawMessage   `json:"coordinates"`
		Geometries  []json.RawMessage `json:"geometries"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse geometry: %w", err)
	}
	if !geometryTypes[head.Type] {
		if head.Type == "" {
			return nil, fmt.Errorf("parse geometry: missing type")
		}
		return nil, fmt.Errorf("parse geometry: unsupported type %q", head.Type)
	}
	if head.Type == "GeometryCollection" {
		if head.Geometries == nil {
			return nil, fmt.Errorf("parse geometry: GeometryCollection without geometries")
		}
	} else if len(head.Coordinates) == 0 || string(head.Coordinates) == "null" {
		return nil, fmt.Errorf("parse geometry: %s without coordinates", head.Type)
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("parse geometry: %w", err)
	}
	return g, nil
}

// FormatGeometry renders a geometry as two-space indented JSON, the text the
// edit form shows. A nil geometry formats as the empty string.
func FormatGeometry(g *geojson.Geometry) string {
	if g == nil {
		return ""
	}
	out, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}

// Bound returns the union of the bounds of the given geometries. The second
// result is false when no geometry contributed.
func Bound(geoms ...orb.Geometry) (orb.Bound, bool) {
	var (
		out   orb.Bound
		found bool
	)
	for _, g := range geoms {
		if g == nil {
			continue
		}
		b := g.Bound()
		if !found {
			out = b
			found = true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}

// Zoom scales a bound around its center. Factors below one zoom in.
func Zoom(b orb.Bound, factor float64) orb.Bound {
	if factor <= 0 {
		return b
	}
	center := b.Center()
	halfW := (b.Max.X() - b.Min.X()) / 2 * factor
	halfH := (b.Max.Y() - b.Min.Y()) / 2 * factor
	return orb.Bound{
		Min: orb.Point{center.X() - halfW, center.Y() - halfH},
		Max: orb.Point{center.X() + halfW, center.Y() + halfH},
	}
}

// Widen pads degenerate bounds (a single point, a vertical line) so each
// side spans at least minSpan degrees.
func Widen(b orb.Bound, minSpan float64) orb.Bound {
	center := b.Center()
	if w := b.Max.X() - b.Min.X(); w < minSpan {
		b.Min[0] = center.X() - minSpan/2
		b.Max[0] = center.X() + minSpan/2
	}
	if h := b.Max.Y() - b.Min.Y(); h < minSpan {
		b.Min[1] = center.Y() - minSpan/2
		b.Max[1] = center.Y() + minSpan/2
	}
	return b
}

package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ID identifies a persisted record. The zero value means "not yet persisted".
type ID int64

// String renders the id for paths and log fields.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return id == 0
}

// Record mirrors a feature as served by /api/features/.
type Record struct {
	ID          ID
	Name        string
	Description string
	Geometry    *geojson.Geometry

	// Properties holds every other key of the JSON object.
	Properties map[string]any
}

var knownKeys = map[string]bool{
	"id":          true,
	"name":        true,
	"description": true,
	"geometry":    true,
}

// Shape returns the orb geometry, or nil when the record has none.
func (r Record) Shape() orb.Geometry {
	if r.Geometry == nil {
		return nil
	}
	return r.Geometry.Geometry()
}

// DisplayDescription returns the description, or a placeholder when blank.
func (r Record) DisplayDescription() string {
	if d := strings.TrimSpace(r.Description); d != "" {
		return d
	}
	return "No description"
}

// MarshalJSON flattens Properties alongside the known fields.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Properties)+4)
	for k, v := range r.Properties {
		if knownKeys[k] {
			continue
		}
		out[k] = v
	}
	if !r.ID.IsZero() {
		out["id"] = r.ID
	}
	out["name"] = r.Name
	if r.Description != "" {
		out["description"] = r.Description
	} else {
		out["description"] = nil
	}
	if r.Geometry != nil {
		out["geometry"] = r.Geometry
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the known fields and keeps the rest in Properties.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var rec Record
	for key, value := range raw {
		switch key {
		case "id":
			id, err := decodeID(value)
			if err != nil {
				return fmt.Errorf("decode id: %w", err)
			}
			rec.ID = id
		case "name":
			if err := decodeOptionalString(value, &rec.Name); err != nil {
				return fmt.Errorf("decode name: %w", err)
			}
		case "description":
			if err := decodeOptionalString(value, &rec.Description); err != nil {
				return fmt.Errorf("decode description: %w", err)
			}
		case "geometry":
			if isNull(value) {
				continue
			}
			g, err := geojson.UnmarshalGeometry(value)
			if err != nil {
				return fmt.Errorf("decode geometry: %w", err)
			}
			rec.Geometry = g
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			if rec.Properties == nil {
				rec.Properties = make(map[string]any)
			}
			rec.Properties[key] = v
		}
	}
	*r = rec
	return nil
}

// Payload is the body of create and update requests.
type Payload struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Geometry    *geojson.Geometry `json:"geometry"`
}

// DeleteResponse mirrors the confirmation returned by DELETE.
type DeleteResponse struct {
	Message string `json:"message"`
}

// decodeID accepts both numeric and string ids.
func decodeID(value json.RawMessage) (ID, error) {
	if isNull(value) {
		return 0, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unexpected id %s", string(value))
	}
	id, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return ID(id), nil
}

func decodeOptionalString(value json.RawMessage, dest *string) error {
	if isNull(value) {
		*dest = ""
		return nil
	}
	return json.Unmarshal(value, dest)
}

func isNull(value json.RawMessage) bool {
	return len(bytes.TrimSpace(value)) == 0 || string(bytes.TrimSpace(value)) == "null"
}

// Package geojson handles the FeatureCollection-shaped spot data source.
//
// Some deployments serve spots as GeoJSON rather than a flat record array:
// each feature carries Point geometry with coordinates in [lon, lat] order
// and spot attributes under properties (name, type, location, Notes). This
// package converts between that wire shape and spot records.
package geojson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/surveyline/spotd/internal/spot"
)

// FeatureCollection represents a collection of geographic features,
// following the standard GeoJSON structure.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents a single geographic feature with geometry and
// spot properties.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry represents the feature geometry. Spot features are always
// Point geometries.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

// Properties carries the spot attributes of a feature.
type Properties struct {
	ObjectID string   `json:"objectId,omitempty"`
	Name     string   `json:"name"`
	Type     string   `json:"type"` // page code: G001, G002, G003
	Location Location `json:"location"`
	Notes    string   `json:"Notes,omitempty"`
}

// Location duplicates the point position with altitude fields. The lat/lon
// here mirror geometry.coordinates; rel_alt is the relative altitude.
type Location struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Alt    float64 `json:"alt,omitempty"`
	RelAlt float64 `json:"rel_alt,omitempty"`
}

// ToSpots flattens the collection into spot records in feature order.
//
// Features without an objectId property get a synthesized positional
// identity ("f-<index>") so the store's id-uniqueness invariant holds;
// those ids are stable only for the lifetime of the loaded document.
func (fc *FeatureCollection) ToSpots() []spot.Spot {
	spots := make([]spot.Spot, 0, len(fc.Features))
	for i, f := range fc.Features {
		s := spot.Spot{
			ID:     f.Properties.ObjectID,
			Name:   f.Properties.Name,
			RelAlt: f.Properties.Location.RelAlt,
			Note:   f.Properties.Notes,
			Kind:   spot.KindFromCode(f.Properties.Type),
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("f-%d", i)
		}
		if len(f.Geometry.Coordinates) >= 2 {
			s.Lon = f.Geometry.Coordinates[0]
			s.Lat = f.Geometry.Coordinates[1]
		} else {
			s.Lat = f.Properties.Location.Lat
			s.Lon = f.Properties.Location.Lon
		}
		spots = append(spots, s)
	}
	return spots
}

// FromSpots builds a FeatureCollection from spot records, preserving order.
func FromSpots(spots []spot.Spot) *FeatureCollection {
	fc := &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(spots)),
	}
	for _, s := range spots {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{s.Lon, s.Lat},
			},
			Properties: Properties{
				ObjectID: s.ID,
				Name:     s.Name,
				Type:     s.Kind.Code(),
				Location: Location{Lat: s.Lat, Lon: s.Lon, RelAlt: s.RelAlt},
				Notes:    s.Note,
			},
		})
	}
	return fc
}

// FilterByKind returns the spots of one kind, preserving order. The mission
// page loads the shared document and shows only its own features this way.
func FilterByKind(spots []spot.Spot, kind spot.Kind) []spot.Spot {
	var out []spot.Spot
	for _, s := range spots {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// ReadFile reads and parses a GeoJSON document from the given path.
func ReadFile(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson file: %w", err)
	}
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse geojson file %s: %w", path, err)
	}
	if fc.Type != "" && fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected geojson type %q in %s", fc.Type, path)
	}
	return &fc, nil
}

// WriteFile writes the collection to the given path atomically.
func WriteFile(path string, fc *FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal geojson: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".spots-*.geojson")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace geojson file: %w", err)
	}
	return nil
}

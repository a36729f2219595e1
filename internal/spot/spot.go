// Package spot provides the data structures for spot records.
//
// A spot is a named geographic point (survey control point, landing spot,
// mission point) with WGS 84 coordinates and optional metadata. Spots are
// stored as flat JSON documents or as GeoJSON features; this package defines
// the flat record and its validation rules.
package spot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies a spot and determines which attribute set applies.
type Kind string

const (
	// KindControl is a survey ground control point (page code G001).
	// Control points carry a relative altitude.
	KindControl Kind = "control"
	// KindLanding is a takeoff/landing spot (page code G002).
	KindLanding Kind = "landing"
	// KindMission is a mission point (page code G003).
	KindMission Kind = "mission"
)

// kindCodes maps kinds to the page codes used in GeoJSON properties.type.
var kindCodes = map[Kind]string{
	KindControl: "G001",
	KindLanding: "G002",
	KindMission: "G003",
}

// Code returns the wire code for the kind ("G001", "G002", "G003").
// Unknown kinds return their string value unchanged.
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return string(k)
}

// KindFromCode resolves a page code back to a Kind.
// Unrecognized codes are preserved as-is so round-trips are lossless.
func KindFromCode(code string) Kind {
	for k, c := range kindCodes {
		if c == code {
			return k
		}
	}
	return Kind(code)
}

// Spot represents one geographic record.
//
// The JSON field names match the flat data documents served by the spots
// endpoint (objectId, name, lat, lon, rel_alt, note).
type Spot struct {
	// ID is the stable identity of the spot. Unsaved spots carry a
	// temporary identity prefixed with "new-" until persisted.
	ID string `json:"objectId"`

	// Name is required and must be non-empty on save.
	Name string `json:"name"`

	// Lat and Lon are decimal degrees (WGS 84).
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// RelAlt is the relative altitude in meters. Only control points
	// carry a meaningful value; it defaults to zero elsewhere.
	RelAlt float64 `json:"rel_alt,omitempty"`

	// Note is free-form operator text.
	Note string `json:"note,omitempty"`

	// Kind classifies the spot. Empty is allowed for legacy flat
	// documents that predate kinds.
	Kind Kind `json:"kind,omitempty"`
}

// TempIDPrefix marks identities of spots that have not been persisted yet.
const TempIDPrefix = "new-"

// IsTempID reports whether id is a temporary (unsaved) identity.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Validate checks that the spot is fit to persist.
//
// A spot is valid when it has an identity, a non-empty name, and finite
// coordinates within WGS 84 range. The editing layer accepts records that
// fail these checks; they are rejected at save time.
func (s *Spot) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("objectId is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if math.IsNaN(s.Lat) || math.IsInf(s.Lat, 0) {
		return fmt.Errorf("lat must be a finite number")
	}
	if math.IsNaN(s.Lon) || math.IsInf(s.Lon, 0) {
		return fmt.Errorf("lon must be a finite number")
	}
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("lat must be between -90 and 90 (got %v)", s.Lat)
	}
	if s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("lon must be between -180 and 180 (got %v)", s.Lon)
	}
	return nil
}

// numericPattern accepts signed decimals with at most 7 fractional digits,
// matching the precision the grid displays (toFixed(7)).
var numericPattern = regexp.MustCompile(`^-?\d+(\.\d{1,7})?$`)

// ParseNumeric parses a committed cell value for a numeric field
// (lat, lon, rel_alt).
//
// Input must be a plain signed decimal with at most 7 fractional digits;
// scientific notation, thousands separators and blank strings are rejected.
// The parsed value is always finite when err is nil.
func ParseNumeric(value string) (float64, error) {
	if !numericPattern.MatchString(value) {
		return 0, fmt.Errorf("not a valid number: %q", value)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a valid number: %q", value)
	}
	return f, nil
}

// ReadFile reads and parses a flat spot document (a JSON array of records)
// from the given path.
func ReadFile(path string) ([]Spot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spot file: %w", err)
	}
	var spots []Spot
	if err := json.Unmarshal(data, &spots); err != nil {
		return nil, fmt.Errorf("failed to parse spot file %s: %w", path, err)
	}
	return spots, nil
}

// WriteFile writes spots as a flat JSON document to the given path.
//
// The write is atomic: data goes to a temporary file in the same directory
// which is then renamed over the destination, so readers never observe a
// partially written document.
func WriteFile(path string, spots []Spot) error {
	data, err := json.MarshalIndent(spots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal spots: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".spots-*.json")
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
		return fmt.Errorf("failed to replace spot file: %w", err)
	}
	return nil
}

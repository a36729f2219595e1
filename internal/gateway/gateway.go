// Package gateway provides persistence gateway backends for spot data.
//
// A gateway is the read/write boundary for a spot document: the session
// loads from it once and pushes the full ordered record sequence back on
// save. Three backends are provided: JSON/GeoJSON files, an HTTP endpoint,
// and an embedded SQLite database.
package gateway

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the on-disk document shape of a file data source.
type Format string

const (
	// FormatFlat is a JSON array of spot records.
	FormatFlat Format = "flat"

	// FormatGeoJSON is a FeatureCollection with Point features.
	FormatGeoJSON Format = "geojson"
)

// DetectFormat infers the document format from a file path. ".geojson"
// files are GeoJSON; everything else is the flat record array.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".geojson") {
		return FormatGeoJSON
	}
	return FormatFlat
}

// ParseFormat parses a config-file format value. Empty defaults to flat.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "flat":
		return FormatFlat, nil
	case "geojson":
		return FormatGeoJSON, nil
	default:
		return FormatFlat, fmt.Errorf("invalid data format %q (want flat or geojson)", s)
	}
}

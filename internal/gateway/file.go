package gateway

import (
	"context"
	"fmt"

	"github.com/surveyline/spotd/internal/geojson"
	"github.com/surveyline/spotd/internal/spot"
)

// FileGateway reads and writes a spot document on the local filesystem,
// in either flat or GeoJSON shape. Writes are atomic (temp file + rename).
type FileGateway struct {
	path   string
	format Format
}

// NewFile creates a file gateway for the given path, inferring the format
// from the file extension.
func NewFile(path string) *FileGateway {
	return NewFileWithFormat(path, DetectFormat(path))
}

// NewFileWithFormat creates a file gateway with an explicit format.
func NewFileWithFormat(path string, format Format) *FileGateway {
	return &FileGateway{path: path, format: format}
}

// Path returns the backing file path.
func (g *FileGateway) Path() string { return g.path }

// Format returns the document format.
func (g *FileGateway) Format() Format { return g.format }

// Load reads the full ordered spot document.
func (g *FileGateway) Load(ctx context.Context) ([]spot.Spot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch g.format {
	case FormatGeoJSON:
		fc, err := geojson.ReadFile(g.path)
		if err != nil {
			return nil, err
		}
		return fc.ToSpots(), nil
	default:
		return spot.ReadFile(g.path)
	}
}

// Save replaces the document with the given spots, preserving order.
func (g *FileGateway) Save(ctx context.Context, spots []spot.Spot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch g.format {
	case FormatGeoJSON:
		return geojson.WriteFile(g.path, geojson.FromSpots(spots))
	default:
		return spot.WriteFile(g.path, spots)
	}
}

// Convert copies the document from one gateway into another, preserving
// order. Used by the convert command to move between formats and backends.
func Convert(ctx context.Context, from interface {
	Load(context.Context) ([]spot.Spot, error)
}, to interface {
	Save(context.Context, []spot.Spot) error
}) (int, error) {
	spots, err := from.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load source: %w", err)
	}
	if err := to.Save(ctx, spots); err != nil {
		return 0, fmt.Errorf("failed to write destination: %w", err)
	}
	return len(spots), nil
}

package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// GridColumn names an editable field shown in the grid.
type GridColumn struct {
	Field string `toml:"field"`
	Title string `toml:"title"`
	Width int    `toml:"width"`
}

// GridLayout configures which columns the grid shows, optionally
// overridden per spot kind.
type GridLayout struct {
	Columns []GridColumn            `toml:"columns"`
	Kinds   map[string][]GridColumn `toml:"kinds"`
}

// DefaultGridLayout mirrors the built-in grid: every editable field,
// in edit order.
func DefaultGridLayout() *GridLayout {
	return &GridLayout{
		Columns: []GridColumn{
			{Field: "name", Title: "Name", Width: 20},
			{Field: "lat", Title: "Latitude", Width: 12},
			{Field: "lon", Title: "Longitude", Width: 12},
			{Field: "rel_alt", Title: "Rel Alt", Width: 8},
			{Field: "note", Title: "Note", Width: 30},
		},
	}
}

// LoadGridLayout parses a TOML layout file. An empty path returns the
// default layout.
func LoadGridLayout(path string) (*GridLayout, error) {
	if path == "" {
		return DefaultGridLayout(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s: %w", path, err)
	}
	var layout GridLayout
	if err := toml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout %s: %w", path, err)
	}
	if len(layout.Columns) == 0 {
		layout.Columns = DefaultGridLayout().Columns
	}
	return &layout, nil
}

// ColumnsFor returns the columns for a spot kind, falling back to the
// shared column list when no per-kind override exists.
func (l *GridLayout) ColumnsFor(kind string) []GridColumn {
	if cols, ok := l.Kinds[kind]; ok && len(cols) > 0 {
		return cols
	}
	return l.Columns
}

// Package export writes spot documents to formats the rest of the
// toolchain does not read back: spreadsheets for field teams and YAML
// for review diffs.
package export

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/surveyline/spotd/internal/spot"
)

const sheetName = "Spots"

// WriteXLSX writes spots to an Excel workbook with one header row.
func WriteXLSX(path string, spots []spot.Spot) error {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	headers := []interface{}{
		"Object ID", "Name", "Latitude", "Longitude", "Rel Alt", "Kind", "Note",
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, sp := range spots {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			sp.ID, sp.Name, sp.Lat, sp.Lon, sp.RelAlt, string(sp.Kind), sp.Note,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")
	return f.SaveAs(path)
}

// yamlSpot keeps the YAML field order stable for review diffs.
type yamlSpot struct {
	ID     string  `yaml:"objectId"`
	Name   string  `yaml:"name"`
	Lat    float64 `yaml:"lat"`
	Lon    float64 `yaml:"lon"`
	RelAlt float64 `yaml:"rel_alt,omitempty"`
	Kind   string  `yaml:"kind,omitempty"`
	Note   string  `yaml:"note,omitempty"`
}

// WriteYAML writes spots as a YAML sequence.
func WriteYAML(path string, spots []spot.Spot) error {
	out := make([]yamlSpot, len(spots))
	for i, sp := range spots {
		out[i] = yamlSpot{
			ID:     sp.ID,
			Name:   sp.Name,
			Lat:    sp.Lat,
			Lon:    sp.Lon,
			RelAlt: sp.RelAlt,
			Kind:   string(sp.Kind),
			Note:   sp.Note,
		}
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal spots: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

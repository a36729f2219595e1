package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "spotd",
	Short: "Spot document manager and reconciliation server",
	Long: `spotd manages spot (waypoint) documents: named map positions with
coordinates, altitude, notes, and a kind (control, landing, mission).

It serves a document over HTTP with live WebSocket change notifications,
watches the backing file for external edits, converts between storage
backends (flat JSON, GeoJSON, SQLite), and exports to spreadsheet and
YAML formats.

Example usage:
  spotd serve --data spots.json        # Serve a flat JSON document
  spotd convert spots.json spots.db    # Copy into a SQLite database
  spotd validate spots.geojson         # Check a document before use
  spotd export spots.json out.xlsx     # Spreadsheet for field teams`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: ./spotd.yaml)")
	rootCmd.AddGroup(
		&cobra.Group{ID: "serve", Title: "Serving:"},
		&cobra.Group{ID: "data", Title: "Data management:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

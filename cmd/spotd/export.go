package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/surveyline/spotd/internal/export"
	"github.com/surveyline/spotd/internal/geojson"
	"github.com/surveyline/spotd/internal/spot"
	"github.com/surveyline/spotd/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export <source> <destination>",
	GroupID: "data",
	Short:   "Export a spot document to spreadsheet or YAML",
	Long: `Export spots to a format for people rather than for the server.

The output format is chosen by the destination extension:
  *.xlsx    Excel workbook with a header row
  *.yaml    YAML sequence, stable field order for review diffs

Use --kind to export only one spot kind (control, landing, mission, or
a page code like G002).

Example usage:
  spotd export spots.json field-teams.xlsx
  spotd export spots.db --kind landing landing.yaml`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		srcFormat, _ := cmd.Flags().GetString("from")
		kindArg, _ := cmd.Flags().GetString("kind")

		src, closeSrc, err := openGateway(args[0], srcFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening source: %v\n", err)
			os.Exit(1)
		}
		if closeSrc != nil {
			defer closeSrc()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		spots, err := src.Load(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading spots: %v\n", err)
			os.Exit(1)
		}

		if kindArg != "" {
			// Accepts both kind names and page codes.
			spots = geojson.FilterByKind(spots, spot.KindFromCode(kindArg))
		}

		dst := args[1]
		switch strings.ToLower(filepath.Ext(dst)) {
		case ".xlsx":
			err = export.WriteXLSX(dst, spots)
		case ".yaml", ".yml":
			err = export.WriteYAML(dst, spots)
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown export format %q (want .xlsx or .yaml)\n", filepath.Ext(dst))
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error during export: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Exported %d spots to %s\n", ui.RenderPass("✓"), len(spots), dst)
	},
}

func init() {
	exportCmd.Flags().String("from", "", "Source format override: flat or geojson")
	exportCmd.Flags().StringP("kind", "k", "", "Export only this spot kind")

	rootCmd.AddCommand(exportCmd)
}

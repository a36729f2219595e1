package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/surveyline/spotd/internal/gateway"
	"github.com/surveyline/spotd/internal/ui"
)

var convertCmd = &cobra.Command{
	Use:     "convert <source> <destination>",
	GroupID: "data",
	Short:   "Copy a spot document between storage backends",
	Long: `Copy all spots from one backend to another, preserving order.

Backends are chosen by the target:
  *.geojson             GeoJSON FeatureCollection
  *.db, *.sqlite        SQLite database
  http://..., https://  Remote spot API
  anything else         Flat JSON array

The destination document is replaced atomically.

Example usage:
  spotd convert spots.json spots.geojson
  spotd convert spots.geojson spots.db
  spotd convert http://localhost:3001/api/spots backup.json`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		srcFormat, _ := cmd.Flags().GetString("from")
		dstFormat, _ := cmd.Flags().GetString("to")

		src, closeSrc, err := openGateway(args[0], srcFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening source: %v\n", err)
			os.Exit(1)
		}
		if closeSrc != nil {
			defer closeSrc()
		}

		dst, closeDst, err := openGateway(args[1], dstFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening destination: %v\n", err)
			os.Exit(1)
		}
		if closeDst != nil {
			defer closeDst()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := gateway.Convert(ctx, src, dst)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error during convert: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Copied %d spots from %s to %s\n", ui.RenderPass("✓"), n, args[0], args[1])
	},
}

func init() {
	convertCmd.Flags().String("from", "", "Source format override: flat or geojson")
	convertCmd.Flags().String("to", "", "Destination format override: flat or geojson")

	rootCmd.AddCommand(convertCmd)
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/surveyline/spotd/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:     "validate <source>",
	GroupID: "data",
	Short:   "Check a spot document for problems",
	Long: `Validate every spot in a document.

Checks the same rules the server enforces at save time:
  - objectId and name are non-blank
  - latitude and longitude are finite and in range
  - no duplicate objectIds

Exits non-zero when any spot fails, so this works in scripts and CI.

Example usage:
  spotd validate spots.json
  spotd validate field.geojson`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		srcFormat, _ := cmd.Flags().GetString("from")

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

		failures := 0
		seen := make(map[string]string, len(spots))
		for _, sp := range spots {
			if err := sp.Validate(); err != nil {
				fmt.Printf("%s %s (%s): %v\n", ui.RenderWarn("⚠"), sp.ID, sp.Name, err)
				failures++
			}
			if prev, dup := seen[sp.ID]; dup {
				fmt.Printf("%s duplicate objectId %q (%s and %s)\n", ui.RenderWarn("⚠"), sp.ID, prev, sp.Name)
				failures++
			}
			seen[sp.ID] = sp.Name
		}

		if failures > 0 {
			fmt.Printf("\n%s %d of %d spots failed validation\n", ui.RenderFail("✗"), failures, len(spots))
			os.Exit(1)
		}
		fmt.Printf("%s %d spots valid\n", ui.RenderPass("✓"), len(spots))
	},
}

func init() {
	validateCmd.Flags().String("from", "", "Source format override: flat or geojson")

	rootCmd.AddCommand(validateCmd)
}

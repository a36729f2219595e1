package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/surveyline/spotd/internal/spot"
	"github.com/surveyline/spotd/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "data",
	Short:   "Create a config file and empty spot document interactively",
	Long: `Walk through initial setup and write spotd.yaml plus an empty
spot document.

Prompts for the data file, its format, the listen port, and the
validation mode. Existing files are never overwritten.`,
	Run: func(cmd *cobra.Command, args []string) {
		dataPath := "spots.json"
		format := "flat"
		portStr := "3001"
		validation := "strict"

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Spot data file").
					Description("Path to the document the server will manage").
					Value(&dataPath),
				huh.NewSelect[string]().
					Title("Data format").
					Options(
						huh.NewOption("Flat JSON array", "flat"),
						huh.NewOption("GeoJSON FeatureCollection", "geojson"),
					).
					Value(&format),
				huh.NewInput().
					Title("Listen port").
					Validate(func(s string) error {
						p, err := strconv.Atoi(s)
						if err != nil || p < 1 || p > 65535 {
							return fmt.Errorf("enter a port between 1 and 65535")
						}
						return nil
					}).
					Value(&portStr),
				huh.NewSelect[string]().
					Title("Save validation").
					Options(
						huh.NewOption("Strict (reject invalid spots)", "strict"),
						huh.NewOption("Lenient (log and save anyway)", "lenient"),
					).
					Value(&validation),
			),
		)

		if err := form.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if _, err := os.Stat("spotd.yaml"); err == nil {
			fmt.Fprintf(os.Stderr, "Error: spotd.yaml already exists\n")
			os.Exit(1)
		}

		content := fmt.Sprintf("port: %s\ndata_path: %s\ndata_format: %s\nvalidation: %s\n",
			portStr, dataPath, format, validation)
		if err := os.WriteFile("spotd.yaml", []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}

		if _, err := os.Stat(dataPath); os.IsNotExist(err) {
			if err := spot.WriteFile(dataPath, []spot.Spot{}); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing data file: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Created empty document %s\n", ui.RenderPass("✓"), dataPath)
		}

		fmt.Printf("%s Wrote spotd.yaml\n", ui.RenderPass("✓"))
		fmt.Printf("\nStart the server with:\n  spotd serve\n")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

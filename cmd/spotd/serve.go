package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/surveyline/spotd/internal/config"
	"github.com/surveyline/spotd/internal/logging"
	"github.com/surveyline/spotd/internal/server"
	"github.com/surveyline/spotd/internal/ui"
	"github.com/surveyline/spotd/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "serve",
	Short:   "Serve a spot document over HTTP with live change notifications",
	Long: `Start the spot document server.

The server exposes the document at /api/spots (GET returns the current
spots, PUT atomically replaces the whole document) and broadcasts
changes to WebSocket clients at /ws.

WebSocket messages include:
- spot_update: The document was replaced via PUT
- external_change: The backing file changed on disk
- stats: Connection statistics sent on connect

When the backing store is a file, a watcher detects external edits and
notifies connected clients. The server's own writes are suppressed so
saves do not echo back as external changes.

Example usage:
  spotd serve                          # spots.json on port 3001
  spotd serve --data field.geojson     # GeoJSON document
  spotd serve --data spots.db -p 9000  # SQLite backend, custom port`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if dataPath, _ := cmd.Flags().GetString("data"); dataPath != "" {
			cfg.DataPath = dataPath
		}
		if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		if format, _ := cmd.Flags().GetString("format"); format != "" {
			cfg.DataFormat = format
		}

		logger := logging.NewWithOptions("spotd", logging.Options{
			File:       cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		})

		gw, closeGw, err := openGateway(cfg.DataPath, cfg.DataFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening data store: %v\n", err)
			os.Exit(1)
		}
		if closeGw != nil {
			defer closeGw()
		}

		// Watch the backing file for external edits. HTTP and SQLite
		// backends have no file to watch.
		var w *watcher.Watcher
		if !strings.HasPrefix(cfg.DataPath, "http") && closeGw == nil {
			if _, statErr := os.Stat(cfg.DataPath); statErr == nil {
				w, err = watcher.New(cfg.DataPath, cfg.Debounce)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error creating watcher: %v\n", err)
					os.Exit(1)
				}
			}
		}

		srvConfig := &server.Config{
			Port:   cfg.Port,
			Logger: logger,
		}
		if w != nil {
			// Keep our own saves from echoing back as external changes.
			srvConfig.BeforeSave = func() { w.Suppress(cfg.Debounce * 5) }
		}

		srv := server.New(gw, srvConfig)
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start server: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if w != nil {
			if err := w.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to start watcher: %v\n", err)
				os.Exit(1)
			}
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case _, ok := <-w.Events():
						if !ok {
							return
						}
						spots, loadErr := gw.Load(ctx)
						if loadErr != nil {
							logger.Printf("external change: reload failed: %v", loadErr)
							continue
						}
						logger.Printf("external change detected (%d spots)", len(spots))
						srv.NotifyExternalChange(len(spots))
					case watchErr, ok := <-w.Errors():
						if !ok {
							return
						}
						logger.Printf("watcher error: %v", watchErr)
					}
				}
			}()
		}

		fmt.Printf("%s Spot server started on http://localhost:%d\n", ui.RenderAccent("🚀"), cfg.Port)
		fmt.Printf("   Document: %s\n", cfg.DataPath)
		fmt.Printf("   WebSocket: ws://localhost:%d/ws\n", cfg.Port)
		fmt.Printf("   Health: http://localhost:%d/health\n", cfg.Port)
		fmt.Println("\nPress Ctrl+C to stop...")

		<-ctx.Done()

		fmt.Println("\nShutting down...")
		if w != nil {
			if err := w.Stop(); err != nil {
				logger.Printf("watcher stop: %v", err)
			}
		}
		if err := srv.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Server stopped\n", ui.RenderPass("✓"))
	},
}

func init() {
	serveCmd.Flags().StringP("data", "d", "", "Spot data file or database")
	serveCmd.Flags().IntP("port", "p", 3001, "Port to listen on")
	serveCmd.Flags().String("format", "", "Data format: flat or geojson (default: detect)")

	rootCmd.AddCommand(serveCmd)
}

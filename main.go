package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/gaze.report/api"
	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/db"
	"github.com/banshee-data/gaze.report/internal/gaze/calib"
	"github.com/banshee-data/gaze.report/internal/gaze/ingest"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
	"github.com/banshee-data/gaze.report/internal/gaze/storage/sqlite"
)

var (
	devMode       = flag.Bool("dev", false, "Replay fixture frames instead of listening for a detector")
	listen        = flag.String("listen", ":8080", "HTTP listen address")
	framesAddr    = flag.String("frames", ":9777", "UDP address for detector frames")
	dbFile        = flag.String("db", "gaze_data.db", "Path to the sqlite database")
	configFile    = flag.String("config", "", "Path to a tracking config JSON file")
	fixturesFile  = flag.String("fixtures", "fixtures.jsonl", "Fixture frames for dev mode")
	migrationsDir = flag.String("migrations", "", "Run migrations from this directory before starting")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyTrackingConfig()
	if *configFile != "" {
		loaded, err := config.LoadTrackingConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load tracking config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid tracking config: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *migrationsDir != "" {
		if err := database.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Restore the most recent calibration so the engine starts with the
	// user's thresholds instead of defaults.
	thresholds := calib.NewStateStore()
	calStore := sqlite.NewCalibrationStore(database.DB)
	if data, sessionID, err := calStore.LoadLatest(); err != nil {
		log.Fatalf("failed to load calibration: %v", err)
	} else if data != nil && data.Thresholds != nil {
		thresholds.Apply(*data.Thresholds, true)
		log.Printf("restored calibration session %s from %s", sessionID, data.CalibratedAt.Format(time.RFC3339))
	}

	processor := pipeline.NewProcessor(cfg, thresholds)
	processor.ResetTracking()
	sessions := calib.NewManager(thresholds, calStore)

	if err := database.RecordEvent("startup", fmt.Sprintf("listen=%s dev=%v", *listen, *devMode)); err != nil {
		log.Printf("failed to record startup event: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Frame ingest: fixtures replay in dev mode, UDP from the detector
	// process otherwise.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if *devMode {
			replayer, err := ingest.NewReplayer(*fixturesFile, 0, true, processor)
			if err != nil {
				log.Fatalf("failed to open fixtures: %v", err)
			}
			if err := replayer.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("replay terminated: %v", err)
			}
		} else {
			listener, err := ingest.NewUDPListener(ingest.UDPListenerConfig{
				Address: *framesAddr,
				Sink:    processor,
			})
			if err != nil {
				log.Fatalf("failed to create frame listener: %v", err)
			}
			if err := listener.Listen(ctx); err != nil && err != context.Canceled {
				log.Printf("frame listener terminated: %v", err)
			}
		}
		log.Print("ingest routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(processor, sessions, thresholds).ServeMux()

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

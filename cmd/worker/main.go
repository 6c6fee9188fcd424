package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/stitchpoint/prodplan-backend/internal/clients/openai"
	"github.com/stitchpoint/prodplan-backend/internal/data/repos/jobs"
	"github.com/stitchpoint/prodplan-backend/internal/data/repos/orders"
	"github.com/stitchpoint/prodplan-backend/internal/db"
	"github.com/stitchpoint/prodplan-backend/internal/extract"
	"github.com/stitchpoint/prodplan-backend/internal/ingest"
	"github.com/stitchpoint/prodplan-backend/internal/pipeline"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/temporalx"
	"github.com/stitchpoint/prodplan-backend/internal/temporalx/temporalworker"
	"github.com/stitchpoint/prodplan-backend/internal/uploads"
)

// Standalone worker binary: polls the parse task queue without serving HTTP.
func main() {
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Error("Database automigrate failed", "error", err)
		os.Exit(1)
	}
	theDB := pg.DB()

	store, err := uploads.NewStoreFromEnv(log)
	if err != nil {
		log.Error("Upload store init failed", "error", err)
		os.Exit(1)
	}
	llm, err := openai.NewClient(log)
	if err != nil {
		log.Error("OpenAI client init failed", "error", err)
		os.Exit(1)
	}

	orderRepo := orders.NewOrderRepo(theDB, log)
	jobRepo := jobs.NewJobRepo(theDB, log)
	pl := pipeline.New(log, store, extract.NewExtractor(log, llm), ingest.NewIngestor(log, orderRepo), jobRepo)

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Error("Temporal client init failed", "error", err)
		os.Exit(1)
	}
	if tc == nil {
		log.Error("TEMPORAL_ADDRESS is required for the worker binary")
		os.Exit(1)
	}
	defer tc.Close()

	runner, err := temporalworker.NewRunner(log, tc, pl)
	if err != nil {
		log.Error("Temporal worker init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := runner.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	})

	log.Info("Worker running; waiting for jobs")
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Worker shut down")
}

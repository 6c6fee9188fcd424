package app

import (
	"context"
	"fmt"
	"os"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/stitchpoint/prodplan-backend/internal/clients/openai"
	"github.com/stitchpoint/prodplan-backend/internal/data/repos/jobs"
	"github.com/stitchpoint/prodplan-backend/internal/data/repos/orders"
	"github.com/stitchpoint/prodplan-backend/internal/db"
	"github.com/stitchpoint/prodplan-backend/internal/extract"
	apphttp "github.com/stitchpoint/prodplan-backend/internal/http"
	httpH "github.com/stitchpoint/prodplan-backend/internal/http/handlers"
	"github.com/stitchpoint/prodplan-backend/internal/ingest"
	"github.com/stitchpoint/prodplan-backend/internal/observability"
	"github.com/stitchpoint/prodplan-backend/internal/pipeline"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/services"
	"github.com/stitchpoint/prodplan-backend/internal/temporalx"
	"github.com/stitchpoint/prodplan-backend/internal/temporalx/temporalworker"
	"github.com/stitchpoint/prodplan-backend/internal/uploads"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Temporal temporalsdkclient.Client
	Pipeline *pipeline.Pipeline
	Worker   *temporalworker.Runner
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "prodplan-backend",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := pg.DB()

	store, err := uploads.NewStoreFromEnv(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init upload store: %w", err)
	}

	llm, err := openai.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init openai client: %w", err)
	}

	orderRepo := orders.NewOrderRepo(theDB, log)
	jobRepo := jobs.NewJobRepo(theDB, log)

	pl := pipeline.New(log, store, extract.NewExtractor(log, llm), ingest.NewIngestor(log, orderRepo), jobRepo)

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init temporal client: %w", err)
	}

	dispatcher := services.NewJobDispatcher(log, tc, pl)
	uploadSvc := services.NewUploadService(log, store, jobRepo, dispatcher)
	itemSvc := services.NewItemService(log, orderRepo)
	jobStatusSvc := services.NewJobStatusService(log, jobRepo)

	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:           log,
		HealthHandler: httpH.NewHealthHandler(log, pg),
		UploadHandler: httpH.NewUploadHandler(log, uploadSvc),
		ItemsHandler:  httpH.NewItemsHandler(log, itemSvc),
		TaskHandler:   httpH.NewTaskHandler(log, jobStatusSvc),
	})

	var worker *temporalworker.Runner
	if tc != nil && cfg.WorkerInProcess {
		worker, err = temporalworker.NewRunner(log, tc, pl)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init temporal worker: %w", err)
		}
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           theDB,
		Temporal:     tc,
		Pipeline:     pl,
		Worker:       worker,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the in-process Temporal worker, if one is configured.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if a.Worker != nil {
		if err := a.Worker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

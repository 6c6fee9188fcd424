package app

import (
	"github.com/stitchpoint/prodplan-backend/internal/platform/envutil"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	// WorkerInProcess runs the Temporal worker inside the API process. Turn
	// it off when a dedicated worker binary polls the task queue.
	WorkerInProcess bool
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:            envutil.GetEnv("PORT", "8000", log),
		Environment:     envutil.GetEnv("APP_ENV", "development", log),
		Version:         envutil.GetEnv("APP_VERSION", "1.0.0", log),
		WorkerInProcess: envutil.GetEnvAsBool("TEMPORAL_WORKER_IN_PROCESS", true, log),
	}
}

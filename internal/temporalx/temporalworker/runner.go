package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/stitchpoint/prodplan-backend/internal/pipeline"
	"github.com/stitchpoint/prodplan-backend/internal/platform/envutil"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/temporalx"
	"github.com/stitchpoint/prodplan-backend/internal/temporalx/parsejob"
)

// Runner polls the parse task queue and executes jobs through the pipeline.
type Runner struct {
	log *logger.Logger
	tc  temporalsdkclient.Client
	pl  *pipeline.Pipeline
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, pl *pipeline.Pipeline) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if pl == nil {
		return nil, fmt.Errorf("temporal worker missing pipeline")
	}
	return &Runner{log: log, tc: tc, pl: pl}, nil
}

func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}

	cfg := temporalx.LoadConfig()
	if r.log != nil {
		r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)
	}

	if envutil.GetEnvAsBool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false, r.log) {
		if err := temporalx.EnsureNamespace(ctx, r.tc, cfg.Namespace, r.log); err != nil && r.log != nil {
			r.log.Warn("Temporal namespace ensure failed; worker will retry on start", "namespace", cfg.Namespace, "error", err)
		}
	}

	maxWait := time.Duration(envutil.GetEnvAsInt("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60, r.log)) * time.Second
	backoff := time.Duration(envutil.GetEnvAsInt("TEMPORAL_WORKER_START_BACKOFF_MS", 250, r.log)) * time.Millisecond
	backoffMax := time.Duration(envutil.GetEnvAsInt("TEMPORAL_WORKER_START_BACKOFF_MAX_MS", 5000, r.log)) * time.Millisecond

	deadline := time.Now().Add(maxWait)
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker(cfg)
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			if r.log != nil {
				r.log.Info("Temporal worker started", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempts", attempt)
			}
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && envutil.GetEnvAsBool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false, r.log) {
			_ = temporalx.EnsureNamespace(ctx, r.tc, cfg.Namespace, r.log)
		}

		if maxWait <= 0 || time.Now().After(deadline) {
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}
		if r.log != nil {
			r.log.Warn("Temporal worker failed to start; retrying", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempt", attempt, "error", startErr)
		}
		if sleep := backoffFor(backoff, backoffMax, attempt); sleep > 0 {
			time.Sleep(sleep)
		}
	}
}

func (r *Runner) newWorker(cfg temporalx.Config) worker.Worker {
	concurrency := envutil.GetEnvAsInt("WORKER_CONCURRENCY", 4, r.log)
	if concurrency < 1 {
		concurrency = 1
	}

	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	acts := &parsejob.Activities{Log: r.log, Pipeline: r.pl}
	w.RegisterWorkflowWithOptions(parsejob.Workflow, workflow.RegisterOptions{Name: parsejob.WorkflowName})
	w.RegisterActivityWithOptions(acts.Run, activity.RegisterOptions{Name: parsejob.ActivityName})
	return w
}

func backoffFor(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if max > 0 && sleep >= max {
			return max
		}
	}
	if max > 0 && sleep > max {
		return max
	}
	return sleep
}

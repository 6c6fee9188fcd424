package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/stitchpoint/prodplan-backend/internal/pipeline"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/temporalx"
	"github.com/stitchpoint/prodplan-backend/internal/temporalx/parsejob"
)

// JobDispatcher hands an accepted job to the worker pool. Enqueue returns as
// soon as the job is handed off; the caller polls the job row for progress.
type JobDispatcher interface {
	Enqueue(ctx context.Context, jobID uuid.UUID) error
}

// NewJobDispatcher picks the Temporal dispatcher when a client is
// configured, otherwise falls back to running jobs on a goroutine inside
// this process. The fallback keeps single-binary deployments working
// without a Temporal server.
func NewJobDispatcher(log *logger.Logger, tc temporalsdkclient.Client, pl *pipeline.Pipeline) JobDispatcher {
	if tc == nil {
		log.Warn("Temporal not configured; jobs will run in-process")
		return &localDispatcher{log: log.With("service", "LocalDispatcher"), pl: pl}
	}
	cfg := temporalx.LoadConfig()
	return &temporalDispatcher{
		log:       log.With("service", "TemporalDispatcher"),
		tc:        tc,
		taskQueue: cfg.TaskQueue,
	}
}

type temporalDispatcher struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

func (d *temporalDispatcher) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	tq := strings.TrimSpace(d.taskQueue)
	if tq == "" {
		tq = "prodplan"
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    jobID.String(),
		TaskQueue:             tq,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    1,
		},
	}
	_, err := d.tc.ExecuteWorkflow(ctx, opts, parsejob.WorkflowName)
	if err != nil {
		return err
	}
	d.log.Info("Parse job enqueued", "job_id", jobID, "task_queue", tq)
	return nil
}

type localDispatcher struct {
	log *logger.Logger
	pl  *pipeline.Pipeline
}

func (d *localDispatcher) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	go func() {
		// Detach from the request context: the upload response returns
		// before the job runs.
		if err := d.pl.Run(context.Background(), jobID); err != nil {
			d.log.Error("In-process parse job failed", "job_id", jobID, "error", err)
		}
	}()
	d.log.Info("Parse job started in-process", "job_id", jobID)
	return nil
}

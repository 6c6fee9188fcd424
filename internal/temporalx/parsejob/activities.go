package parsejob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/stitchpoint/prodplan-backend/internal/pipeline"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

type Activities struct {
	Log      *logger.Logger
	Pipeline *pipeline.Pipeline
}

// Run executes the parse pipeline for one job. The pipeline writes the
// terminal result to the job row before returning, so a pipeline failure is
// logged and swallowed here: re-running the activity would only duplicate
// work against a job that is already terminal.
func (a *Activities) Run(ctx context.Context, jobID string) error {
	if a == nil || a.Pipeline == nil {
		return fmt.Errorf("parsejob: activity not configured")
	}
	parsed, err := uuid.Parse(strings.TrimSpace(jobID))
	if err != nil || parsed == uuid.Nil {
		return fmt.Errorf("parsejob: invalid job_id %q", jobID)
	}

	stopHB := startHeartbeat(ctx)
	defer stopHB()

	if runErr := a.Pipeline.Run(ctx, parsed); runErr != nil && a.Log != nil {
		a.Log.Error("Parse job pipeline failed", "job_id", parsed, "error", runErr)
	}
	return nil
}

func startHeartbeat(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		hb := time.NewTicker(10 * time.Second)
		defer hb.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-hb.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}

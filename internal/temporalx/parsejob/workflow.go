package parsejob

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow runs one spreadsheet parse job. The workflow ID is the job's
// uuid, so the run needs no inputs. The activity records the terminal
// outcome on the job row itself; a Temporal-level retry would re-process a
// job that already holds its result, so retries stay off.
func Workflow(ctx workflow.Context) error {
	jobID := strings.TrimSpace(workflow.GetInfo(ctx).WorkflowExecution.ID)
	if jobID == "" {
		return fmt.Errorf("parsejob: missing job_id")
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	return workflow.ExecuteActivity(ctx, ActivityName, jobID).Get(ctx, nil)
}

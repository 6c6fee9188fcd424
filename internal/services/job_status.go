package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/stitchpoint/prodplan-backend/internal/data/repos/jobs"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

// TaskStatusView is the poll response for one parse job. Result is only
// populated once the job is terminal.
type TaskStatusView struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

type JobStatusService interface {
	Status(dbc dbctx.Context, taskID string) (*TaskStatusView, error)
}

type jobStatusService struct {
	log     *logger.Logger
	jobRepo jobs.JobRepo
}

func NewJobStatusService(log *logger.Logger, jobRepo jobs.JobRepo) JobStatusService {
	return &jobStatusService{log: log.With("service", "JobStatusService"), jobRepo: jobRepo}
}

func (s *jobStatusService) Status(dbc dbctx.Context, taskID string) (*TaskStatusView, error) {
	id, err := uuid.Parse(taskID)
	if err != nil || id == uuid.Nil {
		return nil, fmt.Errorf("invalid task id %q: %w", taskID, apperr.ErrNotFound)
	}
	job, err := s.jobRepo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}

	view := &TaskStatusView{TaskID: job.ID.String(), Status: job.Status}
	if job.Terminal() && len(job.Result) > 0 {
		view.Result = json.RawMessage(job.Result)
	}
	return view, nil
}

package services

import (
	"fmt"
	"io"

	"github.com/stitchpoint/prodplan-backend/internal/data/repos/jobs"
	"github.com/stitchpoint/prodplan-backend/internal/domain"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/sheet"
	"github.com/stitchpoint/prodplan-backend/internal/uploads"
)

// UploadService accepts a spreadsheet, stashes the bytes, creates the parse
// job row, and enqueues the job. It never waits on the pipeline.
type UploadService interface {
	Accept(dbc dbctx.Context, filename string, r io.Reader) (*domain.ParseJob, int64, error)
}

type uploadService struct {
	log        *logger.Logger
	store      uploads.Store
	jobRepo    jobs.JobRepo
	dispatcher JobDispatcher
}

func NewUploadService(log *logger.Logger, store uploads.Store, jobRepo jobs.JobRepo, dispatcher JobDispatcher) UploadService {
	return &uploadService{
		log:        log.With("service", "UploadService"),
		store:      store,
		jobRepo:    jobRepo,
		dispatcher: dispatcher,
	}
}

func (s *uploadService) Accept(dbc dbctx.Context, filename string, r io.Reader) (*domain.ParseJob, int64, error) {
	if !sheet.AllowedExtension(filename) {
		return nil, 0, &apperr.FileFormatError{
			Filename: filename,
			Err:      fmt.Errorf("invalid file type; please upload an Excel file (.xlsx or .xls)"),
		}
	}

	key, size, err := s.store.Save(dbc.Ctx, filename, r)
	if err != nil {
		return nil, 0, err
	}

	job, err := s.jobRepo.Create(dbc, &domain.ParseJob{
		Filename:   filename,
		StorageKey: key,
	})
	if err != nil {
		// The upload is orphaned without a job row; don't leave it behind.
		if rmErr := s.store.Remove(dbc.Ctx, key); rmErr != nil {
			s.log.Warn("Orphaned upload cleanup failed", "storage_key", key, "error", rmErr)
		}
		return nil, 0, err
	}

	if err := s.dispatcher.Enqueue(dbc.Ctx, job.ID); err != nil {
		s.log.Error("Job enqueue failed", "job_id", job.ID, "error", err)
		if failErr := s.jobRepo.Fail(dbc, job.ID, fmt.Sprintf("enqueue failed: %v", err), nil); failErr != nil {
			s.log.Error("Could not record enqueue failure", "job_id", job.ID, "error", failErr)
		}
		if rmErr := s.store.Remove(dbc.Ctx, key); rmErr != nil {
			s.log.Warn("Upload cleanup failed after enqueue failure", "storage_key", key, "error", rmErr)
		}
		return nil, 0, err
	}

	s.log.Info("Upload accepted", "job_id", job.ID, "filename", filename, "size", size)
	return job, size, nil
}

package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stitchpoint/prodplan-backend/internal/domain"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

type JobRepo interface {
	Create(dbc dbctx.Context, job *domain.ParseJob) (*domain.ParseJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ParseJob, error)
	MarkStarted(dbc dbctx.Context, id uuid.UUID) error
	// Succeed and Fail commit the job's terminal result. The guard on the
	// current status makes the terminal transition happen at most once.
	Succeed(dbc dbctx.Context, id uuid.UUID, result datatypes.JSON) error
	Fail(dbc dbctx.Context, id uuid.UUID, errMsg string, result datatypes.JSON) error
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{db: db, log: baseLog.With("repo", "JobRepo")}
}

func (r *jobRepo) handle(dbc dbctx.Context) *gorm.DB {
	tx := dbc.Tx
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(dbc.Ctx)
}

func (r *jobRepo) Create(dbc dbctx.Context, job *domain.ParseJob) (*domain.ParseJob, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = domain.JobStatusPending
	}
	if err := r.handle(dbc).Create(job).Error; err != nil {
		return nil, &apperr.StoreError{Op: "insert job", Err: err}
	}
	return job, nil
}

func (r *jobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ParseJob, error) {
	var job domain.ParseJob
	if err := r.handle(dbc).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, &apperr.StoreError{Op: "get job", Err: err}
	}
	return &job, nil
}

func (r *jobRepo) MarkStarted(dbc dbctx.Context, id uuid.UUID) error {
	err := r.handle(dbc).
		Model(&domain.ParseJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusPending).
		Updates(map[string]any{
			"status":     domain.JobStatusStarted,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return &apperr.StoreError{Op: "mark job started", Err: err}
	}
	return nil
}

func (r *jobRepo) terminal(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	res := r.handle(dbc).
		Model(&domain.ParseJob{}).
		Where("id = ? AND status NOT IN ?", id, []string{domain.JobStatusSuccess, domain.JobStatusFailure}).
		Updates(updates)
	if res.Error != nil {
		return &apperr.StoreError{Op: "terminalize job", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		r.log.Warn("Job already terminal; result not rewritten", "job_id", id)
	}
	return nil
}

func (r *jobRepo) Succeed(dbc dbctx.Context, id uuid.UUID, result datatypes.JSON) error {
	return r.terminal(dbc, id, map[string]any{
		"status":     domain.JobStatusSuccess,
		"result":     result,
		"updated_at": time.Now().UTC(),
	})
}

func (r *jobRepo) Fail(dbc dbctx.Context, id uuid.UUID, errMsg string, result datatypes.JSON) error {
	return r.terminal(dbc, id, map[string]any{
		"status":     domain.JobStatusFailure,
		"error":      errMsg,
		"result":     result,
		"updated_at": time.Now().UTC(),
	})
}

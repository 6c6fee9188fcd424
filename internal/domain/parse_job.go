package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobStatusPending = "pending"
	JobStatusStarted = "started"
	JobStatusSuccess = "success"
	JobStatusFailure = "failure"
)

// ParseJob is one asynchronous unit of work: read an uploaded spreadsheet,
// extract orders, ingest them. The row is the single source of truth for the
// job status poll; exactly one terminal result is ever recorded per job.
type ParseJob struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Status     string         `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Filename   string         `gorm:"column:filename;not null" json:"filename"`
	StorageKey string         `gorm:"column:storage_key;not null" json:"storage_key"`
	Result     datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`
	Error      string         `gorm:"column:error" json:"error"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (ParseJob) TableName() string { return "parse_job" }

// Terminal reports whether the job has committed its one terminal result.
func (j *ParseJob) Terminal() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailure
}

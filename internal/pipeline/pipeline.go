package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stitchpoint/prodplan-backend/internal/data/repos/jobs"
	"github.com/stitchpoint/prodplan-backend/internal/extract"
	"github.com/stitchpoint/prodplan-backend/internal/ingest"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/sheet"
	"github.com/stitchpoint/prodplan-backend/internal/uploads"
)

// Result is the payload recorded on a job that ran to completion.
type Result struct {
	Status          string `json:"status"`
	Filename        string `json:"filename"`
	OrdersProcessed int    `json:"orders_processed"`
	OrdersStored    int    `json:"orders_stored"`
	TaskID          string `json:"task_id"`
}

// ErrorResult is the payload recorded on a job that failed anywhere in the
// read/extract/store sequence. The counts report how far ingestion got
// before the failure; rows already written stay written.
type ErrorResult struct {
	Status          string `json:"status"`
	Filename        string `json:"filename"`
	Error           string `json:"error"`
	OrdersProcessed int    `json:"orders_processed"`
	OrdersStored    int    `json:"orders_stored"`
	TaskID          string `json:"task_id"`
}

// Pipeline runs one parse job end to end: load the stored workbook, extract
// orders through the LLM, persist them, and record the terminal result on
// the job row. The uploaded file is deleted whether or not the run succeeds.
type Pipeline struct {
	log       *logger.Logger
	store     uploads.Store
	extractor *extract.Extractor
	ingestor  *ingest.Ingestor
	jobRepo   jobs.JobRepo
}

func New(log *logger.Logger, store uploads.Store, extractor *extract.Extractor, ingestor *ingest.Ingestor, jobRepo jobs.JobRepo) *Pipeline {
	return &Pipeline{
		log:       log.With("component", "Pipeline"),
		store:     store,
		extractor: extractor,
		ingestor:  ingestor,
		jobRepo:   jobRepo,
	}
}

// Run processes the job and records its terminal status. The returned error
// reports what went wrong for the caller's logs; by the time Run returns,
// the job row already carries the outcome, so callers should not retry.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}
	job, err := p.jobRepo.GetByID(dbc, jobID)
	if err != nil {
		return err
	}
	runLog := p.log.With("job_id", jobID, "filename", job.Filename)

	if err := p.jobRepo.MarkStarted(dbc, jobID); err != nil {
		runLog.Warn("Could not mark job started; continuing", "error", err)
	}

	defer func() {
		if err := p.store.Remove(ctx, job.StorageKey); err != nil {
			runLog.Warn("Upload cleanup failed", "storage_key", job.StorageKey, "error", err)
		}
	}()

	processed, stored, runErr := p.run(ctx, dbc, job.StorageKey, job.Filename, jobID)
	if runErr != nil {
		runLog.Error("Parse job failed", "error", runErr)
		errPayload := marshalPayload(ErrorResult{
			Status:          "error",
			Filename:        job.Filename,
			Error:           runErr.Error(),
			OrdersProcessed: processed,
			OrdersStored:    stored,
			TaskID:          jobID.String(),
		})
		if failErr := p.jobRepo.Fail(dbc, jobID, runErr.Error(), errPayload); failErr != nil {
			runLog.Error("Could not record job failure", "error", failErr)
		}
		return runErr
	}

	runLog.Info("Parse job finished", "orders_processed", processed, "orders_stored", stored)
	payload := marshalPayload(Result{
		Status:          "success",
		Filename:        job.Filename,
		OrdersProcessed: processed,
		OrdersStored:    stored,
		TaskID:          jobID.String(),
	})
	if err := p.jobRepo.Succeed(dbc, jobID, payload); err != nil {
		runLog.Error("Could not record job success", "error", err)
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, dbc dbctx.Context, storageKey, filename string, jobID uuid.UUID) (processed, stored int, err error) {
	f, err := p.store.Open(ctx, storageKey)
	if err != nil {
		return 0, 0, err
	}
	table, err := sheet.Read(f, filename)
	_ = f.Close()
	if err != nil {
		return 0, 0, err
	}

	csvData, err := table.CSV()
	if err != nil {
		return 0, 0, err
	}

	raws, err := p.extractor.ExtractOrders(ctx, csvData, filename)
	if err != nil {
		return 0, 0, err
	}

	stored, err = p.ingestor.IngestOrders(dbc, raws, jobID, filename)
	if err != nil {
		return len(raws), stored, err
	}
	return len(raws), stored, nil
}

func marshalPayload(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/stitchpoint/prodplan-backend/internal/data/repos/orders"
	"github.com/stitchpoint/prodplan-backend/internal/domain"
	"github.com/stitchpoint/prodplan-backend/internal/extract"
	"github.com/stitchpoint/prodplan-backend/internal/ingest"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

type fakeStore struct {
	objects map[string][]byte
	removed []string
}

func (s *fakeStore) Save(ctx context.Context, filename string, r io.Reader) (string, int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	key := uuid.New().String()
	s.objects[key] = b
	return key, int64(len(b)), nil
}

func (s *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object %q", key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

type fakeJobRepo struct {
	job     *domain.ParseJob
	started bool
	status  string
	errMsg  string
	result  datatypes.JSON
}

func (r *fakeJobRepo) Create(dbc dbctx.Context, job *domain.ParseJob) (*domain.ParseJob, error) {
	r.job = job
	return job, nil
}

func (r *fakeJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ParseJob, error) {
	return r.job, nil
}

func (r *fakeJobRepo) MarkStarted(dbc dbctx.Context, id uuid.UUID) error {
	r.started = true
	return nil
}

func (r *fakeJobRepo) Succeed(dbc dbctx.Context, id uuid.UUID, result datatypes.JSON) error {
	r.status = domain.JobStatusSuccess
	r.result = result
	return nil
}

func (r *fakeJobRepo) Fail(dbc dbctx.Context, id uuid.UUID, errMsg string, result datatypes.JSON) error {
	r.status = domain.JobStatusFailure
	r.errMsg = errMsg
	r.result = result
	return nil
}

type fakeOrderRepo struct {
	created []*domain.ProductionOrder
	failAt  int // 1-based insert index that fails; 0 means never
	err     error
}

func (f *fakeOrderRepo) Create(dbc dbctx.Context, order *domain.ProductionOrder) (*domain.ProductionOrder, error) {
	if f.err != nil && (f.failAt == 0 || len(f.created)+1 == f.failAt) {
		return nil, f.err
	}
	f.created = append(f.created, order)
	return order, nil
}

func (f *fakeOrderRepo) List(dbc dbctx.Context, filter orders.ListFilter) ([]*domain.ProductionOrder, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderRepo) GetByIDOrOrderID(dbc dbctx.Context, id string) (*domain.ProductionOrder, error) {
	return nil, nil
}

func (f *fakeOrderRepo) DeleteByIDOrOrderID(dbc dbctx.Context, id string) (*domain.ProductionOrder, error) {
	return nil, nil
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	return f.response, f.err
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"PO", "Qty"},
		{"PO-1", 500},
		{"PO-2", 250},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func newTestPipeline(t *testing.T, llm *fakeLLM, orderRepo *fakeOrderRepo, jobRepo *fakeJobRepo, store *fakeStore) *Pipeline {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return New(log, store, extract.NewExtractor(log, llm), ingest.NewIngestor(log, orderRepo), jobRepo)
}

func seedJob(store *fakeStore, contents []byte) *domain.ParseJob {
	key := uuid.New().String() + ".xlsx"
	store.objects[key] = contents
	return &domain.ParseJob{
		ID:         uuid.New(),
		Status:     domain.JobStatusPending,
		Filename:   "plan.xlsx",
		StorageKey: key,
	}
}

func TestPipelineSuccess(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	jobRepo := &fakeJobRepo{job: seedJob(store, workbookBytes(t))}
	orderRepo := &fakeOrderRepo{}
	llm := &fakeLLM{response: "```json\n{\"orders\": [" +
		"{\"order_id\": \"PO-1\", \"quantity\": 500}," +
		"{\"order_id\": \"PO-2\", \"quantity\": 250}]}\n```"}

	p := newTestPipeline(t, llm, orderRepo, jobRepo, store)
	if err := p.Run(context.Background(), jobRepo.job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !jobRepo.started {
		t.Fatalf("job was never marked started")
	}
	if jobRepo.status != domain.JobStatusSuccess {
		t.Fatalf("job status: want=success got=%q", jobRepo.status)
	}
	if len(orderRepo.created) != 2 {
		t.Fatalf("orders stored: want=2 got=%d", len(orderRepo.created))
	}

	var res Result
	if err := json.Unmarshal(jobRepo.result, &res); err != nil {
		t.Fatalf("result json: %v", err)
	}
	if res.Status != "success" || res.OrdersProcessed != 2 || res.OrdersStored != 2 {
		t.Fatalf("result payload: got %+v", res)
	}
	if res.Filename != "plan.xlsx" || res.TaskID != jobRepo.job.ID.String() {
		t.Fatalf("result identity fields: got %+v", res)
	}

	if len(store.removed) != 1 || store.removed[0] != jobRepo.job.StorageKey {
		t.Fatalf("upload not cleaned up: removed=%v", store.removed)
	}
}

func TestPipelineParseFailureRecordsErrorAndCleansUp(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	jobRepo := &fakeJobRepo{job: seedJob(store, workbookBytes(t))}
	llm := &fakeLLM{response: "Sorry, I could not find any orders in this sheet."}

	p := newTestPipeline(t, llm, &fakeOrderRepo{}, jobRepo, store)
	if err := p.Run(context.Background(), jobRepo.job.ID); err == nil {
		t.Fatalf("Run: want error for unparseable response")
	}

	if jobRepo.status != domain.JobStatusFailure {
		t.Fatalf("job status: want=failure got=%q", jobRepo.status)
	}
	var res ErrorResult
	if err := json.Unmarshal(jobRepo.result, &res); err != nil {
		t.Fatalf("result json: %v", err)
	}
	if res.Status != "error" || res.Error == "" || res.Filename != "plan.xlsx" {
		t.Fatalf("error payload: got %+v", res)
	}
	if len(store.removed) != 1 {
		t.Fatalf("upload must be removed on failure too: removed=%v", store.removed)
	}
}

func TestPipelineBadWorkbook(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	jobRepo := &fakeJobRepo{job: seedJob(store, []byte("not a workbook"))}

	p := newTestPipeline(t, &fakeLLM{}, &fakeOrderRepo{}, jobRepo, store)
	err := p.Run(context.Background(), jobRepo.job.ID)
	if err == nil {
		t.Fatalf("Run: want error for unreadable workbook")
	}
	if jobRepo.status != domain.JobStatusFailure {
		t.Fatalf("job status: want=failure got=%q", jobRepo.status)
	}
	if !strings.Contains(jobRepo.errMsg, "file format error") {
		t.Fatalf("error message: want file format error, got %q", jobRepo.errMsg)
	}
	if len(store.removed) != 1 {
		t.Fatalf("upload must be removed: removed=%v", store.removed)
	}
}

func TestPipelineStoreFailureStopsIngestion(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	jobRepo := &fakeJobRepo{job: seedJob(store, workbookBytes(t))}
	orderRepo := &fakeOrderRepo{failAt: 2, err: fmt.Errorf("insert failed")}
	llm := &fakeLLM{response: "```json\n{\"orders\": [" +
		"{\"order_id\": \"PO-1\"}," +
		"{\"order_id\": \"PO-2\"}]}\n```"}

	p := newTestPipeline(t, llm, orderRepo, jobRepo, store)
	if err := p.Run(context.Background(), jobRepo.job.ID); err == nil {
		t.Fatalf("Run: want error when the store rejects a write")
	}
	if jobRepo.status != domain.JobStatusFailure {
		t.Fatalf("job status: want=failure got=%q", jobRepo.status)
	}

	// The failure payload reports how far ingestion got before the error.
	var res ErrorResult
	if err := json.Unmarshal(jobRepo.result, &res); err != nil {
		t.Fatalf("result json: %v", err)
	}
	if res.OrdersProcessed != 2 || res.OrdersStored != 1 {
		t.Fatalf("failure counts: want processed=2 stored=1 got %+v", res)
	}
	if len(orderRepo.created) != 1 {
		t.Fatalf("rows written before the failure stay written: got %d", len(orderRepo.created))
	}
}

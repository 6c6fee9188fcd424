package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

type fakeLLM struct {
	response string
	err      error
	gotUser  string
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.gotUser = user
	return f.response, f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestExtractOrdersFencedResponse(t *testing.T) {
	llm := &fakeLLM{response: "```json\n{\"orders\": [{\"order_id\": \"PO-1\", \"quantity\": 500}]}\n```"}
	ex := NewExtractor(testLogger(t), llm)

	orders, err := ex.ExtractOrders(context.Background(), "PO,Qty\nPO-1,500\n", "orders.xlsx")
	if err != nil {
		t.Fatalf("ExtractOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders: want=1 got=%d", len(orders))
	}
	if orders[0]["order_id"] != "PO-1" {
		t.Fatalf("order_id: want=PO-1 got=%v", orders[0]["order_id"])
	}
}

func TestExtractOrdersPromptCarriesDataAndFilename(t *testing.T) {
	llm := &fakeLLM{response: `{"orders": []}`}
	ex := NewExtractor(testLogger(t), llm)

	if _, err := ex.ExtractOrders(context.Background(), "PO,Qty\nPO-1,500\n", "spring-plan.xlsx"); err != nil {
		t.Fatalf("ExtractOrders: %v", err)
	}
	if !strings.Contains(llm.gotUser, "PO,Qty\nPO-1,500") {
		t.Fatalf("prompt is missing the CSV data: %q", llm.gotUser)
	}
	if !strings.Contains(llm.gotUser, "spring-plan.xlsx") {
		t.Fatalf("prompt is missing the source filename: %q", llm.gotUser)
	}
	if !strings.Contains(llm.gotUser, "YYYY-MM-DD") {
		t.Fatalf("prompt is missing the date normalization rule: %q", llm.gotUser)
	}
}

func TestExtractOrdersProseResponseFailsParse(t *testing.T) {
	llm := &fakeLLM{response: "I could not find any production orders in this data."}
	ex := NewExtractor(testLogger(t), llm)

	_, err := ex.ExtractOrders(context.Background(), "a,b\n1,2\n", "orders.xlsx")
	var parseErr *apperr.ExtractionParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("prose response: want ExtractionParseError got %v", err)
	}
	if parseErr.RawResponse != llm.response {
		t.Fatalf("parse error should carry the raw response for diagnostics")
	}
}

func TestExtractOrdersServiceError(t *testing.T) {
	llm := &fakeLLM{err: fmt.Errorf("openai http 401: invalid api key")}
	ex := NewExtractor(testLogger(t), llm)

	_, err := ex.ExtractOrders(context.Background(), "a,b\n1,2\n", "orders.xlsx")
	var svcErr *apperr.ExtractionServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("service failure: want ExtractionServiceError got %v", err)
	}
}

package temporalworker

import (
	"context"
	"testing"
	"time"

	"github.com/stitchpoint/prodplan-backend/internal/pipeline"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

func TestNewRunnerRequiresDependencies(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	if _, err := NewRunner(log, nil, &pipeline.Pipeline{}); err == nil {
		t.Fatalf("NewRunner without client: want error got nil")
	}
}

func TestStartWithoutClientFails(t *testing.T) {
	var r *Runner
	if err := r.Start(context.Background()); err == nil {
		t.Fatalf("Start on nil runner: want error got nil")
	}
}

func TestBackoffForClamps(t *testing.T) {
	base := 250 * time.Millisecond
	max := time.Second

	if got := backoffFor(base, max, 1); got != base {
		t.Fatalf("attempt 1: want=%v got=%v", base, got)
	}
	if got := backoffFor(base, max, 2); got != 500*time.Millisecond {
		t.Fatalf("attempt 2: want=%v got=%v", 500*time.Millisecond, got)
	}
	if got := backoffFor(base, max, 10); got != max {
		t.Fatalf("attempt 10: want clamp to %v got=%v", max, got)
	}
	if got := backoffFor(0, max, 1); got != 250*time.Millisecond {
		t.Fatalf("zero base: want default 250ms got=%v", got)
	}
}

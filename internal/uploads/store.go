package uploads

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/stitchpoint/prodplan-backend/internal/platform/envutil"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

type StoreMode string

const (
	StoreModeLocal       StoreMode = "local"
	StoreModeGCS         StoreMode = "gcs"
	StoreModeGCSEmulator StoreMode = "gcs_emulator"
)

// Store holds uploaded workbooks between the HTTP accept and the parse job.
// Keys are opaque; callers never see a filesystem path.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (key string, size int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// NewStoreFromEnv builds the store selected by UPLOAD_STORE_MODE. Default is
// local disk; STORAGE_EMULATOR_HOST alone implies the emulator mode so a
// compose setup does not have to set both variables.
func NewStoreFromEnv(log *logger.Logger) (Store, error) {
	mode, err := resolveStoreMode(log)
	if err != nil {
		return nil, err
	}
	switch mode {
	case StoreModeLocal:
		dir := envutil.GetEnv("UPLOAD_DIR", filepath.Join("data", "_tmp"), log)
		return NewLocalStore(log, dir)
	case StoreModeGCS, StoreModeGCSEmulator:
		return NewGCSStore(log, mode)
	default:
		return nil, fmt.Errorf("invalid UPLOAD_STORE_MODE=%q (allowed: %q, %q, %q)",
			mode, StoreModeLocal, StoreModeGCS, StoreModeGCSEmulator)
	}
}

func resolveStoreMode(log *logger.Logger) (StoreMode, error) {
	raw := strings.TrimSpace(os.Getenv("UPLOAD_STORE_MODE"))
	mode := StoreMode(strings.ToLower(raw))
	emulatorHost := strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST"))

	switch mode {
	case "":
		if emulatorHost != "" {
			log.Info("UPLOAD_STORE_MODE unset but STORAGE_EMULATOR_HOST present; using emulator mode")
			mode = StoreModeGCSEmulator
		} else {
			mode = StoreModeLocal
		}
	case StoreModeLocal, StoreModeGCS, StoreModeGCSEmulator:
	default:
		return "", fmt.Errorf("invalid UPLOAD_STORE_MODE=%q (allowed: %q, %q, %q)",
			raw, StoreModeLocal, StoreModeGCS, StoreModeGCSEmulator)
	}

	if mode == StoreModeGCSEmulator {
		if emulatorHost == "" {
			return "", fmt.Errorf("UPLOAD_STORE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", StoreModeGCSEmulator)
		}
		u, err := url.Parse(emulatorHost)
		if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
			return "", fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", emulatorHost)
		}
	}
	return mode, nil
}

// NewKey derives a fresh storage key for an upload, keeping only the
// original file's extension.
func NewKey(filename string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	default:
		return ""
	}
}

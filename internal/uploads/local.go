package uploads

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

// localStore keeps uploads in a scratch directory on disk. Keys map 1:1 to
// file names inside that directory.
type localStore struct {
	log *logger.Logger
	dir string
}

func NewLocalStore(log *logger.Logger, dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &apperr.StoreError{Op: "mkdir upload dir", Err: err}
	}
	storeLog := log.With("component", "LocalStore")
	storeLog.Info("Upload store initialized", "mode", StoreModeLocal, "dir", dir)
	return &localStore{log: storeLog, dir: dir}, nil
}

func (s *localStore) path(key string) string {
	// Keys are uuid+ext; Base strips anything path-like a caller sneaks in.
	return filepath.Join(s.dir, filepath.Base(key))
}

func (s *localStore) Save(ctx context.Context, filename string, r io.Reader) (string, int64, error) {
	key := NewKey(filename)
	f, err := os.Create(s.path(key))
	if err != nil {
		return "", 0, &apperr.StoreError{Op: "create upload file", Err: err}
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(s.path(key))
		return "", 0, &apperr.StoreError{Op: "write upload file", Err: err}
	}
	if err := f.Close(); err != nil {
		return "", 0, &apperr.StoreError{Op: "close upload file", Err: err}
	}
	return key, n, nil
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, &apperr.StoreError{Op: "open upload file", Err: err}
	}
	return f, nil
}

// Remove is tolerant of a missing file: cleanup runs unconditionally after
// every job, including retries that already cleaned up.
func (s *localStore) Remove(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &apperr.StoreError{Op: "remove upload file", Err: err}
	}
	return nil
}

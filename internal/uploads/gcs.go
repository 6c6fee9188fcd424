package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

// gcsStore keeps uploads in a single GCS bucket, either against the real
// service or a fake-gcs emulator.
type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewGCSStore(log *logger.Logger, mode StoreMode) (Store, error) {
	bucket := strings.TrimSpace(os.Getenv("UPLOAD_GCS_BUCKET_NAME"))
	if bucket == "" {
		return nil, fmt.Errorf("missing env var UPLOAD_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	client, err := newStorageClientForMode(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	storeLog := log.With("component", "GCSStore")
	storeLog.Info("Upload store initialized", "mode", mode, "bucket", bucket)
	return &gcsStore{log: storeLog, client: client, bucket: bucket}, nil
}

func newStorageClientForMode(ctx context.Context, mode StoreMode) (*storage.Client, error) {
	switch mode {
	case StoreModeGCS:
		opts := clientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case StoreModeGCSEmulator:
		// The storage client reads STORAGE_EMULATOR_HOST itself.
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, fmt.Errorf("storage client has no mode %q", mode)
	}
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (s *gcsStore) Save(ctx context.Context, filename string, r io.Reader) (string, int64, error) {
	key := NewKey(filename)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return "", 0, &apperr.StoreError{Op: "write upload object", Err: err}
	}
	if err := w.Close(); err != nil {
		return "", 0, &apperr.StoreError{Op: "close upload writer", Err: err}
	}
	return key, n, nil
}

// Keep the timeout alive for the life of the reader; a deferred cancel here
// would kill the context before the caller reads a byte.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (s *gcsStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, &apperr.StoreError{Op: "open upload object", Err: err}
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (s *gcsStore) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return &apperr.StoreError{Op: "remove upload object", Err: err}
	}
	return nil
}

package datasource

import (
	"context"
	"fmt"
	"io"
)

// StoreConfig selects the BlobStore that holds pushed dataset files.
type StoreConfig struct {
	Backend  string // local, s3 or gcs; local when empty
	Bucket   string
	Prefix   string
	LocalDir string
	S3       S3Config // region, endpoint and credentials; Bucket and Prefix come from above
}

// OpenStore returns the configured BlobStore.
func OpenStore(ctx context.Context, cfg StoreConfig) (BlobStore, error) {
	switch cfg.Backend {
	case "", "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("local storage needs a directory")
		}
		return NewLocalStorage(cfg.LocalDir), nil
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 storage needs a bucket")
		}
		s3cfg := cfg.S3
		s3cfg.Bucket, s3cfg.Prefix = cfg.Bucket, cfg.Prefix
		return NewS3Storage(ctx, s3cfg)
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("gcs storage needs a bucket")
		}
		return NewGCSStorage(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// CloseStore releases the clients held by s, if any. GCS stores hold one.
func CloseStore(s BlobStore) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

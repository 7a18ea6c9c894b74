package datasource

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/agroscope/agroscope/internal/logging"
	"github.com/agroscope/agroscope/pkg/table"
)

// RemoteFunc opens the object store for a bucket.
type RemoteFunc func(ctx context.Context, scheme, bucket string) (BlobStore, error)

// Loader reads datasets from any supported location and normalizes their
// column names.
type Loader struct {
	Suffixes []string
	Catalog  Catalog    // resolves registry:// URIs; optional
	Store    BlobStore  // holds registered dataset files
	Remote   RemoteFunc // opens s3:// and gs:// buckets
	S3       S3Config   // template for s3:// buckets (Bucket and Prefix are ignored)

	log *slog.Logger
}

// NewLoader returns a Loader for local files and, with the default Remote,
// S3 and GCS objects.
func NewLoader(catalog Catalog, store BlobStore) *Loader {
	l := &Loader{
		Suffixes: table.DefaultSuffixes,
		Catalog:  catalog,
		Store:    store,
		log:      logging.New("datasource"),
	}
	l.Remote = l.openRemote
	return l
}

func (l *Loader) openRemote(ctx context.Context, scheme, bucket string) (BlobStore, error) {
	switch scheme {
	case SchemeS3:
		cfg := l.S3
		cfg.Bucket, cfg.Prefix = bucket, ""
		return NewS3Storage(ctx, cfg)
	case SchemeGCS:
		return NewGCSStorage(ctx, bucket, "")
	default:
		return nil, fmt.Errorf("no remote store for scheme %q", scheme)
	}
}

// Open loads the dataset at uri. sheet selects an XLSX sheet; registered
// datasets use the sheet recorded at push time when sheet is empty.
func (l *Loader) Open(ctx context.Context, uri, sheet string) (*table.Dataset, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	var ds *table.Dataset
	switch loc.Scheme {
	case SchemeFile:
		ds, err = table.Load(loc.Key, sheet)
	case SchemeS3, SchemeGCS:
		ds, err = l.openObject(ctx, loc, sheet)
	case SchemeRegistry:
		ds, err = l.openRegistered(ctx, loc, sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", loc, err)
	}

	ds, err = table.NormalizeColumns(ds, l.Suffixes...)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", loc, err)
	}
	if l.log != nil {
		l.log.Debug("dataset loaded", "location", loc.String(), "rows", ds.Len())
	}
	return ds, nil
}

func (l *Loader) openObject(ctx context.Context, loc Location, sheet string) (*table.Dataset, error) {
	if l.Remote == nil {
		return nil, fmt.Errorf("remote storage is not configured")
	}
	store, err := l.Remote(ctx, loc.Scheme, loc.Bucket)
	if err != nil {
		return nil, err
	}
	defer CloseStore(store)
	data, err := store.Get(ctx, loc.Key)
	if err != nil {
		return nil, err
	}
	return decode(data, path.Base(loc.Key), sheet)
}

func (l *Loader) openRegistered(ctx context.Context, loc Location, sheet string) (*table.Dataset, error) {
	if l.Catalog == nil || l.Store == nil {
		return nil, fmt.Errorf("dataset registry is not configured")
	}
	rec, err := l.Catalog.Get(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	data, err := l.Store.Get(ctx, rec.BlobKey)
	if err != nil {
		return nil, err
	}
	if sheet == "" {
		sheet = rec.Sheet
	}
	return table.Read(bytes.NewReader(data), table.Format(rec.Format), sheet)
}

func decode(data []byte, name, sheet string) (*table.Dataset, error) {
	format, err := table.FormatFromName(name)
	if err != nil {
		return nil, err
	}
	return table.Read(bytes.NewReader(data), format, sheet)
}

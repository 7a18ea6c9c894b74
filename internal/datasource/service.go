package datasource

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/agroscope/agroscope/internal/logging"
	"github.com/agroscope/agroscope/pkg/table"
)

// PushRequest describes a dataset file to register.
type PushRequest struct {
	Name     string // registry name; defaults to the file name
	Filename string // used for the format and the blob key
	Sheet    string
	Data     []byte
}

// Service stores dataset files in a BlobStore and records them in a Catalog.
type Service struct {
	catalog Catalog
	store   BlobStore
	log     *slog.Logger
}

// NewService creates a dataset Service.
func NewService(catalog Catalog, store BlobStore) *Service {
	return &Service{catalog: catalog, store: store, log: logging.New("datasource")}
}

// Catalog returns the underlying catalog.
func (s *Service) Catalog() Catalog { return s.catalog }

// Push validates the file by decoding it, uploads it and registers it.
func (s *Service) Push(ctx context.Context, req PushRequest) (*Dataset, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("push dataset: filename is required")
	}
	name := req.Name
	if name == "" {
		name = req.Filename
	}

	format, err := table.FormatFromName(req.Filename)
	if err != nil {
		return nil, err
	}
	ds, err := table.Read(bytes.NewReader(req.Data), format, req.Sheet)
	if err != nil {
		return nil, fmt.Errorf("push dataset %s: %w", name, err)
	}

	id := uuid.New()
	key := path.Join("datasets", id.String(), path.Base(req.Filename))
	if err := s.store.Put(ctx, key, req.Data, ContentType(req.Filename)); err != nil {
		return nil, fmt.Errorf("upload dataset %s: %w", name, err)
	}

	rec, err := s.catalog.Register(ctx, &Dataset{
		ID:      id,
		Name:    name,
		BlobKey: key,
		Format:  string(format),
		Sheet:   req.Sheet,
		Rows:    ds.Len(),
		Columns: ds.Columns(),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("dataset registered", "id", rec.ID, "name", rec.Name, "rows", rec.Rows)
	return rec, nil
}

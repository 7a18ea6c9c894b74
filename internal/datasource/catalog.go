package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrDatasetNotFound is returned when no registered dataset has the ID.
var ErrDatasetNotFound = errors.New("datasource: dataset not found")

// Dataset is a registered cost table and the blob holding its file.
type Dataset struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BlobKey   string    `json:"blob_key"`
	Format    string    `json:"format"`
	Sheet     string    `json:"sheet,omitempty"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// URI returns the registry URI of the dataset.
func (d *Dataset) URI() string {
	return SchemeRegistry + "://" + d.ID.String()
}

// Catalog lists and registers datasets. Registry is the Postgres
// implementation; MemoryCatalog serves single-process use and tests.
type Catalog interface {
	Register(ctx context.Context, d *Dataset) (*Dataset, error)
	Get(ctx context.Context, id uuid.UUID) (*Dataset, error)
	List(ctx context.Context) ([]Dataset, error)
}

// MemoryCatalog is an in-process Catalog.
type MemoryCatalog struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Dataset
	byName map[string]uuid.UUID
	now    func() time.Time
}

// NewMemoryCatalog returns an empty MemoryCatalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		byID:   make(map[uuid.UUID]*Dataset),
		byName: make(map[string]uuid.UUID),
		now:    time.Now,
	}
}

// Register stores d. Registering an existing name replaces its record but
// keeps its ID.
func (c *MemoryCatalog) Register(ctx context.Context, d *Dataset) (*Dataset, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("register dataset: name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := *d
	rec.Columns = append([]string(nil), d.Columns...)
	if id, ok := c.byName[d.Name]; ok {
		rec.ID = id
	} else if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = c.now().UTC()
	}
	c.byID[rec.ID] = &rec
	c.byName[rec.Name] = rec.ID

	out := rec
	return &out, nil
}

// Get returns the dataset with the given ID.
func (c *MemoryCatalog) Get(ctx context.Context, id uuid.UUID) (*Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	out := *d
	return &out, nil
}

// List returns every dataset ordered by name.
func (c *MemoryCatalog) List(ctx context.Context) ([]Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Dataset, 0, len(c.byID))
	for _, d := range c.byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

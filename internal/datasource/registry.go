package datasource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Registry is the Postgres-backed Catalog.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates a Registry. The datasets table is created by
// platform.AutoMigrate.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (*Dataset, error) {
	var (
		d       Dataset
		columns []byte
	)
	if err := row.Scan(&d.ID, &d.Name, &d.BlobKey, &d.Format, &d.Sheet, &d.Rows, &columns, &d.CreatedAt); err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		if err := json.Unmarshal(columns, &d.Columns); err != nil {
			return nil, fmt.Errorf("decode columns of %s: %w", d.ID, err)
		}
	}
	return &d, nil
}

// Register inserts a dataset, or updates the record with the same name.
func (r *Registry) Register(ctx context.Context, d *Dataset) (*Dataset, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("register dataset: name is required")
	}
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	columns, err := json.Marshal(d.Columns)
	if err != nil {
		return nil, fmt.Errorf("encode columns: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO datasets (id, name, blob_key, format, sheet, row_count, columns)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (name) DO UPDATE
		   SET blob_key = EXCLUDED.blob_key,
		       format = EXCLUDED.format,
		       sheet = EXCLUDED.sheet,
		       row_count = EXCLUDED.row_count,
		       columns = EXCLUDED.columns
		 RETURNING id, name, blob_key, format, sheet, row_count, columns, created_at`,
		id, d.Name, d.BlobKey, d.Format, d.Sheet, d.Rows, columns,
	)
	out, err := scanDataset(row)
	if err != nil {
		return nil, fmt.Errorf("register dataset %s: %w", d.Name, err)
	}
	return out, nil
}

// Get retrieves a dataset by ID.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*Dataset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, blob_key, format, sheet, row_count, columns, created_at
		 FROM datasets WHERE id = $1`,
		id,
	)
	d, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %s: %w", id, err)
	}
	return d, nil
}

// List returns all datasets ordered by name.
func (r *Registry) List(ctx context.Context) ([]Dataset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, blob_key, format, sheet, row_count, columns, created_at
		 FROM datasets ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

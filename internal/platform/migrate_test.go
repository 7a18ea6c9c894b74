package platform

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), "migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
}

func TestDatasetsMigrationMatchesRegistryColumns(t *testing.T) {
	data, err := fs.ReadFile(Migrations(), "migrations/0001_datasets.up.sql")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	sql := string(data)
	for _, col := range []string{"id", "name", "blob_key", "format", "sheet", "row_count", "columns", "created_at"} {
		if !strings.Contains(sql, col+" ") {
			t.Errorf("datasets table missing column %s", col)
		}
	}
	if !strings.Contains(sql, "UNIQUE") {
		t.Error("dataset names must be unique for ON CONFLICT (name)")
	}
}

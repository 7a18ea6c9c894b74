package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/agroscope/agroscope/internal/datasource"
	"github.com/agroscope/agroscope/internal/logging"
	"github.com/agroscope/agroscope/internal/platform"
	"github.com/agroscope/agroscope/pkg/config"
	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/table"
)

// globalFlags are the persistent root flags and the config they select.
type globalFlags struct {
	configPath  string
	logLevel    string
	databaseURL string

	cfg *config.Config
}

func (g *globalFlags) setup() error {
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return err
	}
	g.cfg = cfg
	g.databaseURL = firstNonEmpty(g.databaseURL, os.Getenv("DATABASE_URL"))
	return logging.Setup(firstNonEmpty(g.logLevel, cfg.Log.Level), cfg.Log.Format)
}

// loadConfig reads an explicit config file, or the nearest
// .agroscope/config.yaml above the working directory.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.DefaultConfig(), nil
	}
	cfgFile := config.FindConfigFile(cwd)
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

// selectionFlags are the dataset and drill-down flags shared by the
// analysis commands.
type selectionFlags struct {
	data   string
	sheet  string
	values map[string]string

	bu, season, region, potato string
}

func (s *selectionFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.data, "data", "", "Dataset path or s3://, gs://, registry:// URI (default: dataset.path from config)")
	f.StringVar(&s.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	f.StringVar(&s.bu, "bu", "", "Business unit (* for any)")
	f.StringVar(&s.season, "season", "", "Season (* for any)")
	f.StringVar(&s.region, "region", "", "Region (* for any)")
	f.StringVar(&s.potato, "potato", "", "Potato variety (* for any)")
	f.StringToStringVar(&s.values, "select", nil, "Selections for custom hierarchies, as key=value")
}

func (s *selectionFlags) state() filter.State {
	values := make(map[string]string, len(s.values)+4)
	for k, v := range s.values {
		values[k] = v
	}
	for k, v := range map[string]string{"bu": s.bu, "season": s.season, "region": s.region, "potato": s.potato} {
		if v != "" {
			values[k] = v
		}
	}
	return filter.StateFromValues(values)
}

// openDataset loads and normalizes the dataset named by uri or the config.
func openDataset(ctx context.Context, gf *globalFlags, uri, sheet string) (*table.Dataset, error) {
	cfg := gf.cfg
	uri = firstNonEmpty(uri, cfg.Dataset.Path)
	if uri == "" {
		return nil, fmt.Errorf("no dataset: pass --data or set dataset.path in the config")
	}

	loader := datasource.NewLoader(nil, nil)
	loader.Suffixes = cfg.Dataset.Suffixes
	loader.S3 = s3Config()

	if strings.HasPrefix(uri, datasource.SchemeRegistry+"://") {
		registry, db, err := openRegistry(ctx, gf.databaseURL)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		store, err := datasource.OpenStore(ctx, storeConfig(cfg))
		if err != nil {
			return nil, err
		}
		defer datasource.CloseStore(store)
		loader.Catalog, loader.Store = registry, store
	}
	return loader.Open(ctx, uri, firstNonEmpty(sheet, cfg.Dataset.Sheet))
}

// openRegistry connects to Postgres and applies pending migrations.
func openRegistry(ctx context.Context, dsn string) (*datasource.Registry, *sql.DB, error) {
	if dsn == "" {
		return nil, nil, fmt.Errorf("the dataset registry needs --database-url or DATABASE_URL")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := platform.AutoMigrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return datasource.NewRegistry(db), db, nil
}

func storeConfig(cfg *config.Config) datasource.StoreConfig {
	return datasource.StoreConfig{
		Backend:  cfg.Storage.Backend,
		Bucket:   cfg.Storage.Bucket,
		Prefix:   cfg.Storage.Prefix,
		LocalDir: cfg.Storage.LocalDir,
		S3:       s3Config(),
	}
}

func s3Config() datasource.S3Config {
	return datasource.S3Config{
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
	}
}

// selectionHint adds the levels to re-select to a stale selection error.
func selectionHint(ds *table.Dataset, h filter.Hierarchy, state filter.State, err error) error {
	if !errors.Is(err, filter.ErrStaleSelection) {
		return err
	}
	_, cleared, rerr := filter.Revalidate(ds, h, state)
	if rerr != nil || len(cleared) == 0 {
		return err
	}
	labels := make([]string, len(cleared))
	for i, d := range cleared {
		labels[i] = d.Label
	}
	return fmt.Errorf("%w; re-select %s", err, strings.Join(labels, ", "))
}

// createOutput opens path for writing, or returns stdout when path is empty.
func createOutput(path string) (*os.File, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

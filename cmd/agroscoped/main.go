// Command agroscoped is the Agroscope platform service.
// It serves the dataset and analysis API over the Postgres dataset registry,
// plus health and readiness checks.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/agroscope/agroscope/internal/api"
	"github.com/agroscope/agroscope/internal/datasource"
	"github.com/agroscope/agroscope/internal/logging"
	"github.com/agroscope/agroscope/internal/platform"
	"github.com/agroscope/agroscope/pkg/config"
)

type daemonConfig struct {
	Port        string
	DatabaseURL string
	ConfigPath  string
	CORSOrigins []string
	Preload     []string
	LogLevel    string
	LogFormat   string
	Store       datasource.StoreConfig
}

func loadDaemonConfig() daemonConfig {
	return daemonConfig{
		Port:        envOrDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ConfigPath:  os.Getenv("AGROSCOPE_CONFIG"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
		Preload:     splitList(os.Getenv("PRELOAD_DATASETS")),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),
		Store: datasource.StoreConfig{
			Backend:  envOrDefault("STORAGE_BACKEND", "local"),
			Bucket:   os.Getenv("STORAGE_BUCKET"),
			Prefix:   os.Getenv("STORAGE_PREFIX"),
			LocalDir: envOrDefault("LOCAL_STORAGE_PATH", "/tmp/agroscope-data"),
			S3: datasource.S3Config{
				Region:    os.Getenv("AWS_REGION"),
				Endpoint:  os.Getenv("S3_ENDPOINT"),
				AccessKey: os.Getenv("S3_ACCESS_KEY"),
				SecretKey: os.Getenv("S3_SECRET_KEY"),
			},
		},
	}
}

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	dc := loadDaemonConfig()
	if err := logging.Setup(dc.LogLevel, dc.LogFormat); err != nil {
		slog.Error("invalid log settings", "error", err)
		os.Exit(1)
	}
	log := logging.New("agroscoped")

	if err := run(dc, log); err != nil {
		log.Error("agroscoped failed", "error", err)
		os.Exit(1)
	}
}

func run(dc daemonConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.DefaultConfig()
	if dc.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(dc.ConfigPath); err != nil {
			return err
		}
	}

	store, err := datasource.OpenStore(ctx, dc.Store)
	if err != nil {
		return err
	}
	defer datasource.CloseStore(store)

	var (
		catalog datasource.Catalog
		db      *sql.DB
	)
	if dc.DatabaseURL != "" {
		db, err = sql.Open("postgres", dc.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if err := platform.AutoMigrate(db); err != nil {
			return err
		}
		catalog = datasource.NewRegistry(db)
	} else {
		log.Warn("DATABASE_URL not set; datasets are kept in memory only")
		catalog = datasource.NewMemoryCatalog()
	}

	loader := datasource.NewLoader(catalog, store)
	loader.Suffixes = cfg.Dataset.Suffixes
	loader.S3 = dc.Store.S3

	cache := api.NewDatasetCacheFromEnv()
	handler := api.NewHandler(datasource.NewService(catalog, store), loader, cfg.Pipeline(), cache)

	if err := preload(ctx, handler, dc.Preload); err != nil {
		log.Warn("preloading datasets", "error", err)
	} else if len(dc.Preload) > 0 {
		log.Info("datasets preloaded", "count", cache.Len())
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("GET /readyz", readyHandler(db))

	srv := &http.Server{
		Addr: ":" + dc.Port,
		Handler: api.Chain(mux,
			api.RequestLog(log),
			api.CORS(dc.CORSOrigins...),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting agroscoped", "port", dc.Port, "storage", dc.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// preload warms the dataset cache with up to four concurrent loads.
func preload(ctx context.Context, h *api.Handler, ids []string) error {
	parsed := make([]uuid.UUID, len(ids))
	for i, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return err
		}
		parsed[i] = id
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range parsed {
		g.Go(func() error {
			return h.Preload(gctx, id)
		})
	}
	return g.Wait()
}

func readyHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}` + "\n"))
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// splitList parses a comma-separated environment value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

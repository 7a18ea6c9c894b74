package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agroscope/agroscope/internal/api"
	"github.com/agroscope/agroscope/internal/datasource"
	"github.com/agroscope/agroscope/internal/logging"
)

func newServeCmd(gf *globalFlags) *cobra.Command {
	var (
		dataPath string
		port     int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local API server over a cost table",
		Long: `Starts the HTTP API on localhost. Without a database the server keeps an
in-memory registry; --data registers a local file in it at startup.

Usage:
  agroscope serve --data costs.xlsx
  curl 'localhost:8080/api/datasets/<id>/choices/season?bu=India'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), gf, serveOpts{dataPath: dataPath, port: port})
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Local dataset file to register at startup (default: dataset.path from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to serve on (default: server.port from config)")
	return cmd
}

type serveOpts struct {
	dataPath string
	port     int
}

func runServe(ctx context.Context, gf *globalFlags, opts serveOpts) error {
	cfg := gf.cfg
	log := logging.New("serve")

	var (
		catalog datasource.Catalog
		store   datasource.BlobStore
	)
	if gf.databaseURL != "" {
		registry, db, err := openRegistry(ctx, gf.databaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if store, err = datasource.OpenStore(ctx, storeConfig(cfg)); err != nil {
			return err
		}
		defer datasource.CloseStore(store)
		catalog = registry
	} else {
		dir, err := os.MkdirTemp("", "agroscope-serve-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		catalog, store = datasource.NewMemoryCatalog(), datasource.NewLocalStorage(dir)
	}

	svc := datasource.NewService(catalog, store)
	loader := datasource.NewLoader(catalog, store)
	loader.Suffixes = cfg.Dataset.Suffixes
	loader.S3 = s3Config()

	if path := firstNonEmpty(opts.dataPath, cfg.Dataset.Path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading dataset: %w", err)
		}
		rec, err := svc.Push(ctx, datasource.PushRequest{
			Filename: filepath.Base(path),
			Sheet:    cfg.Dataset.Sheet,
			Data:     data,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  Dataset:    %s (%d rows)\n", rec.ID, rec.Rows)
	}

	h := api.NewHandler(svc, loader, cfg.Pipeline(), api.NewDatasetCache(cfg.Server.CacheSize))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	port := opts.port
	if port == 0 {
		port = cfg.Server.Port
	}
	srv := &http.Server{
		Addr: ":" + strconv.Itoa(port),
		Handler: api.Chain(mux,
			api.RequestLog(log),
			api.CORS(cfg.Server.CORSOrigins...),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "  Listening:  http://localhost:%d\n", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

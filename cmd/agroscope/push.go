package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agroscope/agroscope/internal/datasource"
)

func newPushCmd(gf *globalFlags) *cobra.Command {
	var (
		name  string
		sheet string
	)

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload a cost table and register it",
		Long: `Validates a CSV or XLSX cost table, uploads it to the configured storage
backend and records it in the Postgres dataset registry. The printed
registry:// URI can be passed to --data or served by agroscoped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd.Context(), gf, args[0], name, sheet)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Registry name (default: file name)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "XLSX sheet to read (default: first sheet)")
	return cmd
}

func runPush(ctx context.Context, gf *globalFlags, path, name, sheet string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading dataset: %w", err)
	}

	registry, db, err := openRegistry(ctx, gf.databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := datasource.OpenStore(ctx, storeConfig(gf.cfg))
	if err != nil {
		return err
	}
	defer datasource.CloseStore(store)

	rec, err := datasource.NewService(registry, store).Push(ctx, datasource.PushRequest{
		Name:     name,
		Filename: filepath.Base(path),
		Sheet:    sheet,
		Data:     data,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Registered %s (%d rows, %d columns)\n", rec.Name, rec.Rows, len(rec.Columns))
	fmt.Println(rec.URI())
	return nil
}

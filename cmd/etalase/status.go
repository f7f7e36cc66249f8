package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hyperjump/etalase/internal/cli"
	"github.com/hyperjump/etalase/internal/storage"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service and catalog database status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outputFlag, _ := cmd.Flags().GetString("output")
			format, err := cli.ParseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			report := &cli.StatusReport{}
			if serverURL, _ := cmd.Flags().GetString("server"); serverURL != "" {
				st, err := cli.NewClient(serverURL).Status(cmd.Context())
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "server unavailable: %v\n", err)
				} else {
					report.Service = st
				}
			}
			st, err := storageStatus(cmd.Context(), cfg.Storage.DatabasePath)
			if err != nil {
				return err
			}
			report.Storage = st
			return cli.WriteStatus(cmd.OutOrStdout(), report, format)
		},
	}
	cmd.Flags().String("server", "http://localhost:8080", "server URL (empty = database only)")
	cmd.Flags().StringP("output", "o", "text", "output format: text or json")
	return cmd
}

// storageStatus summarizes the imported catalog database. A database that has
// not been created yet yields nil.
func storageStatus(ctx context.Context, dbPath string) (*cli.StorageStatus, error) {
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	count, err := store.CountItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("count items failed: %w", err)
	}
	last, err := store.LastImport(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("read last import failed: %w", err)
	}
	size, err := storage.DatabaseSize(dbPath)
	if err != nil {
		return nil, err
	}
	return &cli.StorageStatus{
		DatabasePath:   dbPath,
		Items:          count,
		LastImport:     last,
		DiskUsageBytes: size,
	}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "etalase version %s\n", version)
		},
	}
}

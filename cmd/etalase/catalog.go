package main

import (
	"fmt"

	"github.com/hyperjump/etalase/internal/catalog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <catalog-file>",
		Short: "Import a catalog file into the SQLite database",
		Long: `Validate a catalog file (.json, .yaml, .xlsx, .db) and replace the contents
of the SQLite catalog database with it. Point catalog.path at the database to
serve the imported catalog.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			dbPath := cfg.Storage.DatabasePath
			if p, _ := cmd.Flags().GetString("db"); p != "" {
				dbPath = p
			}
			cat, err := catalog.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := catalog.Save(cmd.Context(), dbPath, cat.Source(), cat.Items()); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			logger.Info("catalog imported", zap.String("source", cat.Source()), zap.String("database", dbPath), zap.Int("items", cat.Len()))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items from %s into %s\n", cat.Len(), cat.Source(), dbPath)
			return nil
		},
	}
	cmd.Flags().String("db", "", "database path (overrides storage.database_path)")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <output-file>",
		Short: "Write the catalog to a file",
		Long: `Load the configured catalog and write it out. The output format follows
the file extension: .json, .yaml, .xlsx, or .db.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cat, err := catalog.Load(cmd.Context(), catalogPath(cmd, cfg))
			if err != nil {
				return err
			}
			if err := catalog.Save(cmd.Context(), args[0], cat.Source(), cat.Items()); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d items to %s\n", cat.Len(), args[0])
			return nil
		},
	}
	cmd.Flags().String("catalog", "", "catalog file (overrides catalog.path)")
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/etalase/internal/config"
	"github.com/hyperjump/etalase/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultConfigPath = "/usr/local/etc/etalase/config.yaml"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "etalase",
		Short: "Semantic search over a product catalog",
		Long: `etalase serves a product catalog with semantic search.

Items are embedded once at startup; queries are ranked by cosine similarity.
Until the embedding index is ready, searches fall back to plain text matching.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newImportCmd(),
		newExportCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory is preferred if present, and a missing default file
// yields the built-in defaults. Returns the config and the path actually used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(local); err == nil {
				cfg, err := config.Load(local)
				if err != nil {
					return nil, "", err
				}
				return cfg, local, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup resolves the config and a logger from the persistent flags.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || debug
	newLogger := utils.NewCommandLogger
	if cmd.Name() == "serve" {
		newLogger = utils.NewLogger
	}
	logger, err := newLogger(debugMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debugMode),
	)
	return cfg, logger, nil
}

// catalogPath returns the --catalog flag when set, else the configured path.
func catalogPath(cmd *cobra.Command, cfg *config.Config) string {
	if p, _ := cmd.Flags().GetString("catalog"); p != "" {
		return p
	}
	return cfg.Catalog.Path
}

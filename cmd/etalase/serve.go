package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/etalase/internal/catalog"
	"github.com/hyperjump/etalase/internal/config"
	"github.com/hyperjump/etalase/internal/embedding"
	"github.com/hyperjump/etalase/internal/keyword"
	"github.com/hyperjump/etalase/internal/search"
	"github.com/hyperjump/etalase/internal/server"
	"github.com/hyperjump/etalase/internal/status"
	"github.com/hyperjump/etalase/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Load the catalog, start building the embedding index in the background,
and serve the HTTP API. Searches use text matching until the index is ready.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("catalog", "", "catalog file (overrides catalog.path)")
	cmd.Flags().String("host", "", "listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	cmd.Flags().Bool("no-watch", false, "do not rebuild when the catalog file changes")
	return cmd
}

// newService wires the retrieval service with the bleve fallback matcher and
// a status broadcaster that mirrors progress to the logger.
func newService(cfg *config.Config, logger *zap.Logger) *search.Service {
	return search.NewService(
		embedding.NewLoader(&cfg.Embedding, logger),
		search.WithLogger(logger),
		search.WithMatcher(keyword.NewBleveMatcher(keyword.WithBleveLogger(logger))),
		search.WithStatus(status.NewBroadcaster(status.WithLogger(logger))),
	)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	path := catalogPath(cmd, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	holder := catalog.NewHolder(path, nil, logger)
	cat, err := holder.Reload(ctx)
	if err != nil {
		return err
	}

	service := newService(cfg, logger)
	defer service.Close()
	logger.Info("session started", zap.String("session", service.Session()), zap.Int("items", cat.Len()))
	service.Start(ctx, cat.Items())

	srv := server.NewServer(service, holder, cfg, logger)

	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if cfg.Catalog.WatchOrDefault() && !noWatch {
		w := watcher.NewWatcher(path, func(string) {
			if _, err := srv.CatalogChanged(ctx); err != nil {
				logger.Warn("catalog change ignored", zap.Error(err))
			}
		}, watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch catalog: %w", err)
		}
		defer w.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

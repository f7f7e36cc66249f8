package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/etalase/internal/catalog"
	"github.com/hyperjump/etalase/internal/cli"
	"github.com/hyperjump/etalase/internal/models"
	"github.com/hyperjump/etalase/internal/search"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the catalog",
		Long: `Search the catalog. The query is all arguments joined by spaces, so
multi-word queries work with or without quotes. An empty query lists the whole catalog.

By default the query is sent to a running server. With --server "" the catalog
is loaded and embedded locally first.`,
		Example: `  etalase search red shoes
  etalase search -k 10 --output compact "warm winter boots"
  etalase search --server "" --catalog ./products.json hat`,
		RunE: runSearch,
	}
	cmd.Flags().String("server", "http://localhost:8080", "server URL (empty = search locally)")
	cmd.Flags().String("catalog", "", "catalog file for local search (overrides catalog.path)")
	cmd.Flags().IntP("top-k", "k", 0, "number of semantic results (0 = configured default)")
	cmd.Flags().StringP("output", "o", "text", "output format: text, compact, or json")
	return cmd
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch(cmd *cobra.Command, args []string) error {
	outputFlag, _ := cmd.Flags().GetString("output")
	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	k, _ := cmd.Flags().GetInt("top-k")
	query := &models.SearchQuery{Query: buildSearchQuery(args), K: k}

	serverURL, _ := cmd.Flags().GetString("server")
	if serverURL != "" {
		response, err := cli.NewClient(serverURL).Search(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return cli.WriteSearchResults(cmd.OutOrStdout(), response, format)
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	_ = query.Validate(cfg.Search.DefaultTopK, cfg.Search.MaxTopK)

	service := newService(cfg, logger)
	defer service.Close()
	response, err := searchLocal(cmd.Context(), catalogPath(cmd, cfg), query, service, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return cli.WriteSearchResults(cmd.OutOrStdout(), response, format)
}

// searchLocal loads the catalog, builds the index in-process and runs one
// query, printing progress lines to progress. If initialization fails the
// query is answered by text matching.
func searchLocal(ctx context.Context, path string, query *models.SearchQuery, service *search.Service, progress io.Writer) (*models.SearchResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cat, err := catalog.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	if query.Query != "" {
		subCtx, cancel := context.WithCancel(ctx)
		events := service.Status().Subscribe(subCtx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for e := range events {
				fmt.Fprintln(progress, e.String())
			}
		}()
		initErr := service.Initialize(ctx, cat.Items())
		cancel()
		<-done
		if initErr != nil {
			if ctx.Err() != nil {
				return nil, initErr
			}
			fmt.Fprintf(progress, "warning: %v; using text matching\n", initErr)
		}
	}

	start := time.Now()
	res, err := service.Query(ctx, query.Query, cat.Items(), query.K)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return models.NewSearchResponse(query.Query, res.Items, res.Scores, res.Mode, time.Since(start).Milliseconds()), nil
}

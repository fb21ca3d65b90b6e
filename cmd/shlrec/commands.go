package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/config"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/eval"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/metrics"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/recommender"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/server"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/store"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/vector"
)

const shutdownGrace = 15 * time.Second

var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recommendation HTTP server",
	RunE:  runServe,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Answer one query from the local catalog and print the slate",
	RunE:  runRecommend,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index snapshot from the catalog",
	RunE:  runIndex,
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the service against a labeled query file",
	RunE:  runEval,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("shlrec %s\n", version)
		if commit != "" {
			fmt.Printf("commit:     %s\n", commit)
		}
		if buildDate != "" {
			fmt.Printf("build date: %s\n", buildDate)
		}
		fmt.Printf("go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	recommendCmd.Flags().StringP("query", "q", "", "hiring query text (required)")
	_ = recommendCmd.MarkFlagRequired("query")
	recommendCmd.Flags().Bool("json", false, "print the full result as JSON")
	recommendCmd.Flags().Bool("no-rerank", false, "skip the external reranker")

	evalCmd.Flags().String("queries", "", "labeled queries JSON file (required)")
	_ = evalCmd.MarkFlagRequired("queries")
	evalCmd.Flags().IntP("k", "k", 10, "metrics cutoff")
	evalCmd.Flags().Bool("json", false, "print the report as JSON")

	rootCmd.AddCommand(serveCmd, recommendCmd, indexCmd, evalCmd, versionCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	logger := newLogger(app)

	kv, err := buildKV(app)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if kv != nil {
		defer kv.Close()
	}

	m := metrics.New(metrics.DefaultConfig())
	svc, err := buildService(app, logger, m, kv)
	if err != nil {
		return err
	}
	if err := svc.Init(cmd.Context()); err != nil {
		return fmt.Errorf("init service: %w", err)
	}

	var cache *store.ResultCache
	if ttl := app.CacheTTL(); ttl > 0 && kv != nil {
		cache = store.NewResultCache(kv, ttl, logger)
	}

	srv, err := server.New(server.Config{
		Addr:    app.Addr,
		Service: svc,
		Cache:   cache,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("server shutdown")
		}
		if err := svc.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("service shutdown")
		}
	}
	return nil
}

// initLocalService builds and initializes the service for the one-shot
// commands.
func initLocalService(ctx context.Context, app *config.App) (*recommender.Service, func(), error) {
	logger := newLogger(app)
	kv, err := buildKV(app)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}

	svc, err := buildService(app, logger, nil, kv)
	if err != nil {
		if kv != nil {
			_ = kv.Close()
		}
		return nil, nil, err
	}
	if err := svc.Init(ctx); err != nil {
		if kv != nil {
			_ = kv.Close()
		}
		return nil, nil, fmt.Errorf("init service: %w", err)
	}

	cleanup := func() {
		_ = svc.Shutdown(context.Background())
		if kv != nil {
			_ = kv.Close()
		}
	}
	return svc, cleanup, nil
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	query, _ := cmd.Flags().GetString("query")
	asJSON, _ := cmd.Flags().GetBool("json")
	noRerank, _ := cmd.Flags().GetBool("no-rerank")

	svc, cleanup, err := initLocalService(cmd.Context(), app)
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []core.RequestOption
	if noRerank {
		opts = append(opts, core.WithRerank(false))
	}
	res, err := svc.Recommend(cmd.Context(), query, opts...)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tTYPE\tDURATION\tSCORE")
	for i, item := range res.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.3f\n",
			i+1, item.ID, item.Name, item.CategoryLabel, item.Duration, item.Score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Printf("%d results in %s (request %s)\n", len(res.Items), res.Elapsed.Round(time.Millisecond), res.RequestID)
	return nil
}

func runIndex(cmd *cobra.Command, _ []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	items, err := store.NewFileCatalog(app.CatalogPath).LoadCatalog(ctx)
	if err != nil {
		return err
	}
	cat, err := core.NewCatalog(items)
	if err != nil {
		return err
	}
	emb, err := buildEmbedder(app)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}

	idx, err := vector.BuildFlatIndex(ctx, cat, emb, vector.BuildOptions{})
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.Save(app.IndexPath); err != nil {
		return err
	}
	fmt.Printf("index written to %s (%d vectors, dim %d)\n", app.IndexPath, idx.Len(), idx.Dimensions())
	return nil
}

func runEval(cmd *cobra.Command, _ []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("queries")
	k, _ := cmd.Flags().GetInt("k")
	asJSON, _ := cmd.Flags().GetBool("json")

	queries, err := eval.LoadQueries(path)
	if err != nil {
		return err
	}

	svc, cleanup, err := initLocalService(cmd.Context(), app)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := eval.Evaluate(cmd.Context(), svc, queries, k)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.WriteTable(os.Stdout)
}

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/config"
	_ "github.com/gowthusaidatta/shl-assessment-recommendation-system/config/builders"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/embedding"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/metrics"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/recommender"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/scorer"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/store"
)

var (
	cfgFile  string
	appViper *viper.Viper

	rootCmd = &cobra.Command{
		Use:          "shlrec",
		Short:        "SHL assessment recommendation service",
		Long:         "shlrec serves hiring-query assessment recommendations over HTTP and ships the matching offline tools (index build, one-shot queries, evaluation).",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			v := config.NewViper()
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config file: %w", err)
				}
			}
			flags := cmd.Root().PersistentFlags()
			for key, name := range map[string]string{
				"addr":          "addr",
				"catalog.path":  "catalog",
				"index.path":    "index",
				"pipeline.path": "pipeline",
				"log.level":     "log-level",
				"log.format":    "log-format",
			} {
				if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
					return err
				}
			}
			appViper = v
			return nil
		},
		RunE: runServe,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (YAML); SHLREC_* env vars override it")
	pf.String("addr", "", "listen address, e.g. :8080")
	pf.String("catalog", "", "catalog JSON path")
	pf.String("index", "", "vector index snapshot path")
	pf.String("pipeline", "", "pipeline YAML path (optional, replaces the built-in pipeline)")
	pf.String("log-level", "", "log level (trace..panic)")
	pf.String("log-format", "", "log format: console or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadApp() (*config.App, error) {
	return config.Load(appViper)
}

func newLogger(app *config.App) zerolog.Logger {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var w io.Writer = os.Stderr
	if app.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func buildEmbedder(app *config.App) (core.Embedder, error) {
	if app.UseOpenAIEmbedding() {
		return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:            app.Embedding.APIKey,
			BaseURL:           app.Embedding.BaseURL,
			Model:             app.Embedding.Model,
			Dimensions:        app.Embedding.Dimensions,
			RequestsPerSecond: app.Embedding.RequestsPerSecond,
		})
	}
	return embedding.NewHashingEmbedder(app.Embedding.Dimensions), nil
}

func buildScorer(app *config.App, logger zerolog.Logger) (core.RelevanceScorer, error) {
	cfg := scorer.Config{
		Provider: app.Scorer.Provider,
		LLM: scorer.LLMConfig{
			APIKey:            app.Scorer.APIKey,
			BaseURL:           app.Scorer.BaseURL,
			Model:             app.Scorer.Model,
			RequestsPerSecond: app.Scorer.RequestsPerSecond,
			BreakerCooldown:   app.Scorer.Cooldown,
			Logger:            logger,
		},
	}
	if app.Scorer.FailureThreshold > 0 {
		cfg.LLM.FailureThreshold = uint32(app.Scorer.FailureThreshold)
	}
	return scorer.New(cfg)
}

// buildKV opens the shared store when Redis is configured, nil otherwise.
func buildKV(app *config.App) (core.Store, error) {
	if app.Redis.Addr == "" {
		return nil, nil
	}
	return store.NewRedis(app.Redis.Addr, app.Redis.Password, app.Redis.DB)
}

func buildService(app *config.App, logger zerolog.Logger, m *metrics.Metrics, kv core.Store) (*recommender.Service, error) {
	emb, err := buildEmbedder(app)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	sc, err := buildScorer(app, logger)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	cfg := recommender.Config{
		CatalogStore:  store.NewFileCatalog(app.CatalogPath),
		Embedder:      emb,
		Scorer:        sc,
		ScorerTimeout: app.Scorer.Timeout,
		IndexPath:     app.IndexPath,
		Defaults:      app.Options,
		Logger:        logger,
		Metrics:       m,
	}
	if app.PipelinePath != "" {
		cfg.PipelineBuilder = pipelineFromFile(app.PipelinePath, sc, kv, logger)
	}
	return recommender.New(cfg)
}

// pipelineFromFile defers loading to Init time so a catalog refresh re-reads
// the file too.
func pipelineFromFile(path string, sc core.RelevanceScorer, kv core.Store, logger zerolog.Logger) func(*core.Catalog, core.VectorService) (*pipeline.Pipeline, error) {
	return func(cat *core.Catalog, idx core.VectorService) (*pipeline.Pipeline, error) {
		cfg, err := pipeline.LoadFromYAML(path)
		if err != nil {
			return nil, fmt.Errorf("load pipeline %s: %w", path, err)
		}
		if err := config.ValidatePipelineConfig(cfg); err != nil {
			return nil, err
		}
		f := config.DefaultFactory()
		config.Services{Catalog: cat, Index: idx, Scorer: sc, Store: kv, Logger: logger}.Apply(f)
		return cfg.BuildPipeline(f)
	}
}

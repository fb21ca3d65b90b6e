// Package recommender assembles the full query-to-recommendations flow:
// catalog + index lifecycle, concurrent query analysis and embedding, and the
// staged candidate pipeline.
package recommender

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/filter"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/metrics"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/pipeline"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/query"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/rank"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/recall"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/rerank"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/vector"
)

// Config wires the service's dependencies. CatalogStore and Embedder are
// required; everything else has a working default.
type Config struct {
	CatalogStore core.CatalogStore
	Embedder     core.Embedder

	// Scorer drives the optional rerank stage; nil leaves reranking out of
	// the pipeline entirely.
	Scorer core.RelevanceScorer

	// ScorerTimeout bounds one scorer call. Zero means the request budget
	// alone limits it.
	ScorerTimeout time.Duration

	// Index, when set, is used as-is and never closed by the service.
	// When nil, Init loads the snapshot at IndexPath or builds a flat
	// index from the catalog.
	Index     core.VectorService
	IndexPath string
	Build     vector.BuildOptions

	// Filters run between recall and fusion.
	Filters []filter.Filter

	// Defaults are the service-level options; the zero value means
	// core.DefaultOptions(). Per-request options override on top.
	Defaults core.Options

	// PipelineBuilder, when set, replaces the default stage assembly. It
	// runs at Init time, after the catalog and index are ready.
	PipelineBuilder func(*core.Catalog, core.VectorService) (*pipeline.Pipeline, error)

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Service answers recommendation queries. Construct with New, then Init
// before the first Recommend.
type Service struct {
	cfg      Config
	defaults core.Options
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu        sync.RWMutex
	ready     bool
	catalog   *core.Catalog
	index     core.VectorService
	ownsIndex bool
	pipe      *pipeline.Pipeline
}

func New(cfg Config) (*Service, error) {
	if cfg.CatalogStore == nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "catalog store is required")
	}
	if cfg.Embedder == nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "embedder is required")
	}
	defaults := cfg.Defaults
	if defaults == (core.Options{}) {
		defaults = core.DefaultOptions()
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		defaults: defaults,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Init loads the catalog and makes the index ready. It is safe to call again
// to pick up a refreshed catalog; requests keep being served from the old
// state until the swap.
func (s *Service) Init(ctx context.Context) error {
	items, err := s.cfg.CatalogStore.LoadCatalog(ctx)
	if err != nil {
		if core.IsCatalogUnavailable(err) {
			return err
		}
		return core.NewCatalogUnavailableError("load catalog", err)
	}
	catalog, err := core.NewCatalog(items)
	if err != nil {
		return core.NewCatalogUnavailableError("catalog rejected", err)
	}
	if catalog.Len() == 0 {
		return core.NewCatalogUnavailableError("catalog is empty", nil)
	}

	index, owns, err := s.openIndex(ctx, catalog)
	if err != nil {
		return err
	}

	pipe, err := s.buildPipeline(catalog, index)
	if err != nil {
		if owns {
			_ = index.Close()
		}
		return err
	}

	s.mu.Lock()
	oldIndex, oldOwns := s.index, s.ownsIndex
	s.catalog = catalog
	s.index = index
	s.ownsIndex = owns
	s.pipe = pipe
	s.ready = true
	s.mu.Unlock()

	if oldOwns && oldIndex != nil && oldIndex != index {
		_ = oldIndex.Close()
	}

	s.logger.Info().
		Int("catalog_size", catalog.Len()).
		Int("knowledge", catalog.Count(core.TestTypeKnowledge)).
		Int("personality", catalog.Count(core.TestTypePersonality)).
		Msg("service ready")
	return nil
}

// openIndex resolves the vector index: injected > snapshot > fresh build.
func (s *Service) openIndex(ctx context.Context, catalog *core.Catalog) (core.VectorService, bool, error) {
	if s.cfg.Index != nil {
		return s.cfg.Index, false, nil
	}

	if path := s.cfg.IndexPath; path != "" {
		idx, err := vector.LoadFlatIndex(path)
		switch {
		case err == nil && idx.Dimensions() != s.cfg.Embedder.Dimensions():
			s.logger.Warn().
				Int("snapshot_dim", idx.Dimensions()).
				Int("embedder_dim", s.cfg.Embedder.Dimensions()).
				Msg("index snapshot dimension mismatch, rebuilding")
		case err == nil && idx.Len() != catalog.Len():
			s.logger.Warn().
				Int("snapshot_size", idx.Len()).
				Int("catalog_size", catalog.Len()).
				Msg("index snapshot out of date, rebuilding")
		case err == nil:
			s.logger.Info().Str("path", path).Int("size", idx.Len()).Msg("index snapshot loaded")
			return idx, true, nil
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Info().Str("path", path).Msg("no index snapshot, building")
		default:
			s.logger.Warn().Err(err).Str("path", path).Msg("index snapshot unreadable, rebuilding")
		}
	}

	idx, err := vector.BuildFlatIndex(ctx, catalog, s.cfg.Embedder, s.cfg.Build)
	if err != nil {
		if core.IsIndexUnavailable(err) {
			return nil, false, err
		}
		return nil, false, core.NewIndexUnavailableError("build vector index", err)
	}
	if path := s.cfg.IndexPath; path != "" {
		if err := idx.Save(path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("index snapshot not saved")
		}
	}
	return idx, true, nil
}

// buildPipeline assembles recall -> filters -> fuse -> rerank -> fuse ->
// balance, leaving the rerank pair out when no scorer is configured.
func (s *Service) buildPipeline(catalog *core.Catalog, index core.VectorService) (*pipeline.Pipeline, error) {
	if s.cfg.PipelineBuilder != nil {
		return s.cfg.PipelineBuilder(catalog, index)
	}

	nodes := []pipeline.Node{
		&recall.VectorSource{Index: index, Catalog: catalog, Logger: s.logger},
		&filter.Dedupe{},
	}
	if len(s.cfg.Filters) > 0 {
		nodes = append(nodes, &filter.Node{Filters: s.cfg.Filters, Logger: s.logger})
	}
	nodes = append(nodes, &rank.Fusion{})
	if s.cfg.Scorer != nil {
		nodes = append(nodes,
			&rank.Rerank{Scorer: s.cfg.Scorer, Timeout: s.cfg.ScorerTimeout, Logger: s.logger},
			&rank.Fusion{},
		)
	}
	nodes = append(nodes, &rerank.Balance{Logger: s.logger})

	pipe := pipeline.New(nodes...)
	pipe.Logger = s.logger
	return pipe, nil
}

// Shutdown releases owned resources. The service refuses requests afterwards.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	index, owns := s.index, s.ownsIndex
	s.ready = false
	s.index = nil
	s.pipe = nil
	s.mu.Unlock()

	if owns && index != nil {
		return index.Close()
	}
	return nil
}

// Ready reports whether Init has completed.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// CatalogSize returns the loaded catalog size, 0 before Init.
func (s *Service) CatalogSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return 0
	}
	return s.catalog.Len()
}

// IndexSize returns the number of indexed vectors when the backend exposes
// it, 0 otherwise.
func (s *Service) IndexSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sized, ok := s.index.(interface{ Len() int }); ok {
		return sized.Len()
	}
	return 0
}

// Defaults returns the service-level options.
func (s *Service) Defaults() core.Options {
	return s.defaults
}

// Recommend runs one query through the pipeline.
func (s *Service) Recommend(ctx context.Context, q string, opts ...core.RequestOption) (*core.Result, error) {
	start := time.Now()
	res, err := s.recommend(ctx, q, start, opts...)
	elapsed := time.Since(start)

	results := 0
	if res != nil {
		res.Elapsed = elapsed
		results = len(res.Items)
	}
	s.metrics.ObserveRequest(metrics.StatusOf(err), elapsed, results)
	return res, err
}

func (s *Service) recommend(ctx context.Context, q string, start time.Time, opts ...core.RequestOption) (*core.Result, error) {
	s.mu.RLock()
	ready := s.ready
	catalog := s.catalog
	pipe := s.pipe
	s.mu.RUnlock()
	if !ready {
		return nil, core.NewIndexUnavailableError("service is not initialized", nil)
	}

	options := s.defaults.Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := s.logger.With().Str("request_id", requestID).Logger()

	qctx := &core.QueryContext{
		Query:   q,
		Options: options,
	}
	// The budget stays advisory on qctx: the rerank stage caps its own call
	// against it, and the mandatory stages after it still run once it is
	// spent. ctx carries caller cancellation only.
	if options.MaxLatency > 0 {
		qctx.Deadline = start.Add(options.MaxLatency)
	}

	// Analysis and embedding are independent; run them together. An invalid
	// query cancels the in-flight embedding call and wins over its error.
	var (
		analyzeErr error
		signals    *core.QuerySignals
		vec        []float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sig, err := s.analyzerFor(catalog, options).Analyze(q)
		if err != nil {
			analyzeErr = err
			return err
		}
		signals = sig
		return nil
	})
	g.Go(func() error {
		v, err := s.cfg.Embedder.Embed(gctx, q)
		if err != nil {
			if core.IsIndexUnavailable(err) {
				return err
			}
			return core.NewIndexUnavailableError("embed query", err)
		}
		vec = v
		return nil
	})
	if err := g.Wait(); err != nil {
		if analyzeErr != nil {
			return nil, analyzeErr
		}
		return nil, err
	}
	qctx.Signals = signals
	qctx.Vector = vec

	items, err := pipe.Run(ctx, qctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("pipeline failed")
		return nil, err
	}

	switch {
	case s.cfg.Scorer == nil || !options.Rerank:
		s.metrics.ObserveRerank(metrics.RerankDisabled)
	case qctx.Reranked:
		s.metrics.ObserveRerank(metrics.RerankApplied)
	default:
		s.metrics.ObserveRerank(metrics.RerankSkipped)
	}

	recs := make([]core.Recommendation, 0, len(items))
	for _, c := range items {
		recs = append(recs, core.NewRecommendation(c))
	}
	res := &core.Result{
		RequestID: requestID,
		Query:     q,
		Items:     recs,
		Signals:   signals,
		Warnings:  qctx.Warnings,
		Reranked:  qctx.Reranked,
	}

	log.Info().
		Int("results", len(recs)).
		Bool("reranked", qctx.Reranked).
		Int("warnings", len(qctx.Warnings)).
		Dur("elapsed", time.Since(start)).
		Msg("recommend done")
	return res, nil
}

// analyzerFor builds the per-request analyzer so the ambiguous-prior policy
// can differ between requests.
func (s *Service) analyzerFor(catalog *core.Catalog, o core.Options) *query.Analyzer {
	w := core.EvenWeight()
	if o.AmbiguousPrior == core.PriorCatalog {
		w = catalog.Prior()
	}
	return query.NewAnalyzer(
		query.WithDefaultWeight(w),
		query.WithMinCategoryShare(o.MinCategoryShare),
	)
}

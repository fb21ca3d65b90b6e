// Package server exposes the recommender over HTTP: the recommend API, a
// readiness probe and the Prometheus exposition endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/metrics"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/recommender"
	"github.com/gowthusaidatta/shl-assessment-recommendation-system/store"
)

const (
	defaultBodyLimit = "64K"
	serverTimeout    = 30 * time.Second
)

type Config struct {
	Addr    string
	Service *recommender.Service

	// Cache is optional; nil serves every request from the pipeline.
	Cache *store.ResultCache

	Metrics *metrics.Metrics
	Logger  zerolog.Logger

	// BodyLimit caps request bodies, echo syntax ("64K"). Empty uses the
	// default.
	BodyLimit string
}

// Server wraps echo with the service routes and middleware stack.
type Server struct {
	echo    *echo.Echo
	svc     *recommender.Service
	cache   *store.ResultCache
	metrics *metrics.Metrics
	logger  zerolog.Logger
	addr    string
}

func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("server needs a recommender service")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = serverTimeout
	e.Server.WriteTimeout = serverTimeout
	e.Server.ReadHeaderTimeout = 5 * time.Second

	s := &Server{
		echo:    e,
		svc:     cfg.Service,
		cache:   cfg.Cache,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		addr:    cfg.Addr,
	}

	bodyLimit := cfg.BodyLimit
	if bodyLimit == "" {
		bodyLimit = defaultBodyLimit
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	api := e.Group("/api/v1")
	api.POST("/recommend", s.handleRecommend)
	api.GET("/recommend", s.handleRecommendQuery)

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	return s, nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			evt := s.logger.Info()
			if v.Error != nil {
				evt = s.logger.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("http request")
			return nil
		},
	})
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until the listener fails or Shutdown runs. It returns
// http.ErrServerClosed after a clean shutdown, like net/http.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("http server listening")
	return s.echo.Start(s.addr)
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

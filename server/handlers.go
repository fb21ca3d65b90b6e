package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

const headerCache = "X-Cache"

type recommendRequest struct {
	Query        string `json:"query"`
	TopN         *int   `json:"top_n"`
	Rerank       *bool  `json:"rerank"`
	MaxLatencyMS *int64 `json:"max_latency_ms"`
}

func (r recommendRequest) options() []core.RequestOption {
	var opts []core.RequestOption
	if r.TopN != nil {
		opts = append(opts, core.WithTopN(*r.TopN))
	}
	if r.Rerank != nil {
		opts = append(opts, core.WithRerank(*r.Rerank))
	}
	if r.MaxLatencyMS != nil {
		opts = append(opts, core.WithMaxLatency(time.Duration(*r.MaxLatencyMS)*time.Millisecond))
	}
	return opts
}

type recommendResponse struct {
	core.Result
	LatencyMS int64 `json:"latency_ms"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleRecommend(c echo.Context) error {
	var req recommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    core.ErrorCodeInvalidInput,
			Message: "malformed request body",
		}})
	}
	return s.recommend(c, req.Query, req.options())
}

func (s *Server) handleRecommendQuery(c echo.Context) error {
	var req recommendRequest
	req.Query = c.QueryParam("query")
	if raw := c.QueryParam("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
				Code:    core.ErrorCodeInvalidInput,
				Message: "top_n must be an integer",
			}})
		}
		req.TopN = &n
	}
	if raw := c.QueryParam("rerank"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
				Code:    core.ErrorCodeInvalidInput,
				Message: "rerank must be a boolean",
			}})
		}
		req.Rerank = &b
	}
	if raw := c.QueryParam("max_latency_ms"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
				Code:    core.ErrorCodeInvalidInput,
				Message: "max_latency_ms must be an integer",
			}})
		}
		req.MaxLatencyMS = &ms
	}
	return s.recommend(c, req.Query, req.options())
}

func (s *Server) recommend(c echo.Context, query string, opts []core.RequestOption) error {
	start := time.Now()
	ctx := c.Request().Context()

	var effective core.Options
	if s.cache != nil {
		effective = s.svc.Defaults().Apply(opts...)
		if res, ok := s.cache.Get(ctx, query, effective); ok {
			s.metrics.ObserveCache(true)
			c.Response().Header().Set(headerCache, "HIT")
			return c.JSON(http.StatusOK, recommendResponse{
				Result:    *res,
				LatencyMS: time.Since(start).Milliseconds(),
			})
		}
		s.metrics.ObserveCache(false)
	}

	res, err := s.svc.Recommend(ctx, query, opts...)
	if err != nil {
		return s.renderError(c, err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, query, effective, res)
		c.Response().Header().Set(headerCache, "MISS")
	}
	return c.JSON(http.StatusOK, recommendResponse{
		Result:    *res,
		LatencyMS: time.Since(start).Milliseconds(),
	})
}

func (s *Server) renderError(c echo.Context, err error) error {
	status, code := httpStatus(err)
	message := err.Error()
	if de := core.AsDomainError(err); de != nil {
		message = de.Message
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("recommend failed")
		message = "internal error"
	}
	return c.JSON(status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

func httpStatus(err error) (int, string) {
	switch {
	case core.IsInvalidQuery(err):
		return http.StatusBadRequest, core.ErrorCodeInvalidQuery
	case core.IsCatalogUnavailable(err):
		return http.StatusServiceUnavailable, core.ErrorCodeCatalogUnavailable
	case core.IsIndexUnavailable(err):
		return http.StatusServiceUnavailable, core.ErrorCodeIndexUnavailable
	}
	if de := core.AsDomainError(err); de != nil && de.Code == core.ErrorCodeInvalidInput {
		return http.StatusBadRequest, core.ErrorCodeInvalidInput
	}
	return http.StatusInternalServerError, core.ErrorCodeInternalError
}

type healthResponse struct {
	Status      string `json:"status"`
	CatalogSize int    `json:"catalog_size"`
	IndexSize   int    `json:"index_size"`
	Ready       bool   `json:"ready"`
}

func (s *Server) handleHealth(c echo.Context) error {
	ready := s.svc.Ready()
	resp := healthResponse{
		Status:      "ok",
		CatalogSize: s.svc.CatalogSize(),
		IndexSize:   s.svc.IndexSize(),
		Ready:       ready,
	}
	if !ready {
		resp.Status = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// Package server exposes spread computation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"SpreadScope/internal/config"
	"SpreadScope/internal/model"
	"SpreadScope/internal/pipeline"
	"SpreadScope/internal/recorder"
	"SpreadScope/internal/service"
)

// Server is the HTTP front end.
type Server struct {
	service  *service.Service
	catalog  *config.Catalog
	recorder recorder.Recorder
	gatherer prometheus.Gatherer
	engine   *gin.Engine
}

// New builds the router. A nil gatherer disables /metrics.
func New(svc *service.Service, cat *config.Catalog, rec recorder.Recorder, gatherer prometheus.Gatherer) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{service: svc, catalog: cat, recorder: rec, gatherer: gatherer, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api/v1")
	api.GET("/spread", s.handleSpread)
	api.GET("/presets", s.handlePresets)
	api.GET("/runs", s.handleRuns)
	api.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

// spreadQuery is bound from the query string.
type spreadQuery struct {
	Preset      string `form:"preset"`
	Strategy    string `form:"strategy"`
	Legs        string `form:"legs"`
	Granularity string `form:"granularity"`
}

func (s *Server) handleSpread(c *gin.Context) {
	var q spreadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g := model.Granularity(lo.Ternary(q.Granularity == "", string(model.Gran1Min), q.Granularity))

	var (
		resp *service.Response
		cfg  model.StrategyConfig
		err  error
	)
	if q.Legs == "" && q.Preset != "" {
		cfg, _ = s.catalog.Preset(q.Preset)
		resp, err = s.service.ComputePreset(c.Request.Context(), q.Preset, g)
	} else {
		tag, perr := model.ParseStrategyTag(lo.Ternary(q.Strategy == "", string(model.Butterfly), q.Strategy))
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error(), "kind": pipeline.KindConfiguration.String()})
			return
		}
		cfg = model.StrategyConfig{Tag: tag, Legs: model.SplitLegs(q.Legs)}
		resp, err = s.service.Compute(c.Request.Context(), cfg, g)
	}
	if err != nil {
		s.writeError(c, err, cfg)
		return
	}

	c.Header("X-Run-ID", resp.RunID)
	c.JSON(http.StatusOK, gin.H{
		"run_id":    resp.RunID,
		"cache_hit": resp.CacheHit,
		"result":    resp.Result,
	})
}

func (s *Server) writeError(c *gin.Context, err error, cfg model.StrategyConfig) {
	body := gin.H{"error": err.Error(), "message": service.UserMessage(err, cfg)}
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		body["kind"] = pe.Kind.String()
		body["stage"] = pe.Stage
		if pe.Leg != "" {
			body["leg"] = pe.Leg
		}
	}
	c.JSON(StatusFor(err), body)
}

// StatusFor maps a computation error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrSchema):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": s.catalog.Presets(), "commodities": s.catalog.Commodities()})
}

func (s *Server) handleRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	runs, err := s.recorder.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": lo.Ternary(runs == nil, []recorder.RunEvent{}, runs)})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("http request")
	}
}

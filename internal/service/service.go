// Package service is the entry point shared by the CLI, HTTP server and scheduler.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"SpreadScope/internal/cache"
	"SpreadScope/internal/config"
	"SpreadScope/internal/metrics"
	"SpreadScope/internal/model"
	"SpreadScope/internal/pipeline"
	"SpreadScope/internal/recorder"
	"SpreadScope/internal/strategy"
)

// ErrUnknownPreset is wrapped in a configuration error for unknown preset names.
var ErrUnknownPreset = errors.New("unknown preset")

// Response is one served computation.
type Response struct {
	RunID    string
	CacheHit bool
	Result   *model.SpreadResult
}

// Service memoizes pipeline runs and records their outcomes. It is safe for
// concurrent use.
type Service struct {
	Pipeline *pipeline.Pipeline
	Cache    *cache.Cache
	Metrics  *metrics.Metrics
	Recorder recorder.Recorder
	Catalog  *config.Catalog
}

// New creates a Service. A nil recorder records nothing.
func New(p *pipeline.Pipeline, c *cache.Cache, m *metrics.Metrics, rec recorder.Recorder, cat *config.Catalog) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Pipeline: p, Cache: c, Metrics: m, Recorder: rec, Catalog: cat}
}

// Compute returns the spread series for cfg at granularity g.
func (s *Service) Compute(ctx context.Context, cfg model.StrategyConfig, g model.Granularity) (*Response, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger := log.WithFields(log.Fields{"run_id": runID, "strategy": cfg.Tag, "granularity": g})

	resp := &Response{RunID: runID}
	var err error
	if _, err = pipeline.Check(cfg, g); err == nil {
		key := model.Key{Strategy: cfg.Tag, Legs: cfg.Legs, Granularity: g}
		logger = logger.WithField("key", key.String())
		resp.Result, resp.CacheHit, err = s.Cache.GetOrCompute(ctx, key, func(ctx context.Context) (*model.SpreadResult, error) {
			return s.Pipeline.Run(ctx, cfg, g)
		})
	}
	elapsed := time.Since(start)

	s.observe(cfg, g, resp, err, elapsed)
	evt := &recorder.RunEvent{
		RunID:       runID,
		At:          start,
		Strategy:    string(cfg.Tag),
		Legs:        strings.Join(cfg.Legs, ","),
		Granularity: string(g),
		Outcome:     Outcome(err),
		CacheHit:    resp.CacheHit,
		Duration:    elapsed,
	}
	if err != nil {
		var pe *pipeline.Error
		if errors.As(err, &pe) {
			evt.Stage, evt.Leg = pe.Stage, pe.Leg
		}
		evt.Error = err.Error()
	} else {
		evt.Rows = len(resp.Result.Rows)
	}
	if rerr := s.Recorder.RecordRun(evt); rerr != nil {
		logger.Errorf("record run: %v", rerr)
	}

	if err != nil {
		logger.Warnf("compute failed after %v: %v", elapsed, err)
		return nil, err
	}
	logger.WithField("cache_hit", resp.CacheHit).Infof("computed %d rows in %v", evt.Rows, elapsed)
	return resp, nil
}

// ComputePreset resolves a catalog preset and computes it.
func (s *Service) ComputePreset(ctx context.Context, preset string, g model.Granularity) (*Response, error) {
	cfg, ok := s.Catalog.Preset(preset)
	if !ok {
		return nil, pipeline.ConfigError(fmt.Errorf("%w %q", ErrUnknownPreset, preset))
	}
	return s.Compute(ctx, cfg, g)
}

func (s *Service) observe(cfg model.StrategyConfig, g model.Granularity, resp *Response, err error, elapsed time.Duration) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.RunsTotal.WithLabelValues(string(cfg.Tag), string(g), Outcome(err)).Inc()
	s.Metrics.RunDuration.WithLabelValues(string(g)).Observe(elapsed.Seconds())
	if err != nil {
		return
	}
	if resp.CacheHit {
		s.Metrics.CacheHits.Inc()
	} else {
		s.Metrics.CacheMisses.Inc()
	}
	s.Metrics.RowsReturned.Observe(float64(len(resp.Result.Rows)))
}

// Outcome labels err for metrics and the run log.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := pipeline.KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}

// UserMessage is the text shown to an end user for a failed computation.
func UserMessage(err error, cfg model.StrategyConfig) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownPreset):
		return "未找到该品种预设，请使用 /presets 查看可用品种。"
	case errors.Is(err, pipeline.ErrConfiguration):
		if st, serr := strategy.For(cfg.Tag); serr == nil && len(cfg.Legs) != st.LegCount() {
			return fmt.Sprintf("请输入全部合约代码。(需要 %d 个合约)", st.LegCount())
		}
		return "请输入全部合约代码。"
	default:
		return "无法获取或处理数据，请检查合约代码是否正确或稍后再试。"
	}
}

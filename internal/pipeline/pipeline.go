// Package pipeline turns a strategy config into a windowed, annotated spread series.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"SpreadScope/internal/align"
	"SpreadScope/internal/axis"
	"SpreadScope/internal/calculator"
	"SpreadScope/internal/collector"
	"SpreadScope/internal/config"
	"SpreadScope/internal/model"
	"SpreadScope/internal/strategy"
	"SpreadScope/internal/window"
)

const (
	StageValidate   = "validate"
	StageFetch      = "fetch"
	StageAlign      = "align"
	StageWindow     = "window"
	StageIndicators = "indicators"
)

// Pipeline wires the stages together. It holds no per-run state.
type Pipeline struct {
	Collector *collector.Collector
	Policy    window.Policy
	Catalog   *config.Catalog
}

// New creates a Pipeline.
func New(c *collector.Collector, policy window.Policy, catalog *config.Catalog) *Pipeline {
	return &Pipeline{Collector: c, Policy: policy, Catalog: catalog}
}

// Run validates cfg, fetches every leg and runs align, synthesize, window,
// indicators and axis planning. It returns either a full result or an *Error.
func (p *Pipeline) Run(ctx context.Context, cfg model.StrategyConfig, g model.Granularity) (*model.SpreadResult, error) {
	s, err := Check(cfg, g)
	if err != nil {
		return nil, err
	}

	series, err := p.Collector.FetchLegs(ctx, cfg.Legs, g)
	if err != nil {
		return nil, fetchError(err)
	}

	rows, err := align.Align(series)
	if err != nil {
		return nil, alignError(err)
	}

	bars, err := p.Policy.Apply(strategy.SynthesizeAll(s, rows), g)
	if err != nil {
		return nil, &Error{Kind: KindDataUnavailable, Stage: StageWindow, Err: err}
	}

	ind, err := calculator.Compute(bars)
	if err != nil {
		return nil, &Error{Kind: KindDataUnavailable, Stage: StageIndicators, Err: err}
	}

	log.WithFields(log.Fields{"strategy": cfg.Tag, "legs": strings.Join(cfg.Legs, ","), "granularity": g}).
		Debugf("aligned %d rows, %d inside window", len(rows), len(ind))

	return &model.SpreadResult{
		Meta:   p.Describe(s, cfg, g),
		Rows:   ind,
		Labels: axis.Plan(axis.Times(ind), g),
	}, nil
}

// Check validates a config and granularity without touching the network.
func Check(cfg model.StrategyConfig, g model.Granularity) (strategy.Strategy, error) {
	if !g.Valid() {
		return nil, ConfigError(fmt.Errorf("unknown granularity %q", g))
	}
	s, err := strategy.Validate(cfg)
	if err != nil {
		return nil, ConfigError(err)
	}
	return s, nil
}

// Describe builds the display metadata for a run.
func (p *Pipeline) Describe(s strategy.Strategy, cfg model.StrategyConfig, g model.Granularity) model.DisplayMeta {
	commodity := config.CommodityCode(cfg.Legs[0])
	if p.Catalog != nil {
		commodity = p.Catalog.CommodityName(cfg.Legs[0])
	}
	legs := append([]string(nil), cfg.Legs...)
	return model.DisplayMeta{
		StrategyName:  s.Name(),
		Strategy:      s.Tag(),
		CommodityName: commodity,
		Title:         fmt.Sprintf("%s %s (%s) - %s", commodity, s.Name(), strings.Join(legs, "-"), g.Label()),
		Legs:          legs,
		Granularity:   g,
	}
}

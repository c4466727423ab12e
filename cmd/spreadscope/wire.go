package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"SpreadScope/internal/cache"
	"SpreadScope/internal/collector"
	"SpreadScope/internal/config"
	"SpreadScope/internal/metrics"
	"SpreadScope/internal/model"
	"SpreadScope/internal/pipeline"
	"SpreadScope/internal/recorder"
	"SpreadScope/internal/service"
	"SpreadScope/internal/window"
)

// app holds every long-lived component built from config.
type app struct {
	cfg      *config.Config
	catalog  *config.Catalog
	cache    *cache.Cache
	recorder recorder.Recorder
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	service  *service.Service
}

func loadConfig(path, level string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	lvl, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(lvl)
	return cfg, nil
}

func buildApp(ctx context.Context, cfg *config.Config, demo bool) (*app, error) {
	catalog, err := config.NewCatalog(cfg.Commodities, cfg.Presets)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	policy, err := window.ParsePolicy(cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("window policy: %w", err)
	}

	fetcher, err := newFetcher(cfg, catalog, demo)
	if err != nil {
		return nil, err
	}
	log.Infof("data source: %s", fetcher.Name())

	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		store, err = cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	} else {
		store, err = cache.NewBuntStore("")
	}
	if err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	met := metrics.NewMetrics(reg)

	c := cache.New(store, cfg.Cache.TTL)
	p := pipeline.New(collector.NewCollector(fetcher), policy, catalog)
	return &app{
		cfg:      cfg,
		catalog:  catalog,
		cache:    c,
		recorder: rec,
		registry: reg,
		metrics:  met,
		service:  service.New(p, c, met, rec, catalog),
	}, nil
}

func newFetcher(cfg *config.Config, catalog *config.Catalog, demo bool) (collector.Fetcher, error) {
	switch {
	case demo:
		return demoFetcher(catalog), nil
	case cfg.DataSource.BaseURL != "":
		return collector.NewBarsAPIFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Retries), nil
	case cfg.DataSource.CSVDir != "":
		return collector.NewCSVFetcher(cfg.DataSource.CSVDir, nil), nil
	}
	return nil, fmt.Errorf("no data source configured: set data_source.base_url or data_source.csv_dir, or pass --demo")
}

// demoFetcher serves generated minute bars for every preset leg.
func demoFetcher(catalog *config.Catalog) *collector.MockFetcher {
	m := collector.NewMockFetcher()
	end := time.Now().Truncate(time.Minute)
	for _, p := range catalog.Presets() {
		for i, leg := range p.Legs {
			m.Data[leg] = collector.GenerateBars(2400-float64(i)*35, 600, end, time.Minute, i*5)
		}
	}
	return m
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		log.Warnf("close cache: %v", err)
	}
	if err := a.recorder.Close(); err != nil {
		log.Warnf("close recorder: %v", err)
	}
}

// exitCode maps a computation error to a process exit status.
func exitCode(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindConfiguration:
		return 2
	case pipeline.KindDataUnavailable:
		return 3
	case pipeline.KindSchema:
		return 4
	}
	return 1
}

func parseGranularity(s string) (model.Granularity, error) {
	if s == "" {
		return model.Gran1Min, nil
	}
	return model.ParseGranularity(s)
}

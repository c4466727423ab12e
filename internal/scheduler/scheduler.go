package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"SpreadScope/internal/config"
	"SpreadScope/internal/metrics"
	"SpreadScope/internal/model"
	"SpreadScope/internal/notifier"
	"SpreadScope/internal/recorder"
	"SpreadScope/internal/service"
)

// DefaultGranularity is used when a watch entry or command omits one.
const DefaultGranularity = model.Gran1Min

// Sender delivers chat messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler refreshes the watchlist on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Service   *service.Service
	Catalog   *config.Catalog
	Notifier  Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Watchlist []config.WatchEntry
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. A nil notifier only logs.
func NewScheduler(ctx context.Context, svc *service.Service, cat *config.Catalog, n Sender, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Catalog:  cat,
		Notifier: n,
		Recorder: rec,
		Metrics:  m,
		Ctx:      ctx,
	}
}

// Register schedules the watchlist refresh.
func (s *Scheduler) Register(watchCron string, watchlist []config.WatchEntry) error {
	s.Watchlist = watchlist
	if _, err := s.Cron.AddFunc(watchCron, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunWatchlistNow executes the watch task immediately.
func (s *Scheduler) RunWatchlistNow() {
	s.watchTask()
}

func (s *Scheduler) watchTask() {
	log.Infof("running watch task for %d presets", len(s.Watchlist))
	for _, w := range s.Watchlist {
		g := DefaultGranularity
		if w.Granularity != "" {
			g = model.Granularity(w.Granularity)
		}
		s.trySend(s.refresh(s.Ctx, w.Preset, g))
	}
}

// refresh computes one preset, records its latest row and returns the chat text.
func (s *Scheduler) refresh(ctx context.Context, preset string, g model.Granularity) string {
	resp, err := s.Service.ComputePreset(ctx, preset, g)
	if err != nil {
		log.WithField("preset", preset).Errorf("watch compute: %v", err)
		cfg, _ := s.Catalog.Preset(preset)
		return notifier.FormatFailure(fmt.Sprintf("%s %s", preset, g.Label()), service.UserMessage(err, cfg))
	}

	if last, ok := resp.Result.Latest(); ok {
		if err := s.Recorder.RecordSnapshot(&recorder.SnapshotEvent{
			RunID:       resp.RunID,
			Preset:      strings.ToUpper(preset),
			Granularity: string(g),
			BarTime:     last.Time,
			Close:       last.Close,
			AvgPrice:    last.AvgPrice,
			SMA:         ptr(last.SMA),
			UpperBand:   ptr(last.UpperBand),
			LowerBand:   ptr(last.LowerBand),
			DayHigh:     last.DayHigh,
			DayLow:      last.DayLow,
		}); err != nil {
			log.Errorf("record snapshot: %v", err)
		}
	}
	return notifier.FormatSpreadSummary(resp.Result)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText()
	}
	switch fields[0] {
	case "/presets", "查看预设":
		return notifier.FormatPresets(s.Catalog.Presets())
	case "/spread", "价差":
		if len(fields) < 2 {
			return "用法: /spread &lt;品种&gt; [周期]"
		}
		g := DefaultGranularity
		if len(fields) > 2 {
			parsed, err := model.ParseGranularity(fields[2])
			if err != nil {
				return fmt.Sprintf("未知周期 %s，可选: %s", html.EscapeString(fields[2]), granularityList())
			}
			g = parsed
		}
		return s.refresh(ctx, fields[1], g)
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Debugf("notifier disabled, dropping message: %s", text)
		return
	}
	outcome := "ok"
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Errorf("send notification: %v", err)
		outcome = "error"
	}
	if s.Metrics != nil {
		s.Metrics.Notifications.WithLabelValues(outcome).Inc()
	}
}

func ptr(f model.Float) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func granularityList() string {
	names := make([]string, len(model.Granularities))
	for i, g := range model.Granularities {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpreadScope/internal/cache"
	"SpreadScope/internal/collector"
	"SpreadScope/internal/config"
	"SpreadScope/internal/metrics"
	"SpreadScope/internal/pipeline"
	"SpreadScope/internal/recorder"
	"SpreadScope/internal/service"
	"SpreadScope/internal/window"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return f.err
}

func newTestScheduler(t *testing.T, sender Sender) (*Scheduler, *recorder.SQLiteRecorder, *metrics.Metrics) {
	t.Helper()
	end := time.Date(2025, 9, 3, 15, 0, 0, 0, time.UTC)
	m := collector.NewMockFetcher()
	for i, sym := range []string{"SH2511", "SH2512", "SH2601"} {
		m.Data[sym] = collector.GenerateBars(2400-float64(i)*40, 40, end, 5*time.Minute, i)
	}

	cat, err := config.NewCatalog(nil, nil)
	require.NoError(t, err)
	store, err := cache.NewBuntStore("")
	require.NoError(t, err)
	c := cache.New(store, 0)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Close()
		_ = rec.Close()
	})
	met := metrics.NewMetrics(prometheus.NewRegistry())

	p := pipeline.New(collector.NewCollector(m), window.DefaultPolicy(), cat)
	svc := service.New(p, c, met, rec, cat)
	return NewScheduler(context.Background(), svc, cat, sender, rec, met), rec, met
}

func TestScheduler_WatchTask(t *testing.T) {
	sender := &fakeSender{}
	s, rec, met := newTestScheduler(t, sender)
	require.NoError(t, s.Register("0 */5 * * * *", []config.WatchEntry{
		{Preset: "SH", Granularity: "5min"},
		{Preset: "SA"},
	}))

	s.RunWatchlistNow()

	require.Len(t, sender.msgs, 2)
	assert.Contains(t, sender.msgs[0], "烧碱 蝶式价差 (SH2511-SH2512-SH2601) - 5分钟")
	assert.Contains(t, sender.msgs[0], "上轨")
	assert.Contains(t, sender.msgs[1], "❌")
	assert.Contains(t, sender.msgs[1], "无法获取或处理数据")
	assert.Equal(t, 2.0, testutil.ToFloat64(met.Notifications.WithLabelValues("ok")))

	runs, err := rec.RecentRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestScheduler_SendFailureCounted(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	s, _, met := newTestScheduler(t, sender)
	s.Watchlist = []config.WatchEntry{{Preset: "SH", Granularity: "5min"}}
	s.RunWatchlistNow()
	assert.Equal(t, 1.0, testutil.ToFloat64(met.Notifications.WithLabelValues("error")))
}

func TestScheduler_HandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t, nil)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/presets"), "纯碱 (SA)")
	assert.Contains(t, s.HandleCommand(ctx, "/help"), "/spread")
	assert.Contains(t, s.HandleCommand(ctx, ""), "/presets")
	assert.Contains(t, s.HandleCommand(ctx, "/spread"), "用法")
	assert.Contains(t, s.HandleCommand(ctx, "/spread SH weekly"), "未知周期")
	assert.Contains(t, s.HandleCommand(ctx, "/spread sh 5min"), "5分钟")
	assert.Contains(t, s.HandleCommand(ctx, "/spread ZZ"), "/presets")

	reply := s.HandleCommand(ctx, "/spread SH <b>5m")
	assert.Contains(t, reply, "未知周期 &lt;b&gt;5m")
	assert.NotContains(t, reply, "<b>5m")

	reply = s.HandleCommand(ctx, "/spread <i>ZZ")
	assert.Contains(t, reply, "&lt;i&gt;ZZ")
	assert.NotContains(t, reply, "<i>")
}

func TestScheduler_RegisterBadCron(t *testing.T) {
	s, _, _ := newTestScheduler(t, nil)
	assert.Error(t, s.Register("not a cron", nil))
}

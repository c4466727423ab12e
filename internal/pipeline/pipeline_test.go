package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpreadScope/internal/collector"
	"SpreadScope/internal/config"
	"SpreadScope/internal/model"
	"SpreadScope/internal/window"
)

var end = time.Date(2025, 9, 3, 15, 0, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, m *collector.MockFetcher) *Pipeline {
	t.Helper()
	cat, err := config.NewCatalog(nil, nil)
	require.NoError(t, err)
	return New(collector.NewCollector(m), window.DefaultPolicy(), cat)
}

func butterflyLegs() model.StrategyConfig {
	return model.StrategyConfig{Tag: model.Butterfly, Legs: []string{"SH2511", "SH2512", "SH2601"}}
}

func TestRun_ButterflyLiteral(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Data["SH2511"] = []model.Bar{{Time: end, Open: 100, High: 105, Low: 98, Close: 102}}
	m.Data["SH2512"] = []model.Bar{{Time: end, Open: 50, High: 52, Low: 49, Close: 51}}
	m.Data["SH2601"] = []model.Bar{{Time: end, Open: 30, High: 33, Low: 29, Close: 31}}

	res, err := newTestPipeline(t, m).Run(context.Background(), butterflyLegs(), model.Gran1Min)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, 30.0, row.Open)
	assert.Equal(t, 40.0, row.High)
	assert.Equal(t, 23.0, row.Low)
	assert.Equal(t, 31.0, row.Close)
	assert.Equal(t, 31.0, row.AvgPrice)
	assert.Equal(t, 30.0, row.SessionOpen)
	assert.False(t, row.SMA.Valid)

	assert.Equal(t, "烧碱 蝶式价差 (SH2511-SH2512-SH2601) - 1分钟", res.Meta.Title)
	assert.Equal(t, "烧碱", res.Meta.CommodityName)
	require.Len(t, res.Labels, 1)
	assert.True(t, res.Labels[0].Emphasis)
}

func TestRun_CondorOpen(t *testing.T) {
	m := collector.NewMockFetcher()
	legs := []string{"MA01", "MA03", "MA05", "MA09"}
	for i, o := range []float64{100, 50, 40, 20} {
		m.Data[legs[i]] = []model.Bar{{Time: end, Open: o, High: o, Low: o, Close: o}}
	}
	res, err := newTestPipeline(t, m).Run(context.Background(),
		model.StrategyConfig{Tag: model.Condor, Legs: legs}, model.Gran5Min)
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Rows[0].Open)
	assert.Equal(t, "MA 鹰式价差 (MA01-MA03-MA05-MA09) - 5分钟", res.Meta.Title)
}

func TestRun_WindowAndIndicators(t *testing.T) {
	m := collector.NewMockFetcher()
	n := 3*24*60 + 1
	m.Data["SH2511"] = collector.GenerateBars(2400, n, end, time.Minute, 0)
	m.Data["SH2512"] = collector.GenerateBars(2350, n, end, time.Minute, 5)
	m.Data["SH2601"] = collector.GenerateBars(2310, n, end, time.Minute, 11)

	res, err := newTestPipeline(t, m).Run(context.Background(), butterflyLegs(), model.Gran1Min)
	require.NoError(t, err)
	require.Len(t, res.Rows, 48*60+1)
	assert.Equal(t, end.Add(-48*time.Hour), res.Rows[0].Time)
	for i, r := range res.Rows {
		assert.Equal(t, i >= 19, r.SMA.Valid, "row %d", i)
		assert.Equal(t, i >= 19, r.UpperBand.Valid, "row %d", i)
	}
	assert.NotEmpty(t, res.Labels)
}

func TestRun_DeterministicJSON(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Data["SH2511"] = collector.GenerateBars(2400, 300, end, 5*time.Minute, 0)
	m.Data["SH2512"] = collector.GenerateBars(2350, 300, end, 5*time.Minute, 3)
	m.Data["SH2601"] = collector.GenerateBars(2310, 300, end, 5*time.Minute, 7)
	p := newTestPipeline(t, m)

	a, err := p.Run(context.Background(), butterflyLegs(), model.Gran5Min)
	require.NoError(t, err)
	b, err := p.Run(context.Background(), butterflyLegs(), model.Gran5Min)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}

func TestRun_ConfigErrorBeforeFetch(t *testing.T) {
	m := collector.NewMockFetcher()
	p := newTestPipeline(t, m)

	tests := []struct {
		name string
		cfg  model.StrategyConfig
		g    model.Granularity
	}{
		{"two legs", model.StrategyConfig{Tag: model.Butterfly, Legs: []string{"A", "B"}}, model.Gran1Min},
		{"condor with three", model.StrategyConfig{Tag: model.Condor, Legs: []string{"A", "B", "C"}}, model.Gran1Min},
		{"bad granularity", butterflyLegs(), model.Granularity("2min")},
		{"blank leg", model.StrategyConfig{Tag: model.Butterfly, Legs: []string{"A", " ", "C"}}, model.Gran1Min},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Run(context.Background(), tt.cfg, tt.g)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Equal(t, KindConfiguration, KindOf(err))
		})
	}
	assert.Empty(t, m.Calls)
}

func TestRun_EmptyLeg(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Data["SH2511"] = collector.GenerateBars(2400, 10, end, time.Minute, 0)
	m.Data["SH2601"] = collector.GenerateBars(2310, 10, end, time.Minute, 0)

	res, err := newTestPipeline(t, m).Run(context.Background(), butterflyLegs(), model.Gran1Min)
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.False(t, errors.Is(err, ErrSchema))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageFetch, pe.Stage)
	assert.Equal(t, "SH2512", pe.Leg)
	assert.ErrorIs(t, err, collector.ErrUnavailable)
}

func TestRun_SchemaErrors(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Data["SH2511"] = collector.GenerateBars(2400, 10, end, time.Minute, 0)
	m.Errs["SH2512"] = collector.ErrSchema
	m.Data["SH2601"] = collector.GenerateBars(2310, 10, end, time.Minute, 0)
	p := newTestPipeline(t, m)

	_, err := p.Run(context.Background(), butterflyLegs(), model.Gran1Min)
	assert.ErrorIs(t, err, ErrSchema)

	delete(m.Errs, "SH2512")
	dup := collector.GenerateBars(2350, 10, end, time.Minute, 0)
	m.Data["SH2512"] = append(dup, dup[len(dup)-1])
	_, err = p.Run(context.Background(), butterflyLegs(), model.Gran1Min)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindSchema, pe.Kind)
	assert.Equal(t, StageAlign, pe.Stage)
}

func TestRun_NoOverlap(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Data["SH2511"] = collector.GenerateBars(2400, 10, end, time.Minute, 0)
	m.Data["SH2512"] = collector.GenerateBars(2350, 10, end.Add(time.Hour), time.Minute, 0)
	m.Data["SH2601"] = collector.GenerateBars(2310, 10, end, time.Minute, 0)

	_, err := newTestPipeline(t, m).Run(context.Background(), butterflyLegs(), model.Gran1Min)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Equal(t, "data_unavailable", KindOf(err).String())
}

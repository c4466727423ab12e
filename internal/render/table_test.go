package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpreadScope/internal/config"
	"SpreadScope/internal/model"
)

func sample() *model.SpreadResult {
	t0 := time.Date(2025, 9, 1, 14, 58, 0, 0, time.UTC)
	rows := make([]model.IndicatorRow, 3)
	for i := range rows {
		rows[i] = model.IndicatorRow{
			SyntheticBar: model.SyntheticBar{Time: t0.Add(time.Duration(i) * time.Minute), Open: 30, High: 40, Low: 23, Close: 31 + float64(i)},
			AvgPrice:     31,
			SessionOpen:  30,
			DayHigh:      40,
			DayLow:       23,
		}
	}
	rows[2].SMA = model.Some(31.5)
	rows[2].UpperBand = model.Some(33.25)
	rows[2].LowerBand = model.Some(29.75)
	return &model.SpreadResult{
		Meta: model.DisplayMeta{Title: "烧碱 蝶式价差 (SH2511-SH2512-SH2601) - 1分钟"},
		Rows: rows,
		Labels: []model.AxisLabel{
			{Index: 0, Text: "09-01", Emphasis: true},
			{Index: 2, Text: "15:00"},
		},
	}
}

func TestTableRenderer_Simple(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableRenderer{View: ViewSimple}.Render(&buf, sample()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "烧碱 蝶式价差"))
	assert.Contains(t, out, "CLOSE")
	assert.Contains(t, out, "*09-01")
	assert.Contains(t, out, "33.00")
	assert.NotContains(t, out, "UPPER")
	assert.Contains(t, out, "3 / 3")
}

func TestTableRenderer_Analysis(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableRenderer{View: ViewAnalysis, Tail: 1}.Render(&buf, sample()))
	out := buf.String()

	assert.Contains(t, out, "UPPER")
	assert.Contains(t, out, "33.25")
	assert.Contains(t, out, "29.75")
	assert.Contains(t, out, "15:00")
	assert.NotContains(t, out, "*09-01")
	assert.NotContains(t, out, "14:58")
	assert.Contains(t, out, "1 / 3")
}

func TestTableRenderer_LabeledOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableRenderer{View: ViewAnalysis, LabeledOnly: true}.Render(&buf, sample()))
	out := buf.String()
	assert.Contains(t, out, "2 / 3")
	assert.NotContains(t, out, "14:59")
}

func TestPresetTable(t *testing.T) {
	cat, err := config.NewCatalog(nil, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	PresetTable(&buf, cat.Presets())
	out := buf.String()
	assert.Contains(t, out, "STRATEGY")
	assert.Contains(t, out, "SA2601-SA2605-SA2609")
	assert.Contains(t, out, "butterfly")
}

func TestParseView(t *testing.T) {
	v, err := ParseView("analysis")
	require.NoError(t, err)
	assert.Equal(t, ViewAnalysis, v)
	_, err = ParseView("chart")
	assert.Error(t, err)
}

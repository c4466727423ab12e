package align

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpreadScope/internal/model"
)

var base = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

func leg(symbol string, minutes ...int) model.LegSeries {
	bars := make([]model.Bar, len(minutes))
	for i, m := range minutes {
		p := float64(100 + m)
		bars[i] = model.Bar{Time: base.Add(time.Duration(m) * time.Minute), Open: p, High: p + 1, Low: p - 1, Close: p}
	}
	return model.LegSeries{Symbol: symbol, Granularity: model.Gran1Min, Bars: bars}
}

func TestAlign_Intersection(t *testing.T) {
	rows, err := Align([]model.LegSeries{
		leg("SH2511", 0, 1, 2, 3, 5),
		leg("SH2512", 1, 2, 3, 4, 5),
		leg("SH2601", 0, 2, 3, 5, 6),
	})
	require.NoError(t, err)

	var got []int
	for _, r := range rows {
		got = append(got, int(r.Time.Sub(base)/time.Minute))
		assert.Len(t, r.Legs, 3)
	}
	assert.Equal(t, []int{2, 3, 5}, got)
}

func TestAlign_UnsortedInputSortedOutput(t *testing.T) {
	rows, err := Align([]model.LegSeries{
		leg("A", 5, 3, 1),
		leg("B", 1, 5, 3),
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i-1].Time.Before(rows[i].Time), "rows must be strictly ascending")
	}
}

func TestAlign_LegOrderPreserved(t *testing.T) {
	rows, err := Align([]model.LegSeries{leg("A", 1), leg("B", 1)})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	a, b := leg("A", 1), leg("B", 1)
	b.Bars[0].Close = 7
	rows, err = Align([]model.LegSeries{a, b})
	require.NoError(t, err)
	assert.Equal(t, 101.0, rows[0].Legs[0].Close)
	assert.Equal(t, 7.0, rows[0].Legs[1].Close)
}

func TestAlign_Errors(t *testing.T) {
	nan := leg("B", 1, 2)
	nan.Bars[1].High = math.NaN()

	dup := leg("C", 1, 1)

	tests := []struct {
		name   string
		series []model.LegSeries
		want   error
	}{
		{"no legs", nil, ErrNoData},
		{"empty leg", []model.LegSeries{leg("A", 1), {Symbol: "B"}}, ErrNoData},
		{"nan field", []model.LegSeries{leg("A", 1, 2), nan}, ErrSchema},
		{"duplicate timestamp", []model.LegSeries{leg("A", 1), dup}, ErrSchema},
		{"no overlap", []model.LegSeries{leg("A", 1, 2), leg("B", 3, 4)}, ErrNoOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Align(tt.series)
			assert.Nil(t, rows)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestAlign_LegErrorNamesSymbol(t *testing.T) {
	_, err := Align([]model.LegSeries{leg("SA2601", 1), {Symbol: "SA2605"}})
	var le *LegError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1, le.Index)
	assert.Equal(t, "SA2605", le.Symbol)
}

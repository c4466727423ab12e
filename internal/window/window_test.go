package window

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpreadScope/internal/model"
)

var last = time.Date(2025, 9, 10, 15, 0, 0, 0, time.UTC)

func bars(times ...time.Time) []model.SyntheticBar {
	out := make([]model.SyntheticBar, len(times))
	for i, t := range times {
		out[i] = model.SyntheticBar{Time: t, Close: float64(i)}
	}
	return out
}

func TestApply_FinestBoundaryInclusive(t *testing.T) {
	boundary := last.Add(-48 * time.Hour)
	in := bars(boundary.Add(-time.Nanosecond), boundary, last.Add(-time.Hour), last)

	out, err := DefaultPolicy().Apply(in, model.Gran1Min)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, boundary, out[0].Time)
}

func TestApply_FiveMinuteWindow(t *testing.T) {
	in := bars(last.Add(-16*day), last.Add(-15*day), last.Add(-3*day), last)
	out, err := DefaultPolicy().Apply(in, model.Gran5Min)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestApply_CoarseKeepsAll(t *testing.T) {
	in := bars(last.Add(-400*day), last.Add(-100*day), last)
	for _, g := range []model.Granularity{model.Gran15Min, model.Gran30Min, model.Gran60Min, model.Gran1Day} {
		out, err := DefaultPolicy().Apply(in, g)
		require.NoError(t, err)
		assert.Len(t, out, 3, string(g))
	}
}

func TestApply_Empty(t *testing.T) {
	_, err := DefaultPolicy().Apply(nil, model.Gran1Min)
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(map[string]string{"1min": "1d", "15min": "30d", "5min": "all"})
	require.NoError(t, err)

	d, ok := p.Lookback(model.Gran1Min)
	assert.True(t, ok)
	assert.Equal(t, day, d)

	d, ok = p.Lookback(model.Gran15Min)
	assert.True(t, ok)
	assert.Equal(t, 30*day, d)

	_, ok = p.Lookback(model.Gran5Min)
	assert.False(t, ok)
}

func TestParsePolicy_Invalid(t *testing.T) {
	_, err := ParsePolicy(map[string]string{"2min": "1d"})
	assert.Error(t, err)

	_, err = ParsePolicy(map[string]string{"1min": "soon"})
	assert.Error(t, err)

	_, err = ParsePolicy(map[string]string{"1min": "-1d"})
	assert.Error(t, err)
}

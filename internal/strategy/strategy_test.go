package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpreadScope/internal/model"
)

var ts = time.Date(2025, 9, 1, 9, 30, 0, 0, time.UTC)

func q(o, h, l, c float64) model.LegQuote {
	return model.LegQuote{Open: o, High: h, Low: l, Close: c}
}

func TestButterfly_LiteralExample(t *testing.T) {
	s, err := For(model.Butterfly)
	require.NoError(t, err)

	bar := s.Synthesize(model.AlignedRow{Time: ts, Legs: []model.LegQuote{
		q(100, 105, 98, 102),
		q(50, 52, 49, 51),
		q(30, 33, 29, 31),
	}})
	assert.Equal(t, ts, bar.Time)
	assert.Equal(t, 30.0, bar.Open)
	assert.Equal(t, 31.0, bar.Close)
	// high uses the mid leg's low, low uses the mid leg's high
	assert.Equal(t, 105+33-2*49.0, bar.High)
	assert.Equal(t, 98+29-2*52.0, bar.Low)
}

func TestButterfly_NotNaiveSum(t *testing.T) {
	s, _ := For(model.Butterfly)
	bar := s.Synthesize(model.AlignedRow{Time: ts, Legs: []model.LegQuote{
		q(100, 105, 98, 102),
		q(50, 52, 49, 51),
		q(30, 33, 29, 31),
	}})
	naiveHigh := 105 + 33 - 2*52.0
	naiveLow := 98 + 29 - 2*49.0
	assert.Greater(t, bar.High, naiveHigh)
	assert.Less(t, bar.Low, naiveLow)
	assert.GreaterOrEqual(t, bar.High, bar.Low)
}

func TestCondor_LiteralExample(t *testing.T) {
	s, err := For(model.Condor)
	require.NoError(t, err)

	bar := s.Synthesize(model.AlignedRow{Time: ts, Legs: []model.LegQuote{
		q(100, 0, 0, 0),
		q(50, 0, 0, 0),
		q(40, 0, 0, 0),
		q(20, 0, 0, 0),
	}})
	assert.Equal(t, 30.0, bar.Open)
}

func TestCondor_ExtremeSigns(t *testing.T) {
	s, _ := For(model.Condor)
	bar := s.Synthesize(model.AlignedRow{Time: ts, Legs: []model.LegQuote{
		q(100, 110, 95, 105),
		q(50, 55, 45, 52),
		q(40, 44, 38, 41),
		q(20, 22, 18, 21),
	}})
	assert.Equal(t, 110-45-38+22.0, bar.High)
	assert.Equal(t, 95-55-44+18.0, bar.Low)
	assert.Equal(t, 105-52-41+21.0, bar.Close)
}

func TestSynthesize_DecimalExact(t *testing.T) {
	s, _ := For(model.Butterfly)
	bar := s.Synthesize(model.AlignedRow{Time: ts, Legs: []model.LegQuote{
		q(2345.1, 2345.1, 2345.1, 2345.1),
		q(2301.2, 2301.2, 2301.2, 2301.2),
		q(2260.3, 2260.3, 2260.3, 2260.3),
	}})
	assert.Equal(t, 3.0, bar.Close)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.StrategyConfig
		want error
	}{
		{"butterfly ok", model.StrategyConfig{Tag: model.Butterfly, Legs: []string{"a", "b", "c"}}, nil},
		{"condor ok", model.StrategyConfig{Tag: model.Condor, Legs: []string{"a", "b", "c", "d"}}, nil},
		{"butterfly with four", model.StrategyConfig{Tag: model.Butterfly, Legs: []string{"a", "b", "c", "d"}}, ErrLegCount},
		{"condor with three", model.StrategyConfig{Tag: model.Condor, Legs: []string{"a", "b", "c"}}, ErrLegCount},
		{"blank leg", model.StrategyConfig{Tag: model.Butterfly, Legs: []string{"a", " ", "c"}}, ErrEmptyLeg},
		{"unknown tag", model.StrategyConfig{Tag: "strangle", Legs: []string{"a"}}, ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Validate(tt.cfg)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.cfg.Tag, s.Tag())
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSynthesizeAll_OneToOne(t *testing.T) {
	s, _ := For(model.Butterfly)
	rows := []model.AlignedRow{
		{Time: ts, Legs: []model.LegQuote{q(1, 1, 1, 1), q(1, 1, 1, 1), q(1, 1, 1, 1)}},
		{Time: ts.Add(time.Minute), Legs: []model.LegQuote{q(2, 2, 2, 2), q(1, 1, 1, 1), q(2, 2, 2, 2)}},
	}
	bars := SynthesizeAll(s, rows)
	require.Len(t, bars, 2)
	assert.Equal(t, 0.0, bars[0].Close)
	assert.Equal(t, 2.0, bars[1].Close)
}

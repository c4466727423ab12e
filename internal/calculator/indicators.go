package calculator

import (
	"errors"
	"fmt"

	"SpreadScope/internal/model"
)

const (
	// BandPeriod is the rolling window length for SMA and standard deviation.
	BandPeriod = 20
	// BandWidth is the number of standard deviations between the SMA and each band.
	BandWidth = 2.0
)

// ErrNoBars is returned for an empty input series.
var ErrNoBars = errors.New("no bars to compute indicators on")

// Compute derives one IndicatorRow per synthetic bar. The input must be
// ascending and already windowed; the output has the same length.
func Compute(bars []model.SyntheticBar) ([]model.IndicatorRow, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	closes := extractCloses(bars)
	avg := ExpandingMean(closes)
	highs, lows := ExpandingRange(bars)

	sma, err := RollingSMA(closes, BandPeriod)
	if err != nil {
		return nil, fmt.Errorf("sma: %w", err)
	}
	std, err := RollingStdDev(closes, BandPeriod)
	if err != nil {
		return nil, fmt.Errorf("stddev: %w", err)
	}

	sessionOpen := bars[0].Open
	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		row := model.IndicatorRow{
			SyntheticBar: b,
			AvgPrice:     avg[i],
			SessionOpen:  sessionOpen,
			SMA:          sma[i],
			StdDev:       std[i],
			DayHigh:      highs[i],
			DayLow:       lows[i],
		}
		if sma[i].Valid && std[i].Valid {
			row.UpperBand = model.Some(sma[i].Value + BandWidth*std[i].Value)
			row.LowerBand = model.Some(sma[i].Value - BandWidth*std[i].Value)
		}
		rows[i] = row
	}
	return rows, nil
}

package calculator

import (
	"errors"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"SpreadScope/internal/model"
)

// ExpandingMean returns the running mean of prices[0..i] for every i.
func ExpandingMean(prices []float64) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 {
		return out
	}
	floats.CumSum(out, prices)
	for i := range out {
		out[i] /= float64(i + 1)
	}
	return out
}

// RollingSMA returns the simple moving average over the trailing period.
// Entries before the first full window are absent.
func RollingSMA(prices []float64, period int) ([]model.Float, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]model.Float, len(prices))
	if len(prices) < period {
		return out, nil
	}
	sma := talib.Sma(prices, period)
	for i := period - 1; i < len(prices); i++ {
		out[i] = model.Some(sma[i])
	}
	return out, nil
}

// RollingStdDev returns the sample (N-1) standard deviation over the trailing period.
// Entries before the first full window are absent.
func RollingStdDev(prices []float64, period int) ([]model.Float, error) {
	if period <= 1 {
		return nil, errors.New("period must be greater than 1")
	}
	out := make([]model.Float, len(prices))
	for i := period - 1; i < len(prices); i++ {
		out[i] = model.Some(stat.StdDev(prices[i-period+1:i+1], nil))
	}
	return out, nil
}

func extractCloses(bars []model.SyntheticBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

package calculator

import (
	"math"

	"SpreadScope/internal/model"
)

// ExpandingRange returns the running max of High and running min of Low.
func ExpandingRange(bars []model.SyntheticBar) (highs, lows []float64) {
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	high := math.Inf(-1)
	low := math.Inf(1)
	for i, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
		highs[i] = high
		lows[i] = low
	}
	return highs, lows
}

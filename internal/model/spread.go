package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// LegQuote is the OHLC quadruple of one leg inside an aligned row.
type LegQuote struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// AlignedRow carries every leg's quote at a timestamp present in all legs.
type AlignedRow struct {
	Time time.Time
	Legs []LegQuote
}

// SyntheticBar is one bar of the combined spread series.
type SyntheticBar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Float is a number that may be absent. Absent values encode as JSON null.
type Float struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Float { return Float{Value: v, Valid: true} }

// None is the absent value.
var None = Float{}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = None
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// IndicatorRow is a synthetic bar with its derived overlays.
type IndicatorRow struct {
	SyntheticBar
	AvgPrice    float64 `json:"avg_price"`
	SessionOpen float64 `json:"open_price"`
	SMA         Float   `json:"sma_20"`
	StdDev      Float   `json:"std_dev"`
	UpperBand   Float   `json:"upper_band"`
	LowerBand   Float   `json:"lower_band"`
	DayHigh     float64 `json:"day_high"`
	DayLow      float64 `json:"day_low"`
}

// AxisLabel is one categorical x-axis tick.
type AxisLabel struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Emphasis bool   `json:"emphasis"`
}

// DisplayMeta is what the renderer needs besides the numbers.
type DisplayMeta struct {
	StrategyName  string      `json:"strategy_name"`
	Strategy      StrategyTag `json:"strategy"`
	CommodityName string      `json:"commodity_name"`
	Title         string      `json:"title"`
	Legs          []string    `json:"legs"`
	Granularity   Granularity `json:"granularity"`
}

// SpreadResult is the full output of one pipeline run.
type SpreadResult struct {
	Meta   DisplayMeta    `json:"meta"`
	Rows   []IndicatorRow `json:"rows"`
	Labels []AxisLabel    `json:"labels"`
}

// Latest returns the last row, or false when there are none.
func (r *SpreadResult) Latest() (IndicatorRow, bool) {
	if r == nil || len(r.Rows) == 0 {
		return IndicatorRow{}, false
	}
	return r.Rows[len(r.Rows)-1], true
}

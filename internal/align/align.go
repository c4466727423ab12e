// Package align inner-joins per-leg bar series on timestamp.
package align

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"SpreadScope/internal/model"
)

var (
	// ErrNoData means a leg series is missing or empty.
	ErrNoData = errors.New("leg series is empty")
	// ErrSchema means a leg series carries malformed bars.
	ErrSchema = errors.New("leg series schema mismatch")
	// ErrNoOverlap means the legs share no timestamp.
	ErrNoOverlap = errors.New("legs share no common timestamp")
)

// LegError attributes an alignment failure to one leg.
type LegError struct {
	Index  int
	Symbol string
	Err    error
}

func (e *LegError) Error() string {
	return fmt.Sprintf("leg %d (%s): %v", e.Index+1, e.Symbol, e.Err)
}

func (e *LegError) Unwrap() error { return e.Err }

// Align returns one row per timestamp present in every series, ascending.
// Gaps are not filled.
func Align(series []model.LegSeries) ([]model.AlignedRow, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}

	quotes := make([]map[int64]model.LegQuote, len(series))
	for i, s := range series {
		if len(s.Bars) == 0 {
			return nil, &LegError{Index: i, Symbol: s.Symbol, Err: ErrNoData}
		}
		m, err := index(s.Bars)
		if err != nil {
			return nil, &LegError{Index: i, Symbol: s.Symbol, Err: err}
		}
		quotes[i] = m
	}

	// Walk the smallest leg; every common timestamp must be in it.
	smallest := lo.MinBy(lo.Range(len(quotes)), func(a, b int) bool {
		return len(quotes[a]) < len(quotes[b])
	})
	common := lo.Filter(lo.Keys(quotes[smallest]), func(ts int64, _ int) bool {
		return lo.EveryBy(quotes, func(m map[int64]model.LegQuote) bool {
			_, ok := m[ts]
			return ok
		})
	})
	if len(common) == 0 {
		return nil, ErrNoOverlap
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	loc := series[0].Bars[0].Time.Location()
	rows := make([]model.AlignedRow, len(common))
	for i, ts := range common {
		legs := make([]model.LegQuote, len(quotes))
		for j, m := range quotes {
			legs[j] = m[ts]
		}
		rows[i] = model.AlignedRow{Time: time.Unix(0, ts).In(loc), Legs: legs}
	}
	return rows, nil
}

func index(bars []model.Bar) (map[int64]model.LegQuote, error) {
	m := make(map[int64]model.LegQuote, len(bars))
	for _, b := range bars {
		if !finite(b.Open, b.High, b.Low, b.Close) {
			return nil, fmt.Errorf("%w: non-finite OHLC at %s", ErrSchema, b.Time.Format(time.RFC3339))
		}
		ts := b.Time.UnixNano()
		if _, dup := m[ts]; dup {
			return nil, fmt.Errorf("%w: duplicate timestamp %s", ErrSchema, b.Time.Format(time.RFC3339))
		}
		m[ts] = model.LegQuote{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}
	return m, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Package window restricts the synthetic series to a trailing lookback.
package window

import (
	"errors"
	"fmt"
	"sort"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"

	"SpreadScope/internal/model"
)

// ErrEmpty is returned when nothing remains after windowing.
var ErrEmpty = errors.New("no bars inside lookback window")

const day = 24 * time.Hour

// Policy maps a granularity to its trailing window. Granularities without an
// entry keep their full history.
type Policy struct {
	lookback map[model.Granularity]time.Duration
}

// DefaultPolicy keeps 2 days of 1min bars and 15 days of 5min bars.
func DefaultPolicy() Policy {
	return Policy{lookback: map[model.Granularity]time.Duration{
		model.Gran1Min: 2 * day,
		model.Gran5Min: 15 * day,
	}}
}

// ParsePolicy builds a policy from duration strings such as "2d" or "36h".
// Missing entries fall back to the default policy.
func ParsePolicy(raw map[string]string) (Policy, error) {
	p := DefaultPolicy()
	for k, v := range raw {
		g, err := model.ParseGranularity(k)
		if err != nil {
			return Policy{}, err
		}
		if v == "" || v == "all" {
			delete(p.lookback, g)
			continue
		}
		d, err := str2duration.ParseDuration(v)
		if err != nil {
			return Policy{}, fmt.Errorf("window %s: %w", k, err)
		}
		if d <= 0 {
			return Policy{}, fmt.Errorf("window %s: must be positive, got %q", k, v)
		}
		p.lookback[g] = d
	}
	return p, nil
}

// Lookback returns the window for g and whether truncation applies.
func (p Policy) Lookback(g model.Granularity) (time.Duration, bool) {
	d, ok := p.lookback[g]
	return d, ok
}

// Apply keeps bars with Time >= last.Time - lookback. The input must be ascending.
func (p Policy) Apply(bars []model.SyntheticBar, g model.Granularity) ([]model.SyntheticBar, error) {
	if len(bars) == 0 {
		return nil, ErrEmpty
	}
	d, ok := p.Lookback(g)
	if !ok {
		return bars, nil
	}
	cutoff := bars[len(bars)-1].Time.Add(-d)
	start := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Time.Before(cutoff)
	})
	out := bars[start:]
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

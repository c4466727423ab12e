package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"SpreadScope/internal/model"
)

var (
	// ErrUnknown is returned for a tag outside the supported set.
	ErrUnknown = errors.New("unknown strategy")
	// ErrLegCount is returned when the configured legs do not match the strategy.
	ErrLegCount = errors.New("leg count does not match strategy")
	// ErrEmptyLeg is returned when a leg symbol is blank.
	ErrEmptyLeg = errors.New("empty leg symbol")
)

// Strategy turns one aligned row into one synthetic bar.
type Strategy interface {
	Tag() model.StrategyTag
	Name() string
	LegCount() int
	LegRoles() []string
	Synthesize(row model.AlignedRow) model.SyntheticBar
}

// weighted is a linear combination of legs. Long legs contribute their own
// extremes; short legs contribute the opposite extreme.
type weighted struct {
	weights []decimal.Decimal
}

func newWeighted(ws ...int64) weighted {
	d := make([]decimal.Decimal, len(ws))
	for i, w := range ws {
		d[i] = decimal.NewFromInt(w)
	}
	return weighted{weights: d}
}

func (w weighted) combine(row model.AlignedRow) model.SyntheticBar {
	var open, high, low, cls decimal.Decimal
	for i, q := range row.Legs {
		wt := w.weights[i]
		open = open.Add(wt.Mul(decimal.NewFromFloat(q.Open)))
		cls = cls.Add(wt.Mul(decimal.NewFromFloat(q.Close)))
		if wt.IsPositive() {
			high = high.Add(wt.Mul(decimal.NewFromFloat(q.High)))
			low = low.Add(wt.Mul(decimal.NewFromFloat(q.Low)))
		} else {
			high = high.Add(wt.Mul(decimal.NewFromFloat(q.Low)))
			low = low.Add(wt.Mul(decimal.NewFromFloat(q.High)))
		}
	}
	return model.SyntheticBar{
		Time:  row.Time,
		Open:  open.InexactFloat64(),
		High:  high.InexactFloat64(),
		Low:   low.InexactFloat64(),
		Close: cls.InexactFloat64(),
	}
}

// butterfly is near + far - 2*mid.
type butterfly struct{ weighted }

func (butterfly) Tag() model.StrategyTag { return model.Butterfly }
func (butterfly) Name() string           { return "蝶式价差" }
func (butterfly) LegCount() int          { return 3 }
func (butterfly) LegRoles() []string     { return []string{"near", "mid", "far"} }

func (b butterfly) Synthesize(row model.AlignedRow) model.SyntheticBar { return b.combine(row) }

// condor is (L1 - L2) - (L3 - L4).
type condor struct{ weighted }

func (condor) Tag() model.StrategyTag { return model.Condor }
func (condor) Name() string           { return "鹰式价差" }
func (condor) LegCount() int          { return 4 }
func (condor) LegRoles() []string     { return []string{"leg1", "leg2", "leg3", "leg4"} }

func (c condor) Synthesize(row model.AlignedRow) model.SyntheticBar { return c.combine(row) }

var registry = map[model.StrategyTag]Strategy{
	model.Butterfly: butterfly{newWeighted(1, -2, 1)},
	model.Condor:    condor{newWeighted(1, -1, -1, 1)},
}

// For returns the strategy registered for tag.
func For(tag model.StrategyTag) (Strategy, error) {
	s, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, tag)
	}
	return s, nil
}

// Validate checks a strategy configuration before any data is fetched.
func Validate(cfg model.StrategyConfig) (Strategy, error) {
	s, err := For(cfg.Tag)
	if err != nil {
		return nil, err
	}
	if len(cfg.Legs) != s.LegCount() {
		return nil, fmt.Errorf("%w: %s needs %d legs, got %d", ErrLegCount, cfg.Tag, s.LegCount(), len(cfg.Legs))
	}
	for i, l := range cfg.Legs {
		if strings.TrimSpace(l) == "" {
			return nil, fmt.Errorf("%w: %s leg", ErrEmptyLeg, s.LegRoles()[i])
		}
	}
	return s, nil
}

// SynthesizeAll maps every aligned row through s.
func SynthesizeAll(s Strategy, rows []model.AlignedRow) []model.SyntheticBar {
	out := make([]model.SyntheticBar, len(rows))
	for i, r := range rows {
		out[i] = s.Synthesize(r)
	}
	return out
}

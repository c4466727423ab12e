package model

import (
	"fmt"
	"time"
)

// Bar represents a single OHLC bar of one leg.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// LegSeries holds the raw bars of one instrument at one granularity.
type LegSeries struct {
	Symbol      string
	Granularity Granularity
	Bars        []Bar
}

// Granularity is the bar sampling interval label.
type Granularity string

const (
	Gran1Min  Granularity = "1min"
	Gran5Min  Granularity = "5min"
	Gran15Min Granularity = "15min"
	Gran30Min Granularity = "30min"
	Gran60Min Granularity = "60min"
	Gran1Day  Granularity = "1day"
)

// Granularities lists the supported labels from finest to coarsest.
var Granularities = []Granularity{Gran1Min, Gran5Min, Gran15Min, Gran30Min, Gran60Min, Gran1Day}

var granularityLabels = map[Granularity]string{
	Gran1Min:  "1分钟",
	Gran5Min:  "5分钟",
	Gran15Min: "15分钟",
	Gran30Min: "30分钟",
	Gran60Min: "60分钟",
	Gran1Day:  "日线",
}

// ParseGranularity validates a granularity label.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	if !g.Valid() {
		return "", fmt.Errorf("unknown granularity %q", s)
	}
	return g, nil
}

// Valid reports whether g is one of the enumerated labels.
func (g Granularity) Valid() bool {
	return g.Rank() >= 0
}

// Rank returns the position of g from finest (0), or -1 if unknown.
func (g Granularity) Rank() int {
	for i, v := range Granularities {
		if v == g {
			return i
		}
	}
	return -1
}

// Label returns the display text used in chart titles.
func (g Granularity) Label() string {
	if l, ok := granularityLabels[g]; ok {
		return l
	}
	return string(g)
}

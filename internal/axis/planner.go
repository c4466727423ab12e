// Package axis picks sparse categorical x-axis labels for a bar series.
package axis

import (
	"time"

	"SpreadScope/internal/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var spacing = map[model.Granularity]int{
	model.Gran1Min:  60,
	model.Gran5Min:  24,
	model.Gran15Min: 16,
	model.Gran30Min: 8,
	model.Gran60Min: 6,
	model.Gran1Day:  5,
}

// Spacing returns the number of bars between labels for g.
func Spacing(g model.Granularity) int {
	if k, ok := spacing[g]; ok {
		return k
	}
	return 1
}

// Plan labels every Spacing(g)-th bar. A label shows the date when the day
// changed since the previous label, and the time of day otherwise.
func Plan(times []time.Time, g model.Granularity) []model.AxisLabel {
	k := Spacing(g)
	labels := make([]model.AxisLabel, 0, len(times)/k+1)
	lastDate := ""
	for i := 0; i < len(times); i += k {
		date := times[i].Format(dateLayout)
		if date != lastDate {
			labels = append(labels, model.AxisLabel{Index: i, Text: date, Emphasis: true})
			lastDate = date
			continue
		}
		labels = append(labels, model.AxisLabel{Index: i, Text: times[i].Format(timeLayout)})
	}
	return labels
}

// Times extracts bar timestamps for planning.
func Times(rows []model.IndicatorRow) []time.Time {
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.Time
	}
	return out
}

// Package render prints spread results as text tables.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"SpreadScope/internal/model"
)

// View selects which columns are printed.
type View string

const (
	// ViewSimple shows the close against its running average and session open.
	ViewSimple View = "simple"
	// ViewAnalysis shows OHLC with Bollinger bands and the running range.
	ViewAnalysis View = "analysis"
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewSimple, ViewAnalysis:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// TableRenderer writes one result as a table.
type TableRenderer struct {
	View View
	// Tail limits output to the last Tail rows. Zero prints every row.
	Tail int
	// LabeledOnly prints only rows that carry an axis label.
	LabeledOnly bool
}

// Render writes the title line and the table to w.
func (r TableRenderer) Render(w io.Writer, res *model.SpreadResult) error {
	labels := make(map[int]model.AxisLabel, len(res.Labels))
	for _, l := range res.Labels {
		labels[l.Index] = l
	}

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader(r.header())
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	start := 0
	if r.Tail > 0 && len(res.Rows) > r.Tail {
		start = len(res.Rows) - r.Tail
	}
	printed := 0
	for i := start; i < len(res.Rows); i++ {
		l, ok := labels[i]
		if r.LabeledOnly && !ok {
			continue
		}
		table.Append(r.row(res.Rows[i], labelText(l, ok)))
		printed++
	}
	table.SetFooter(r.footer(res, printed))
	table.Render()

	_, err := fmt.Fprintf(w, "%s\n%s", res.Meta.Title, buffer.String())
	return err
}

func (r TableRenderer) header() []string {
	if r.View == ViewAnalysis {
		return []string{"Label", "Time", "Open", "High", "Low", "Close", "Upper", "Mid", "Lower", "Day High", "Day Low"}
	}
	return []string{"Label", "Time", "Close", "Avg", "Open"}
}

func (r TableRenderer) row(row model.IndicatorRow, label string) []string {
	ts := row.Time.Format("2006-01-02 15:04")
	if r.View == ViewAnalysis {
		return []string{
			label, ts,
			num(row.Open), num(row.High), num(row.Low), num(row.Close),
			opt(row.UpperBand), opt(row.SMA), opt(row.LowerBand),
			num(row.DayHigh), num(row.DayLow),
		}
	}
	return []string{label, ts, num(row.Close), num(row.AvgPrice), num(row.SessionOpen)}
}

func (r TableRenderer) footer(res *model.SpreadResult, printed int) []string {
	f := make([]string, len(r.header()))
	f[0] = "ROWS"
	f[1] = fmt.Sprintf("%d / %d", printed, len(res.Rows))
	return f
}

func labelText(l model.AxisLabel, ok bool) string {
	switch {
	case !ok:
		return ""
	case l.Emphasis:
		return "*" + l.Text
	default:
		return l.Text
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func opt(f model.Float) string {
	if !f.Valid {
		return "-"
	}
	return num(f.Value)
}

package render

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"SpreadScope/internal/config"
)

// PresetTable lists catalog presets.
func PresetTable(w io.Writer, presets []config.PresetInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Name", "Strategy", "Legs"})
	for _, p := range presets {
		table.Append([]string{p.Code, p.Name, string(p.Strategy), strings.Join(p.Legs, "-")})
	}
	table.Render()
}

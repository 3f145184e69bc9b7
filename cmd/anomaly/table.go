package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// formatTable renders out as a two-column summary for terminals.
func formatTable(out output) string {
	res := out.Result

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Field", "Value"})
	tbl.AppendRows([]table.Row{
		{"Source", out.Source},
		{"Years", fmt.Sprintf("%d–%d (%d rows)", out.Years[0], out.Years[len(out.Years)-1], len(out.Years))},
		{"Dropped records", out.Dropped},
		{"Date", res.Date.Format(time.DateOnly)},
		{"Day index", res.DayIndex},
		{"Value", fmt.Sprintf("%.3f", res.CurrentValue)},
		{"Baseline", fmt.Sprintf("%d–%d", res.ReferenceStart, res.ReferenceEnd)},
		{"Baseline mean", fmt.Sprintf("%.3f", res.BaselineMean)},
		{"Baseline std", fmt.Sprintf("%.3f", res.BaselineStd)},
		{"Anomaly", fmt.Sprintf("%+.3f", res.Anomaly)},
		{"Sigma", sigmaText(res.Sigma)},
	})
	if res.InteriorGaps > 0 {
		tbl.AppendRow(table.Row{"Interior gaps", res.InteriorGaps})
	}
	for _, p := range out.Charts {
		tbl.AppendRow(table.Row{"Chart", p})
	}
	tbl.AppendRow(table.Row{"Caption", out.Caption})

	return tbl.Render()
}

func sigmaText(sigma *float64) string {
	if sigma == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2fσ", *sigma)
}

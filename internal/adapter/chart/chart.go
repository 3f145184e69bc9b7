package chart

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/couchcryptid/climate-anomaly/internal/domain"
)

const (
	colorHistory  = "#b0b0b0"
	colorCurrent  = "#d62728"
	colorBaseline = "#000000"
	colorBand     = "#555555"
	colorSource   = "#1f77b4"

	historyWidth = 1
	currentWidth = 3
	meanWidth    = 2

	// gap is how echarts expects a missing point; JSON has no NaN.
	gap = "-"
)

// Renderer writes the raw and anomaly charts for a source as standalone HTML pages.
type Renderer struct {
	outputDir string
	logger    *slog.Logger
}

// NewRenderer creates a Renderer that writes into outputDir.
func NewRenderer(outputDir string, logger *slog.Logger) *Renderer {
	return &Renderer{outputDir: outputDir, logger: logger}
}

// Render writes both charts and returns their paths.
func (r *Renderer) Render(info domain.SeriesInfo, g *domain.SeriesGrid, b domain.BaselineStats, res domain.AnomalyResult) ([]string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	pages := []struct {
		suffix string
		line   *charts.Line
	}{
		{"raw", RawChart(info, g, b, res)},
		{"anomaly", AnomalyChart(info, g, b, res)},
	}

	paths := make([]string, 0, len(pages))
	for _, p := range pages {
		path := filepath.Join(r.outputDir, fmt.Sprintf("%s_%s.html", info.ID, p.suffix))
		if err := writeFile(path, p.line); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	r.logger.Debug("charts rendered", "source", info.ID, "paths", paths)
	return paths, nil
}

// WriteCaption saves the post text next to the charts as Markdown.
func (r *Renderer) WriteCaption(info domain.SeriesInfo, caption string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.outputDir, info.ID+".md")
	if err := os.WriteFile(path, []byte(caption+"\n\n"), 0o644); err != nil {
		return "", fmt.Errorf("write caption: %w", err)
	}
	return path, nil
}

func writeFile(path string, line *charts.Line) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := Write(f, line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write renders line as an HTML page.
func Write(w io.Writer, line *charts.Line) error {
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// RawChart plots every year faintly, the current year in red, and the
// baseline mean with its ±2σ envelope dashed. Means published by the source
// itself are drawn dashed in blue for comparison.
func RawChart(info domain.SeriesInfo, g *domain.SeriesGrid, b domain.BaselineStats, res domain.AnomalyResult) *charts.Line {
	line := newLine(
		info.Title,
		fmt.Sprintf("%s: %.2f%s, baseline %d–%d", res.Date.Format(time.DateOnly), res.CurrentValue, info.Unit, b.StartYear, b.EndYear),
		info.Unit,
		g.Days,
	)

	current, hasCurrent := g.RowOf(res.Year)
	for i := range g.Len() {
		if hasCurrent && i == current {
			continue
		}
		line.AddSeries(strconv.Itoa(g.YearAt(i)), lineData(g.Row(i)), historyStyle()...)
	}

	upper := make([]float64, len(b.Mean))
	lower := make([]float64, len(b.Mean))
	for d := range b.Mean {
		upper[d] = b.Mean[d] + 2*b.Std[d]
		lower[d] = b.Mean[d] - 2*b.Std[d]
	}
	line.AddSeries(fmt.Sprintf("%d–%d mean", b.StartYear, b.EndYear), lineData(b.Mean), dashed(colorBaseline, meanWidth)...)
	line.AddSeries("+2σ", lineData(upper), dashed(colorBand, historyWidth)...)
	line.AddSeries("−2σ", lineData(lower), dashed(colorBand, historyWidth)...)
	for _, a := range g.AnnotationsOf(domain.AnnotationMean, domain.AnnotationClimatology) {
		line.AddSeries("source "+a.Label, lineData(fitDays(a.Values, g.Days)), dashed(colorSource, historyWidth)...)
	}

	if hasCurrent {
		line.AddSeries(strconv.Itoa(res.Year), lineData(g.Row(current)), solid(colorCurrent, currentWidth)...)
	}
	return line
}

// AnomalyChart plots each year minus the baseline mean.
func AnomalyChart(info domain.SeriesInfo, g *domain.SeriesGrid, b domain.BaselineStats, res domain.AnomalyResult) *charts.Line {
	subtitle := fmt.Sprintf("%s: %+.2f%s", res.Date.Format(time.DateOnly), res.Anomaly, info.Unit)
	if res.Sigma != nil {
		subtitle += fmt.Sprintf(" (%+.2fσ)", *res.Sigma)
	}
	line := newLine(info.Title+" Anomaly", subtitle, info.Unit, g.Days)

	current, hasCurrent := g.RowOf(res.Year)
	for i := range g.Len() {
		if hasCurrent && i == current {
			continue
		}
		line.AddSeries(strconv.Itoa(g.YearAt(i)), lineData(Departures(g.Row(i), b.Mean)), historyStyle()...)
	}
	line.AddSeries("baseline", lineData(make([]float64, g.Days)), dashed(colorBaseline, meanWidth)...)
	if hasCurrent {
		line.AddSeries(strconv.Itoa(res.Year), lineData(Departures(g.Row(current), b.Mean)), solid(colorCurrent, currentWidth)...)
	}
	return line
}

// Departures returns row minus mean cell by cell. Missing on either side stays missing.
func Departures(row, mean []float64) []float64 {
	out := make([]float64, len(row))
	for d, v := range row {
		if d >= len(mean) || domain.IsMissing(v) || domain.IsMissing(mean[d]) {
			out[d] = domain.Missing()
			continue
		}
		out[d] = v - mean[d]
	}
	return out
}

// fitDays trims or pads values with missing cells to the grid width.
func fitDays(values []float64, days int) []float64 {
	out := make([]float64, days)
	for d := range out {
		if d < len(values) {
			out[d] = values[d]
			continue
		}
		out[d] = domain.Missing()
	}
	return out
}

func newLine(title, subtitle, unit string, days int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Day of year",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  unit,
			Scale: opts.Bool(true),
		}),
	)
	line.SetXAxis(dayLabels(days))
	return line
}

// dayLabels names each day index by its date in a leap year, so index 59 is Feb 29.
func dayLabels(days int) []string {
	labels := make([]string, days)
	jan1 := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := range labels {
		labels[d] = jan1.AddDate(0, 0, d).Format("Jan 02")
	}
	return labels
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		if domain.IsMissing(v) {
			data[i] = opts.LineData{Value: gap}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

func historyStyle() []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorHistory}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorHistory, Width: historyWidth, Opacity: opts.Float(0.5)}),
	}
}

func solid(color string, width float32) []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: width}),
	}
}

func dashed(color string, width float32) []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: width, Type: "dashed"}),
	}
}

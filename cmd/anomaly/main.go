// Command anomaly evaluates a single downloaded series file and prints the
// anomaly result as JSON. It runs the same engine as the report service
// without fetching, publishing or serving anything.
//
// Usage:
//
//	go run ./cmd/anomaly \
//	  --file oisst2.1_natlan_sst_day.json \
//	  --ref-start 1982 --ref-end 2010 \
//	  --out output
//
//	go run ./cmd/anomaly \
//	  --file S_seaice_extent_daily_v4.0.csv \
//	  --ref-start 1981 --ref-end 2010 --min-year 1981 --strategy first_gap -o table
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-anomaly/internal/adapter/chart"
	"github.com/couchcryptid/climate-anomaly/internal/adapter/source"
	"github.com/couchcryptid/climate-anomaly/internal/domain"
	"github.com/couchcryptid/climate-anomaly/internal/pipeline"
)

func main() {
	cmd := newRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	file        string
	format      string
	id          string
	title       string
	unit        string
	refStart    int
	refEnd      int
	minYear     int
	currentYear int
	offset      int
	strategy    string
	outDir      string
	output      string
	verbose     bool
}

// output is the JSON document printed on success.
type output struct {
	Source  string               `json:"source"`
	Format  string               `json:"format"`
	Years   []int                `json:"years"`
	Dropped int                  `json:"dropped_records"`
	Result  domain.AnomalyResult `json:"result"`
	Caption string               `json:"caption"`
	Charts  []string             `json:"charts,omitempty"`
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "anomaly",
		Short: "Evaluate today's anomaly for a downloaded daily series",
		Long: `anomaly aligns a Climate Reanalyzer JSON or NSIDC CSV file into a
year by day-of-year grid, computes the reference-period baseline and prints
the latest observation's anomaly.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(o, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&o.file, "file", "f", "", "path to a Climate Reanalyzer JSON or NSIDC CSV file")
	f.StringVar(&o.format, "format", "", "json or csv (default: from file extension)")
	f.StringVar(&o.id, "id", "series", "series ID used for chart file names")
	f.StringVar(&o.title, "title", "Series", "series title used in captions and charts")
	f.StringVar(&o.unit, "unit", "", "value unit, e.g. °C")
	f.IntVar(&o.refStart, "ref-start", 1981, "first year of the reference period")
	f.IntVar(&o.refEnd, "ref-end", 2010, "last year of the reference period")
	f.IntVar(&o.minYear, "min-year", 0, "drop dated records before this year (0 keeps all)")
	f.IntVar(&o.currentYear, "current-year", 0, "year to evaluate (0 uses --offset)")
	f.IntVar(&o.offset, "offset", 0, "current row counted back from the last year")
	f.StringVar(&o.strategy, "strategy", domain.LastValid.String(), "latest-day strategy: last_valid or first_gap")
	f.StringVar(&o.outDir, "out", "", "write raw and anomaly charts to this directory")
	f.StringVarP(&o.output, "output", "o", "json", "result format: json or table")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log dropped records")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func run(o options, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	strategy, err := parseStrategy(o.strategy)
	if err != nil {
		return err
	}
	if o.output != "json" && o.output != "table" {
		return fmt.Errorf("unknown output %q", o.output)
	}
	format, err := detectFormat(o.file, o.format)
	if err != nil {
		return err
	}

	src, err := readSource(o.file, format)
	if err != nil {
		return err
	}

	gridOpts := domain.GridOptions{MinYear: o.minYear}
	if format == "json" {
		gridOpts.Exclusions = domain.DefaultReanalyzerExclusions()
	}
	grid, err := domain.BuildGrid(src, gridOpts, logger)
	if err != nil {
		return fmt.Errorf("build grid: %w", err)
	}

	req := domain.AnomalyRequest{
		ReferenceStart:   o.refStart,
		ReferenceEnd:     o.refEnd,
		CurrentRowOffset: o.offset,
		CurrentYear:      o.currentYear,
		Strategy:         strategy,
	}
	baseline, result, err := domain.Evaluate(grid, req)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	info := domain.SeriesInfo{ID: o.id, Title: o.title, Unit: o.unit}
	out := output{
		Source:  o.file,
		Format:  format,
		Years:   grid.Years(),
		Dropped: grid.Dropped,
		Result:  result,
		Caption: pipeline.Caption(info, pipeline.CaptionStyle{}, result),
	}

	if o.outDir != "" {
		renderer := chart.NewRenderer(o.outDir, logger)
		paths, err := renderer.Render(info, grid, baseline, result)
		if err != nil {
			return fmt.Errorf("render charts: %w", err)
		}
		out.Charts = paths
	}

	if o.output == "table" {
		_, err := io.WriteString(stdout, formatTable(out)+"\n")
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseStrategy(s string) (domain.LocateStrategy, error) {
	switch s {
	case domain.LastValid.String():
		return domain.LastValid, nil
	case domain.FirstGap.String():
		return domain.FirstGap, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", s)
	}
}

func detectFormat(path, explicit string) (string, error) {
	format := strings.ToLower(explicit)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch format {
	case "json", "csv":
		return format, nil
	default:
		return "", fmt.Errorf("cannot infer format of %s; pass --format json or csv", path)
	}
}

func readSource(path, format string) (domain.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Source{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	if format == "json" {
		return source.ParseReanalyzer(f)
	}
	return source.ParseNSIDC(f)
}

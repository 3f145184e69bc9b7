package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-anomaly/internal/domain"
	"github.com/couchcryptid/climate-anomaly/internal/observability"
)

// Source is one configured series run through the engine every cycle.
type Source struct {
	Info      domain.SeriesInfo
	Caption   CaptionStyle
	Retriever Retriever
	Grid      domain.GridOptions
	Request   domain.AnomalyRequest
}

// Reporter turns one Source into a Report: retrieve, align, evaluate,
// render, caption.
type Reporter struct {
	artifacts Artifacts
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewReporter creates a Reporter. Pass nil artifacts to skip chart and
// caption files.
func NewReporter(artifacts Artifacts, metrics *observability.Metrics, logger *slog.Logger) *Reporter {
	return &Reporter{
		artifacts: artifacts,
		metrics:   metrics,
		logger:    logger,
	}
}

// Build runs the engine for src. Engine outcomes such as
// domain.ErrNoCurrentData are returned wrapped and unchanged in kind.
func (r *Reporter) Build(ctx context.Context, src Source) (domain.Report, error) {
	id := src.Info.ID
	logger := r.logger.With("source", id)

	raw, err := src.Retriever.Retrieve(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("retrieve %s: %w", id, err)
	}

	grid, err := domain.BuildGrid(raw, src.Grid, logger)
	if err != nil {
		return domain.Report{}, fmt.Errorf("build %s grid: %w", id, err)
	}
	r.metrics.RecordsDropped.WithLabelValues(id).Add(float64(grid.Dropped))

	baseline, result, err := domain.Evaluate(grid, src.Request)
	if err != nil {
		return domain.Report{}, fmt.Errorf("evaluate %s: %w", id, err)
	}
	if result.InteriorGaps > 0 {
		logger.Warn("current year has interior gaps",
			"year", result.Year, "day_index", result.DayIndex, "gaps", result.InteriorGaps)
	}

	report := domain.NewReport(src.Info, result)
	report.Dropped = grid.Dropped
	report.Caption = Caption(src.Info, src.Caption, result)

	if r.artifacts != nil {
		report.Charts = r.writeArtifacts(logger, src.Info, grid, baseline, report)
	}

	logger.Info("anomaly computed",
		"year", result.Year,
		"day_index", result.DayIndex,
		"value", result.CurrentValue,
		"anomaly", result.Anomaly,
		"has_sigma", result.HasSigma(),
	)
	return report, nil
}

// writeArtifacts renders charts and the caption file. Failures are logged and
// counted; the report is still published without them.
func (r *Reporter) writeArtifacts(logger *slog.Logger, info domain.SeriesInfo, g *domain.SeriesGrid, b domain.BaselineStats, report domain.Report) []string {
	paths, err := r.artifacts.Render(info, g, b, report.Result)
	if err != nil {
		logger.Warn("chart render failed", "error", err)
		r.metrics.ChartsRenderError.Inc()
	}
	captionPath, err := r.artifacts.WriteCaption(info, report.Caption)
	if err != nil {
		logger.Warn("caption write failed", "error", err)
		return paths
	}
	return append(paths, captionPath)
}

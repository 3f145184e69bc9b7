package domain

import (
	"fmt"
	"time"
)

// AnomalyRequest selects the reference period and the current-year row.
type AnomalyRequest struct {
	ReferenceStart int
	ReferenceEnd   int
	// CurrentRowOffset counts back from the last year row (0 = last).
	CurrentRowOffset int
	// CurrentYear, when non-zero, names the current row explicitly and
	// overrides CurrentRowOffset.
	CurrentYear int
	Strategy    LocateStrategy
}

// AnomalyResult is the scalar outcome of one engine run.
type AnomalyResult struct {
	Year         int       `json:"year"`
	DayIndex     int       `json:"day_index"`
	Date         time.Time `json:"date"`
	CurrentValue float64   `json:"current_value"`
	BaselineMean float64   `json:"baseline_mean"`
	BaselineStd  float64   `json:"baseline_std"`
	Anomaly      float64   `json:"anomaly"`
	// Sigma is nil when the baseline std is zero or missing.
	Sigma          *float64 `json:"sigma"`
	InteriorGaps   int      `json:"interior_gaps,omitempty"`
	ReferenceStart int      `json:"reference_start"`
	ReferenceEnd   int      `json:"reference_end"`
}

// HasSigma reports whether a standardized anomaly is available.
func (r AnomalyResult) HasSigma() bool { return r.Sigma != nil }

// CalculateAnomaly compares cell (row, day) against the baseline.
// A missing baseline mean yields ErrDataUnavailable; a missing current value
// yields ErrNoCurrentData.
func CalculateAnomaly(b BaselineStats, g *SeriesGrid, row, day int) (AnomalyResult, error) {
	if day >= len(b.Mean) {
		return AnomalyResult{}, &ConfigError{Field: "day_index", Reason: fmt.Sprintf("day %d outside baseline width %d", day, len(b.Mean))}
	}
	value, err := g.Cell(row, day)
	if err != nil {
		return AnomalyResult{}, err
	}
	if IsMissing(value) {
		return AnomalyResult{}, fmt.Errorf("year %d day %d: %w", g.years[row], day, ErrNoCurrentData)
	}
	mean := b.Mean[day]
	if IsMissing(mean) {
		return AnomalyResult{}, fmt.Errorf("baseline mean for day %d: %w", day, ErrDataUnavailable)
	}

	year := g.years[row]
	res := AnomalyResult{
		Year:           year,
		DayIndex:       day,
		Date:           time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		CurrentValue:   value,
		BaselineMean:   mean,
		BaselineStd:    b.Std[day],
		Anomaly:        value - mean,
		ReferenceStart: b.StartYear,
		ReferenceEnd:   b.EndYear,
	}
	if std := b.Std[day]; !IsMissing(std) && std != 0 {
		sigma := res.Anomaly / std
		res.Sigma = &sigma
	}
	return res, nil
}

// Evaluate runs the full engine: baseline, current-row lookup, locator and
// anomaly. The baseline is returned so callers can plot it.
func Evaluate(g *SeriesGrid, req AnomalyRequest) (BaselineStats, AnomalyResult, error) {
	baseline, err := ComputeBaseline(g, req.ReferenceStart, req.ReferenceEnd)
	if err != nil {
		return BaselineStats{}, AnomalyResult{}, err
	}

	row, err := currentRow(g, req)
	if err != nil {
		return baseline, AnomalyResult{}, err
	}

	loc, err := LocateLatest(g.rows[row], req.Strategy)
	if err != nil {
		return baseline, AnomalyResult{}, fmt.Errorf("year %d: %w", g.years[row], err)
	}

	res, err := CalculateAnomaly(baseline, g, row, loc.DayIndex)
	if err != nil {
		return baseline, AnomalyResult{}, err
	}
	res.InteriorGaps = loc.InteriorGaps
	return baseline, res, nil
}

// ComputeAnomaly is Evaluate without the baseline.
func ComputeAnomaly(g *SeriesGrid, req AnomalyRequest) (AnomalyResult, error) {
	_, res, err := Evaluate(g, req)
	return res, err
}

func currentRow(g *SeriesGrid, req AnomalyRequest) (int, error) {
	if req.CurrentYear != 0 {
		row, ok := g.RowOf(req.CurrentYear)
		if !ok {
			return 0, &ConfigError{Field: "current_year", Year: req.CurrentYear, Reason: "year not present in grid"}
		}
		return row, nil
	}
	return g.RowFromEnd(req.CurrentRowOffset)
}

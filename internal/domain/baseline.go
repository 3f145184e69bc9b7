package domain

import "math"

// BaselineStats is the per-day climatology of a reference period.
// Mean and Std are NaN for days with no reference observations.
type BaselineStats struct {
	StartYear int
	EndYear   int
	Mean      []float64
	Std       []float64
	Count     []int
}

// ComputeBaseline computes the mean and population standard deviation of
// every day column over the years in [startYear, endYear], skipping missing
// cells. endYear must be on the grid's year axis; startYear need not be, so
// a period that begins before the record does uses the years available.
func ComputeBaseline(g *SeriesGrid, startYear, endYear int) (BaselineStats, error) {
	if startYear > endYear {
		return BaselineStats{}, &ConfigError{Field: "reference_start", Year: startYear, Reason: "after reference end"}
	}
	if _, ok := g.RowOf(endYear); !ok {
		return BaselineStats{}, &ConfigError{Field: "reference_end", Year: endYear, Reason: "year not present in grid"}
	}

	var rows []int
	for i, y := range g.years {
		if y >= startYear && y <= endYear {
			rows = append(rows, i)
		}
	}

	stats := BaselineStats{
		StartYear: startYear,
		EndYear:   endYear,
		Mean:      make([]float64, g.Days),
		Std:       make([]float64, g.Days),
		Count:     make([]int, g.Days),
	}
	for d := 0; d < g.Days; d++ {
		mean, std, n := columnStats(g.rows, rows, d)
		stats.Mean[d] = mean
		stats.Std[d] = std
		stats.Count[d] = n
	}
	return stats, nil
}

// columnStats returns mean, population std, and count of the non-missing
// cells of column d over the given rows. Two passes keep the variance
// numerically stable for values with a large common offset.
func columnStats(grid [][]float64, rows []int, d int) (float64, float64, int) {
	var sum float64
	n := 0
	for _, r := range rows {
		if v := grid[r][d]; !IsMissing(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return Missing(), Missing(), 0
	}
	mean := sum / float64(n)

	var sq float64
	for _, r := range rows {
		if v := grid[r][d]; !IsMissing(v) {
			diff := v - mean
			sq += diff * diff
		}
	}
	return mean, math.Sqrt(sq / float64(n)), n
}

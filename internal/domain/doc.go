// Package domain models daily climate series and the anomaly engine that
// turns them into a baseline, a current anomaly, and a sigma score.
//
// # Data Sources
//
// Two upstream shapes are supported:
//
//	Index-addressed (Climate Reanalyzer JSON, e.g. oisst2.1_natlan_sst_day.json):
//	  [{"name": "1982", "data": [20.1, 20.0, ..., null]}, ...]
//	  Each entry is one row already aligned by day-of-year. Some entries are
//	  not years at all but precomputed statistics ("1982-2011 mean",
//	  "plus 2σ", "minus 2σ", "1991-2020"). These are classified as
//	  annotations before any grid logic runs.
//
//	Date-addressed (NSIDC G02135 daily extent CSV):
//	  Year, Month, Day, Extent, Missing, Source Data
//	  Each row carries an explicit calendar date. The day index is the
//	  whole-day offset from January 1st of that year, so December 31st is
//	  index 365 in a leap year and 364 otherwise.
//
// # Missing Values
//
// Missing cells are NaN in every float slice the package returns. They are
// never imputed: statistics skip them, and a day whose reference cells are
// all missing has a NaN mean and NaN standard deviation.
//
// # Row Order
//
// Grid rows are the distinct years present, sorted ascending. The current
// year is found by position (the last row, or a caller-supplied offset from
// the end), not by comparing against today's date.
//
// # Latest Observation
//
// The current year is only partially filled. [LocateLatest] defaults to the
// last valid cell in the row ([LastValid]). The legacy rule, the cell before
// the first gap ([FirstGap]), is kept for comparison; the two diverge when an
// interior day is missing, e.g. [5.1, NaN, 5.4, NaN] gives 2 and 0.
//
// # Standard Deviation
//
// Baseline standard deviation uses the population definition (divide by N),
// treating the reference period as a fixed historical population.
package domain

package domain

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// SeriesGrid is the dense year × day-of-year matrix that all statistics are
// computed from. Rows are the distinct years of the source in ascending
// order; every row has Days cells; unobserved cells are NaN.
type SeriesGrid struct {
	Kind SourceKind
	Days int

	// Annotations holds source-supplied statistic rows (e.g. the publisher's
	// own climatological mean), keyed by label. They are never part of the
	// year axis.
	Annotations map[string]Annotation

	// Dropped counts malformed records rejected while building the grid.
	Dropped int

	years []int
	index map[int]int
	rows  [][]float64
}

// BuildGrid normalizes src and aligns it into a SeriesGrid. A duplicate
// record for an already filled (year, day) cell is an IntegrityError.
func BuildGrid(src Source, opts GridOptions, logger *slog.Logger) (*SeriesGrid, error) {
	if src.Kind != SourceIndexed && src.Kind != SourceDated {
		return nil, &ConfigError{Field: "source_kind", Reason: "unsupported source kind " + src.Kind.String()}
	}

	n := NewNormalizer(opts, logger)

	var records []NormalizedRecord
	seen := make(map[int]struct{})
	maxDay := -1
	for rec := range n.Records(src) {
		records = append(records, rec)
		seen[rec.Year] = struct{}{}
		maxDay = max(maxDay, rec.DayIndex)
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)

	days := maxDay + 1
	if src.Kind == SourceIndexed {
		days = n.IndexedWidth()
	}

	g := newGrid(src.Kind, years, days)
	g.Annotations = n.Annotations()
	g.Dropped = n.Dropped()

	written := make([][]bool, len(years))
	for i := range written {
		written[i] = make([]bool, days)
	}
	for _, rec := range records {
		row := g.index[rec.Year]
		if written[row][rec.DayIndex] {
			return nil, &IntegrityError{Year: rec.Year, DayIndex: rec.DayIndex, Reason: "duplicate record for cell"}
		}
		written[row][rec.DayIndex] = true
		g.rows[row][rec.DayIndex] = rec.Value
	}

	if g.Dropped > 0 {
		logger.Warn("dropped malformed records", "kind", src.Kind.String(), "dropped", g.Dropped)
	}
	logger.Debug("grid built", "kind", src.Kind.String(), "years", len(years), "days", days)

	return g, nil
}

func newGrid(kind SourceKind, years []int, days int) *SeriesGrid {
	g := &SeriesGrid{
		Kind:  kind,
		Days:  days,
		years: years,
		index: make(map[int]int, len(years)),
		rows:  make([][]float64, len(years)),
	}
	for i, y := range years {
		g.index[y] = i
		row := make([]float64, days)
		for d := range row {
			row[d] = Missing()
		}
		g.rows[i] = row
	}
	return g
}

// Len returns the number of year rows.
func (g *SeriesGrid) Len() int { return len(g.years) }

// Years returns the year axis in ascending order.
func (g *SeriesGrid) Years() []int { return slices.Clone(g.years) }

// CheckRow returns a ConfigError when i is not a row of the grid.
func (g *SeriesGrid) CheckRow(i int) error {
	if i < 0 || i >= len(g.years) {
		return &ConfigError{Field: "row", Reason: fmt.Sprintf("row %d outside %d year rows", i, len(g.years))}
	}
	return nil
}

// YearAt returns the year stored in row i. It panics when CheckRow(i) fails.
func (g *SeriesGrid) YearAt(i int) int { return g.years[i] }

// RowOf returns the row index holding year.
func (g *SeriesGrid) RowOf(year int) (int, bool) {
	i, ok := g.index[year]
	return i, ok
}

// Row returns a copy of row i. It panics when CheckRow(i) fails.
func (g *SeriesGrid) Row(i int) []float64 { return slices.Clone(g.rows[i]) }

// Value returns the cell at (row, day), panicking outside the grid.
func (g *SeriesGrid) Value(row, day int) float64 { return g.rows[row][day] }

// Cell is the checked form of Value.
func (g *SeriesGrid) Cell(row, day int) (float64, error) {
	if err := g.CheckRow(row); err != nil {
		return 0, err
	}
	if day < 0 || day >= g.Days {
		return 0, &ConfigError{Field: "day_index", Reason: fmt.Sprintf("day %d outside grid width %d", day, g.Days)}
	}
	return g.rows[row][day], nil
}

// AnnotationsOf returns the annotations of the given kinds ordered by label.
func (g *SeriesGrid) AnnotationsOf(kinds ...AnnotationKind) []Annotation {
	var out []Annotation
	for _, a := range g.Annotations {
		if slices.Contains(kinds, a.Kind) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b Annotation) int { return strings.Compare(a.Label, b.Label) })
	return out
}

// RowFromEnd resolves a position counted back from the last year row.
func (g *SeriesGrid) RowFromEnd(offset int) (int, error) {
	if offset < 0 || offset >= len(g.years) {
		return 0, &ConfigError{Field: "current_row_offset", Reason: fmt.Sprintf("offset %d outside %d year rows", offset, len(g.years))}
	}
	return len(g.years) - 1 - offset, nil
}

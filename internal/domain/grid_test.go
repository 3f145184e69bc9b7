package domain

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// datedSource builds a dated source with one observation per (year, day index).
func datedSource(values map[int]map[int]float64) Source {
	var obs []RawObservation
	for year, days := range values {
		for day, v := range days {
			obs = append(obs, RawObservation{
				Year:      year,
				DayOfYear: day + 1,
				Value:     strconv.FormatFloat(v, 'f', -1, 64),
			})
		}
	}
	return Source{Kind: SourceDated, Observations: obs}
}

func TestBuildGrid_DatedRowsShareLength(t *testing.T) {
	src := Source{Kind: SourceDated, Observations: []RawObservation{
		{Year: 2023, Month: 1, Day: 1, Value: "1"},
		{Year: 2023, Month: 12, Day: 31, Value: "2"},
		{Year: 2024, Month: 12, Day: 31, Value: "3"},
		{Year: 2025, Month: 3, Day: 1, Value: "4"},
	}}

	g, err := BuildGrid(src, GridOptions{}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []int{2023, 2024, 2025}, g.Years())
	assert.Equal(t, 366, g.Days)
	for i := 0; i < g.Len(); i++ {
		assert.Len(t, g.Row(i), 366)
	}

	assert.Equal(t, 2.0, g.Value(0, 364))
	assert.True(t, IsMissing(g.Value(0, 365)), "non-leap day 366 stays missing")
	assert.Equal(t, 3.0, g.Value(1, 365))
	assert.Equal(t, 4.0, g.Value(2, 59))
	assert.True(t, IsMissing(g.Value(2, 60)), "incomplete current year keeps trailing cells missing")
}

func TestBuildGrid_YearAxisFollowsSourceNotCalendar(t *testing.T) {
	src := datedSource(map[int]map[int]float64{
		1981: {0: 1},
		1985: {0: 2},
		1983: {0: 3},
	})

	g, err := BuildGrid(src, GridOptions{}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []int{1981, 1983, 1985}, g.Years())
	row, ok := g.RowOf(1985)
	require.True(t, ok)
	assert.Equal(t, 2, row)
	_, ok = g.RowOf(1982)
	assert.False(t, ok)
}

func TestBuildGrid_IndexedExcludesAnnotations(t *testing.T) {
	src := Source{Kind: SourceIndexed, Series: []IndexedSeries{
		{Name: "2022", Data: []*float64{f(20.0), f(20.5), f(21.0)}},
		{Name: "2023", Data: []*float64{f(21.0), nil, nil}},
		{Name: "1982-2011 mean", Data: []*float64{f(19.0), f(19.5), f(20.0), f(20.5)}},
		{Name: "plus 2σ", Data: []*float64{f(20.0), f(20.5), f(21.0)}},
		{Name: "minus 2σ", Data: []*float64{f(18.0), f(18.5), f(19.0)}},
	}}

	g, err := BuildGrid(src, GridOptions{Exclusions: DefaultReanalyzerExclusions()}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []int{2022, 2023}, g.Years())
	assert.Equal(t, 3, g.Days)
	assert.Len(t, g.Annotations, 3)
	assert.Equal(t, SourceIndexed, g.Kind)
	assert.True(t, IsMissing(g.Value(1, 1)))
}

func TestBuildGrid_AnnotationsSharingKindAreKept(t *testing.T) {
	src := Source{Kind: SourceIndexed, Series: []IndexedSeries{
		{Name: "2023", Data: []*float64{f(21.0), f(21.2)}},
		{Name: "1982-2010", Data: []*float64{f(20.0), f(20.1)}},
		{Name: "1991-2020", Data: []*float64{f(20.3), f(20.4)}},
		{Name: "plus 2σ", Data: []*float64{f(21.0), f(21.1)}},
	}}

	g, err := BuildGrid(src, GridOptions{Exclusions: DefaultReanalyzerExclusions()}, discardLogger())
	require.NoError(t, err)

	require.Len(t, g.Annotations, 3)
	assert.Equal(t, []float64{20.0, 20.1}, g.Annotations["1982-2010"].Values)
	assert.Equal(t, []float64{20.3, 20.4}, g.Annotations["1991-2020"].Values)

	climatology := g.AnnotationsOf(AnnotationClimatology)
	require.Len(t, climatology, 2)
	assert.Equal(t, "1982-2010", climatology[0].Label)
	assert.Equal(t, "1991-2020", climatology[1].Label)
	assert.Empty(t, g.AnnotationsOf(AnnotationPreliminary))
}

func TestBuildGrid_UnknownLabelDropped(t *testing.T) {
	src := Source{Kind: SourceIndexed, Series: []IndexedSeries{
		{Name: "2022", Data: []*float64{f(1)}},
		{Name: "something else", Data: []*float64{f(2)}},
	}}

	g, err := BuildGrid(src, GridOptions{}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []int{2022}, g.Years())
	assert.Equal(t, 1, g.Dropped)
}

func TestBuildGrid_DuplicateCellIsIntegrityError(t *testing.T) {
	src := Source{Kind: SourceDated, Observations: []RawObservation{
		{Year: 2020, Month: 1, Day: 5, Value: "1"},
		{Year: 2020, DayOfYear: 5, Value: "2"},
	}}

	_, err := BuildGrid(src, GridOptions{}, discardLogger())

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, 2020, integrity.Year)
	assert.Equal(t, 4, integrity.DayIndex)
}

func TestBuildGrid_DuplicateYearRowIsIntegrityError(t *testing.T) {
	src := Source{Kind: SourceIndexed, Series: []IndexedSeries{
		{Name: "2020", Data: []*float64{f(1)}},
		{Name: "2020", Data: []*float64{f(1)}},
	}}

	_, err := BuildGrid(src, GridOptions{}, discardLogger())

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, 2020, integrity.Year)
}

func TestBuildGrid_UnsupportedKind(t *testing.T) {
	_, err := BuildGrid(Source{}, GridOptions{}, discardLogger())

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "source_kind", cfgErr.Field)
}

func TestBuildGrid_Idempotent(t *testing.T) {
	src := Source{Kind: SourceDated, Observations: []RawObservation{
		{Year: 2021, Month: 6, Day: 1, Value: "0.1"},
		{Year: 2022, Month: 6, Day: 1, Value: "0.2"},
		{Year: 2022, Month: 6, Day: 2, Value: "NaN"},
		{Year: 2023, Month: 1, Day: 1, Value: "1e-3"},
	}}

	g1, err := BuildGrid(src, GridOptions{}, discardLogger())
	require.NoError(t, err)
	g2, err := BuildGrid(src, GridOptions{}, discardLogger())
	require.NoError(t, err)

	require.Equal(t, g1.Years(), g2.Years())
	require.Equal(t, g1.Days, g2.Days)
	for i := 0; i < g1.Len(); i++ {
		r1, r2 := g1.Row(i), g2.Row(i)
		for d := range r1 {
			assert.Equal(t, math.Float64bits(r1[d]), math.Float64bits(r2[d]), "row %d day %d", i, d)
		}
	}
}

func TestSeriesGrid_RowCopyIsDetached(t *testing.T) {
	g, err := BuildGrid(datedSource(map[int]map[int]float64{2020: {0: 1}}), GridOptions{}, discardLogger())
	require.NoError(t, err)

	row := g.Row(0)
	row[0] = 99

	assert.Equal(t, 1.0, g.Value(0, 0))
}

func TestSeriesGrid_RowFromEnd(t *testing.T) {
	g, err := BuildGrid(datedSource(map[int]map[int]float64{
		2020: {0: 1}, 2021: {0: 1}, 2022: {0: 1},
	}), GridOptions{}, discardLogger())
	require.NoError(t, err)

	row, err := g.RowFromEnd(0)
	require.NoError(t, err)
	assert.Equal(t, 2022, g.YearAt(row))

	row, err = g.RowFromEnd(2)
	require.NoError(t, err)
	assert.Equal(t, 2020, g.YearAt(row))

	_, err = g.RowFromEnd(3)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSeriesGrid_CellChecksBounds(t *testing.T) {
	g, err := BuildGrid(datedSource(map[int]map[int]float64{
		2020: {0: 1, 1: 2}, 2021: {0: 3},
	}), GridOptions{}, discardLogger())
	require.NoError(t, err)

	v, err := g.Cell(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	v, err = g.Cell(1, 1)
	require.NoError(t, err)
	assert.True(t, IsMissing(v))

	for _, rc := range [][2]int{{-1, 0}, {2, 0}, {0, -1}, {0, 2}} {
		_, err := g.Cell(rc[0], rc[1])
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr, "row %d day %d", rc[0], rc[1])
	}

	assert.NoError(t, g.CheckRow(1))
	assert.Error(t, g.CheckRow(2))
}

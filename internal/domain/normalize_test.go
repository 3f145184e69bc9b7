package domain

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }

func TestDayIndexOf(t *testing.T) {
	tests := []struct {
		name     string
		obs      RawObservation
		expected int
		wantErr  bool
	}{
		{"jan 1", RawObservation{Year: 2023, Month: 1, Day: 1}, 0, false},
		{"dec 31 leap year", RawObservation{Year: 2024, Month: 12, Day: 31}, 365, false},
		{"dec 31 non-leap year", RawObservation{Year: 2023, Month: 12, Day: 31}, 364, false},
		{"mar 1 leap year", RawObservation{Year: 2024, Month: 3, Day: 1}, 60, false},
		{"mar 1 non-leap year", RawObservation{Year: 2023, Month: 3, Day: 1}, 59, false},
		{"feb 29 leap year", RawObservation{Year: 2000, Month: 2, Day: 29}, 59, false},
		{"feb 29 century non-leap", RawObservation{Year: 1900, Month: 2, Day: 29}, 0, true},
		{"feb 30", RawObservation{Year: 2024, Month: 2, Day: 30}, 0, true},
		{"apr 31", RawObservation{Year: 2024, Month: 4, Day: 31}, 0, true},
		{"month 0", RawObservation{Year: 2024, Month: 0, Day: 1}, 0, true},
		{"month 13", RawObservation{Year: 2024, Month: 13, Day: 1}, 0, true},
		{"day 0", RawObservation{Year: 2024, Month: 1, Day: 0}, 0, true},
		{"day 32", RawObservation{Year: 2024, Month: 1, Day: 32}, 0, true},
		{"day of year 366 leap", RawObservation{Year: 2024, DayOfYear: 366}, 365, false},
		{"day of year 366 non-leap", RawObservation{Year: 2023, DayOfYear: 366}, 0, true},
		{"zero year", RawObservation{Year: 0, Month: 1, Day: 1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dayIndexOf(tt.obs)
			if tt.wantErr {
				var malformed *MalformedRecordError
				require.ErrorAs(t, err, &malformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizer_Classify(t *testing.T) {
	n := NewNormalizer(GridOptions{Exclusions: DefaultReanalyzerExclusions()}, discardLogger())

	tests := []struct {
		name    string
		label   string
		want    RowClass
		wantErr bool
	}{
		{"year", "1982", YearRow(1982), false},
		{"year with spaces", " 2024 ", YearRow(2024), false},
		{"mean band", "1982-2011 mean", AnnotationRow(AnnotationMean), false},
		{"plus sigma", "plus 2σ", AnnotationRow(AnnotationPlusTwoSigma), false},
		{"minus sigma", "minus 2σ", AnnotationRow(AnnotationMinusTwoSig), false},
		{"climatology", "1991-2020", AnnotationRow(AnnotationClimatology), false},
		{"preliminary", "Preliminary", AnnotationRow(AnnotationPreliminary), false},
		{"unknown range not guessed", "1950-1980", RowClass{}, true},
		{"short number", "982", RowClass{}, true},
		{"empty", "", RowClass{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Classify(tt.label)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_DatedDropsMalformedAndContinues(t *testing.T) {
	n := NewNormalizer(GridOptions{}, discardLogger())
	src := Source{Kind: SourceDated, Observations: []RawObservation{
		{Year: 2020, Month: 1, Day: 1, Value: "1.5"},
		{Year: 2020, Month: 2, Day: 30, Value: "2.0"}, // invalid date
		{Year: 2020, Month: 1, Day: 2, Value: "abc"},  // unparseable
		{Year: 2020, Month: 1, Day: 3, Value: "-9999"},
		{Year: 2020, Month: 1, Day: 4, Value: " 3.25 "},
	}}

	var got []NormalizedRecord
	for rec := range n.Records(src) {
		got = append(got, rec)
	}

	require.Len(t, got, 3)
	assert.Equal(t, 2, n.Dropped())
	assert.Equal(t, NormalizedRecord{Year: 2020, DayIndex: 0, Value: 1.5}, got[0])
	assert.Equal(t, 2, got[1].DayIndex)
	assert.True(t, math.IsNaN(got[1].Value), "missing marker should become NaN, not be dropped")
	assert.Equal(t, 3.25, got[2].Value)
}

func TestNormalizer_MinYear(t *testing.T) {
	n := NewNormalizer(GridOptions{MinYear: 1981}, discardLogger())
	src := Source{Kind: SourceDated, Observations: []RawObservation{
		{Year: 1978, Month: 11, Day: 1, Value: "17.6"},
		{Year: 1981, Month: 1, Day: 1, Value: "4.1"},
	}}

	var got []NormalizedRecord
	for rec := range n.Records(src) {
		got = append(got, rec)
	}

	require.Len(t, got, 1)
	assert.Equal(t, 1981, got[0].Year)
	assert.Zero(t, n.Dropped(), "records before MinYear are skipped, not malformed")
}

func TestNormalizer_IndexedCapturesAnnotations(t *testing.T) {
	n := NewNormalizer(GridOptions{Exclusions: DefaultReanalyzerExclusions()}, discardLogger())
	src := Source{Kind: SourceIndexed, Series: []IndexedSeries{
		{Name: "2023", Data: []*float64{f(20.0), f(20.1), nil}},
		{Name: "1982-2011 mean", Data: []*float64{f(19.0), f(19.1), f(19.2), f(19.3)}},
		{Name: "bogus", Data: []*float64{f(1)}},
	}}

	count := 0
	for range n.Records(src) {
		count++
	}

	assert.Equal(t, 3, count)
	assert.Equal(t, 3, n.IndexedWidth(), "annotation rows must not widen the grid")
	assert.Equal(t, 1, n.Dropped())
	mean := n.Annotations()["1982-2011 mean"]
	assert.Equal(t, AnnotationMean, mean.Kind)
	assert.Equal(t, []float64{19.0, 19.1, 19.2, 19.3}, mean.Values)
}

func TestNormalizer_StopsWhenConsumerStops(t *testing.T) {
	n := NewNormalizer(GridOptions{}, discardLogger())
	src := Source{Kind: SourceDated, Observations: []RawObservation{
		{Year: 2020, Month: 1, Day: 1, Value: "1"},
		{Year: 2020, Month: 1, Day: 2, Value: "2"},
		{Year: 2020, Month: 1, Day: 3, Value: "3"},
	}}

	seen := 0
	for range n.Records(src) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestDaysInYear(t *testing.T) {
	assert.Equal(t, 366, DaysInYear(2024))
	assert.Equal(t, 365, DaysInYear(2023))
	assert.Equal(t, 365, DaysInYear(1900))
	assert.Equal(t, 366, DaysInYear(2000))
}

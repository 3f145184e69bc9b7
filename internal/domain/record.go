package domain

import "math"

// SourceKind selects how a Source addresses its day axis.
type SourceKind int

const (
	// SourceIndexed rows are arrays already positioned by day-of-year.
	SourceIndexed SourceKind = iota + 1
	// SourceDated records carry an explicit calendar date each.
	SourceDated
)

func (k SourceKind) String() string {
	switch k {
	case SourceIndexed:
		return "indexed"
	case SourceDated:
		return "dated"
	default:
		return "unknown"
	}
}

// IndexedSeries is one named row of an index-addressed source.
// A nil element is a missing day.
type IndexedSeries struct {
	Name string     `json:"name"`
	Data []*float64 `json:"data"`
}

// RawObservation is one date-addressed data point as delivered by a retriever.
// DayOfYear (1-based) takes precedence over Month/Day when non-zero.
// Value is kept as text so missing markers and garbage can be told apart.
type RawObservation struct {
	Year      int    `json:"year"`
	Month     int    `json:"month,omitempty"`
	Day       int    `json:"day,omitempty"`
	DayOfYear int    `json:"day_of_year,omitempty"`
	Value     string `json:"value"`
}

// Source is the raw payload handed to BuildGrid.
type Source struct {
	Kind         SourceKind
	Series       []IndexedSeries
	Observations []RawObservation
}

// NormalizedRecord is the uniform intermediate form between the Normalizer
// and the Aligner. DayIndex is zero-based from January 1st of Year.
type NormalizedRecord struct {
	Year     int
	DayIndex int
	Value    float64 // NaN when missing
}

// AnnotationKind names a precomputed statistic row mixed into a source.
type AnnotationKind string

const (
	AnnotationMean         AnnotationKind = "mean"
	AnnotationPlusTwoSigma AnnotationKind = "plus_2sigma"
	AnnotationMinusTwoSig  AnnotationKind = "minus_2sigma"
	AnnotationPreliminary  AnnotationKind = "preliminary"
	AnnotationClimatology  AnnotationKind = "climatology"
)

// Annotation is one source-supplied statistic row. Several rows may share a
// Kind (two climatology periods), so they are told apart by Label.
type Annotation struct {
	Label  string
	Kind   AnnotationKind
	Values []float64
}

// RowClass is the tagged classification of an index-addressed row: exactly
// one of Year or Annotation is meaningful, selected by IsYear.
type RowClass struct {
	IsYear     bool
	Year       int
	Annotation AnnotationKind
}

// YearRow builds a RowClass for a genuine year.
func YearRow(year int) RowClass { return RowClass{IsYear: true, Year: year} }

// AnnotationRow builds a RowClass for a statistical annotation.
func AnnotationRow(kind AnnotationKind) RowClass { return RowClass{Annotation: kind} }

// DefaultReanalyzerExclusions maps the non-year labels published in Climate
// Reanalyzer daily SST files to their annotation kind.
func DefaultReanalyzerExclusions() map[string]AnnotationKind {
	return map[string]AnnotationKind{
		"1982-2011 mean": AnnotationMean,
		"1982-2010":      AnnotationClimatology,
		"1991-2020":      AnnotationClimatology,
		"1982-2010 mean": AnnotationMean,
		"1991-2020 mean": AnnotationMean,
		"plus 2σ":        AnnotationPlusTwoSigma,
		"minus 2σ":       AnnotationMinusTwoSig,
		"Preliminary":    AnnotationPreliminary,
	}
}

// Missing is the sentinel stored in empty grid cells.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

package domain

import (
	"errors"
	"iter"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultMissingMarkers are the value strings treated as "no observation".
var DefaultMissingMarkers = []string{"", "NaN", "nan", "null", "None", "-9999", "-999"}

// GridOptions configures normalization and alignment of one source.
type GridOptions struct {
	// Exclusions maps index-addressed row labels to annotation kinds.
	// Rows listed here never become years.
	Exclusions map[string]AnnotationKind
	// MissingMarkers overrides DefaultMissingMarkers when non-nil.
	MissingMarkers []string
	// MinYear drops records from earlier years when non-zero.
	MinYear int
}

// Normalizer converts a Source into NormalizedRecords. It absorbs malformed
// records, counting and logging each one. A Normalizer serves one pass.
type Normalizer struct {
	exclusions map[string]AnnotationKind
	markers    map[string]struct{}
	minYear    int
	logger     *slog.Logger

	dropped     int
	width       int
	annotations map[string]Annotation
}

// NewNormalizer creates a Normalizer for the given options.
func NewNormalizer(opts GridOptions, logger *slog.Logger) *Normalizer {
	markers := opts.MissingMarkers
	if markers == nil {
		markers = DefaultMissingMarkers
	}
	set := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		set[strings.TrimSpace(m)] = struct{}{}
	}
	return &Normalizer{
		exclusions:  opts.Exclusions,
		markers:     set,
		minYear:     opts.MinYear,
		logger:      logger,
		annotations: make(map[string]Annotation),
	}
}

// Dropped returns how many records were rejected as malformed so far.
func (n *Normalizer) Dropped() int { return n.dropped }

// IndexedWidth returns the longest year row seen in an index-addressed source.
func (n *Normalizer) IndexedWidth() int { return n.width }

// Annotations returns the annotation rows captured during the pass, keyed by label.
func (n *Normalizer) Annotations() map[string]Annotation { return n.annotations }

// Classify decides whether an index-addressed label is a year or an
// annotation. Labels in the exclusion table are annotations; a label that is
// exactly four digits is a year; anything else is malformed.
func (n *Normalizer) Classify(label string) (RowClass, error) {
	label = strings.TrimSpace(label)
	if kind, ok := n.exclusions[label]; ok {
		return AnnotationRow(kind), nil
	}
	if len(label) == 4 {
		if year, err := strconv.Atoi(label); err == nil && year > 0 {
			return YearRow(year), nil
		}
	}
	return RowClass{}, &MalformedRecordError{Label: label, Reason: "label is neither a year nor a known annotation"}
}

// Records yields the normalized form of src in a single forward pass.
func (n *Normalizer) Records(src Source) iter.Seq[NormalizedRecord] {
	return func(yield func(NormalizedRecord) bool) {
		switch src.Kind {
		case SourceIndexed:
			n.indexed(src.Series, yield)
		case SourceDated:
			n.dated(src.Observations, yield)
		}
	}
}

func (n *Normalizer) indexed(series []IndexedSeries, yield func(NormalizedRecord) bool) {
	for _, s := range series {
		class, err := n.Classify(s.Name)
		if err != nil {
			n.drop(err)
			continue
		}
		if !class.IsYear {
			label := strings.TrimSpace(s.Name)
			n.annotations[label] = Annotation{Label: label, Kind: class.Annotation, Values: toFloats(s.Data)}
			continue
		}
		if n.minYear != 0 && class.Year < n.minYear {
			continue
		}
		n.width = max(n.width, len(s.Data))
		for i, v := range s.Data {
			value := Missing()
			if v != nil && !math.IsInf(*v, 0) {
				value = *v
			}
			if !yield(NormalizedRecord{Year: class.Year, DayIndex: i, Value: value}) {
				return
			}
		}
	}
}

func (n *Normalizer) dated(obs []RawObservation, yield func(NormalizedRecord) bool) {
	for _, o := range obs {
		// Year 0 falls through so the record is counted as malformed.
		if n.minYear != 0 && o.Year > 0 && o.Year < n.minYear {
			continue
		}
		rec, err := n.normalizeObservation(o)
		if err != nil {
			n.drop(err)
			continue
		}
		if !yield(rec) {
			return
		}
	}
}

func (n *Normalizer) normalizeObservation(o RawObservation) (NormalizedRecord, error) {
	dayIndex, err := dayIndexOf(o)
	if err != nil {
		return NormalizedRecord{}, err
	}
	value, err := n.parseValue(o.Value)
	if err != nil {
		return NormalizedRecord{}, &MalformedRecordError{Year: o.Year, Reason: err.Error()}
	}
	return NormalizedRecord{Year: o.Year, DayIndex: dayIndex, Value: value}, nil
}

// dayIndexOf returns the zero-based offset of o from January 1st of o.Year.
func dayIndexOf(o RawObservation) (int, error) {
	if o.Year <= 0 {
		return 0, &MalformedRecordError{Year: o.Year, Reason: "year must be positive"}
	}
	if o.DayOfYear != 0 {
		if o.DayOfYear < 1 || o.DayOfYear > DaysInYear(o.Year) {
			return 0, &MalformedRecordError{Year: o.Year, Reason: "day of year " + strconv.Itoa(o.DayOfYear) + " out of range"}
		}
		return o.DayOfYear - 1, nil
	}
	if o.Month < 1 || o.Month > 12 {
		return 0, &MalformedRecordError{Year: o.Year, Reason: "month " + strconv.Itoa(o.Month) + " out of range"}
	}
	if o.Day < 1 || o.Day > 31 {
		return 0, &MalformedRecordError{Year: o.Year, Reason: "day " + strconv.Itoa(o.Day) + " out of range"}
	}
	t := time.Date(o.Year, time.Month(o.Month), o.Day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes Feb 30 into March; reject instead.
	if t.Month() != time.Month(o.Month) || t.Day() != o.Day {
		return 0, &MalformedRecordError{Year: o.Year, Reason: "invalid date " + strconv.Itoa(o.Month) + "/" + strconv.Itoa(o.Day)}
	}
	return t.YearDay() - 1, nil
}

func (n *Normalizer) parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if _, ok := n.markers[s]; ok {
		return Missing(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("unparseable value " + strconv.Quote(s))
	}
	if math.IsInf(v, 0) {
		return 0, errors.New("infinite value")
	}
	return v, nil
}

func (n *Normalizer) drop(err error) {
	n.dropped++
	n.logger.Debug("dropping malformed record", "error", err)
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

func toFloats(data []*float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if v == nil {
			out[i] = Missing()
			continue
		}
		out[i] = *v
	}
	return out
}

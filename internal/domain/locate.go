package domain

// LocateStrategy picks how "today" is found in a partially filled row.
type LocateStrategy int

const (
	// LastValid returns the last non-missing cell anywhere in the row.
	LastValid LocateStrategy = iota
	// FirstGap returns the cell just before the first missing one. Interior
	// gaps make it stop early.
	FirstGap
)

func (s LocateStrategy) String() string {
	if s == FirstGap {
		return "first_gap"
	}
	return "last_valid"
}

// Location is the result of LocateLatest.
type Location struct {
	DayIndex int
	// InteriorGaps counts missing cells before DayIndex. When non-zero the
	// two strategies disagree for this row.
	InteriorGaps int
}

// LocateLatest finds the most recent observation in row.
// It returns ErrNoCurrentData when no usable cell exists.
func LocateLatest(row []float64, strategy LocateStrategy) (Location, error) {
	idx := -1
	switch strategy {
	case FirstGap:
		for i, v := range row {
			if IsMissing(v) {
				break
			}
			idx = i
		}
	default:
		for i := len(row) - 1; i >= 0; i-- {
			if !IsMissing(row[i]) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return Location{}, ErrNoCurrentData
	}

	gaps := 0
	for _, v := range row[:idx] {
		if IsMissing(v) {
			gaps++
		}
	}
	return Location{DayIndex: idx, InteriorGaps: gaps}, nil
}

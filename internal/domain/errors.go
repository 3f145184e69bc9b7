package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means a statistic could not be computed because the
	// cells it depends on are missing. It is an expected outcome, not a bug.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrNoCurrentData means the current year's row holds no valid value yet.
	ErrNoCurrentData = errors.New("no current data")
)

// MalformedRecordError describes a single raw record that was dropped.
type MalformedRecordError struct {
	Year   int
	Label  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("malformed record %q: %s", e.Label, e.Reason)
	}
	return fmt.Sprintf("malformed record (year %d): %s", e.Year, e.Reason)
}

// IntegrityError aborts a run: the input contradicts itself.
type IntegrityError struct {
	Year     int
	DayIndex int
	Reason   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error at year %d day %d: %s", e.Year, e.DayIndex, e.Reason)
}

// ConfigError aborts a run: the caller asked for something the grid cannot
// satisfy, such as a reference period outside the year axis.
type ConfigError struct {
	Field  string
	Year   int
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Year != 0 {
		return fmt.Sprintf("config error: %s=%d: %s", e.Field, e.Year, e.Reason)
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SeriesInfo describes a configured source for presentation.
type SeriesInfo struct {
	ID     string `json:"id"`     // e.g. "na-sst"
	Title  string `json:"title"`  // e.g. "North Atlantic Sea Surface Temperature"
	Unit   string `json:"unit"`   // e.g. "°C"
	Region string `json:"region"` // e.g. "North Atlantic"
}

// Report is one day's published outcome for a source.
type Report struct {
	ID          string        `json:"id"`
	Series      SeriesInfo    `json:"series"`
	Result      AnomalyResult `json:"result"`
	Caption     string        `json:"caption,omitempty"`
	Charts      []string      `json:"charts,omitempty"`
	Dropped     int           `json:"dropped_records"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// NewReport stamps a report for result. The ID is deterministic in the
// series and observation date, so republishing the same day is idempotent.
func NewReport(info SeriesInfo, result AnomalyResult) Report {
	return Report{
		ID:          reportID(info.ID, result.Date),
		Series:      info,
		Result:      result,
		GeneratedAt: clock.Now().UTC(),
	}
}

func reportID(seriesID string, date time.Time) string {
	input := fmt.Sprintf("%s|%s", seriesID, date.Format(time.DateOnly))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if seriesID == "" {
		return short
	}
	return seriesID + "-" + short
}

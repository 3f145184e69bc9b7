package pipeline

import (
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/climate-anomaly/internal/domain"
)

// Store keeps the latest report per source for the HTTP API.
type Store struct {
	mu      sync.RWMutex
	reports map[string]domain.Report
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{reports: make(map[string]domain.Report)}
}

// Put replaces the latest report for report.Series.ID.
func (s *Store) Put(report domain.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.Series.ID] = report
}

// Get returns the latest report for a source.
func (s *Store) Get(seriesID string) (domain.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[seriesID]
	return r, ok
}

// Latest returns every stored report ordered by series ID.
func (s *Store) Latest() []domain.Report {
	s.mu.RLock()
	out := make([]domain.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Report) int {
		return strings.Compare(a.Series.ID, b.Series.ID)
	})
	return out
}

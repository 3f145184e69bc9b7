package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/climate-anomaly/internal/domain"
)

// ReanalyzerClient retrieves Climate Reanalyzer daily SST JSON, e.g.
// oisst2.1_natlan_sst_day.json. The payload is a list of named rows already
// aligned by day of year; some rows are statistics rather than years.
type ReanalyzerClient struct {
	fetcher Fetcher
	url     string
}

// NewReanalyzerClient creates a client for the document at url.
func NewReanalyzerClient(fetcher Fetcher, url string) *ReanalyzerClient {
	return &ReanalyzerClient{fetcher: fetcher, url: url}
}

// Retrieve downloads and decodes the document into an index-addressed source.
func (c *ReanalyzerClient) Retrieve(ctx context.Context) (domain.Source, error) {
	body, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		return domain.Source{}, err
	}
	return ParseReanalyzer(bytes.NewReader(body))
}

// ParseReanalyzer decodes a Climate Reanalyzer daily JSON document.
func ParseReanalyzer(r io.Reader) (domain.Source, error) {
	var series []domain.IndexedSeries
	if err := json.NewDecoder(r).Decode(&series); err != nil {
		return domain.Source{}, fmt.Errorf("decode reanalyzer json: %w", err)
	}
	return domain.Source{Kind: domain.SourceIndexed, Series: series}, nil
}

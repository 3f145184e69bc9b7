package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-anomaly/internal/domain"
)

// nsidcHeaderLines is the number of header lines in G02135 daily extent CSVs:
// column names, then units.
const nsidcHeaderLines = 2

// NSIDCClient retrieves NSIDC Sea Ice Index (G02135) daily extent CSVs:
//
//	 Year, Month, Day,     Extent,    Missing, Source Data
//	 YYYY,    MM,  DD, 10^6 sq km, 10^6 sq km, Source data product web sites: ...
//	 1978,    10,  26,     17.624,      0.000, ['ftp://...']
type NSIDCClient struct {
	fetcher Fetcher
	url     string
}

// NewNSIDCClient creates a client for the CSV at url.
func NewNSIDCClient(fetcher Fetcher, url string) *NSIDCClient {
	return &NSIDCClient{fetcher: fetcher, url: url}
}

// Retrieve downloads and parses the CSV into a date-addressed source.
func (c *NSIDCClient) Retrieve(ctx context.Context) (domain.Source, error) {
	body, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		return domain.Source{}, err
	}
	return ParseNSIDC(bytes.NewReader(body))
}

// ParseNSIDC reads the Year, Month, Day and Extent columns of a daily extent
// CSV. Rows whose date fields are not integers are passed on with a zero year
// so the normalizer counts them as malformed.
func ParseNSIDC(r io.Reader) (domain.Source, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var obs []domain.RawObservation
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Source{}, fmt.Errorf("read nsidc csv: %w", err)
		}
		line++
		if line <= nsidcHeaderLines {
			continue
		}
		obs = append(obs, observationFromRecord(rec))
	}

	return domain.Source{Kind: domain.SourceDated, Observations: obs}, nil
}

func observationFromRecord(rec []string) domain.RawObservation {
	if len(rec) < 4 {
		return domain.RawObservation{Value: strings.Join(rec, ",")}
	}
	year, errY := strconv.Atoi(strings.TrimSpace(rec[0]))
	month, errM := strconv.Atoi(strings.TrimSpace(rec[1]))
	day, errD := strconv.Atoi(strings.TrimSpace(rec[2]))
	if errY != nil || errM != nil || errD != nil {
		return domain.RawObservation{Value: rec[3]}
	}
	return domain.RawObservation{
		Year:  year,
		Month: month,
		Day:   day,
		Value: strings.TrimSpace(rec[3]),
	}
}

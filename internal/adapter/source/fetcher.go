package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/climate-anomaly/internal/observability"
)

// Fetcher retrieves a raw upstream document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// document is one upstream response plus the validators needed to revalidate it.
type document struct {
	body         []byte
	etag         string
	lastModified string
	notModified  bool
}

// HTTPFetcher performs GET requests against public data portals.
type HTTPFetcher struct {
	httpClient *http.Client
	maxBody    int64
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout and
// whose documents may not exceed maxBody bytes.
func NewHTTPFetcher(timeout time.Duration, maxBody int64, metrics *observability.Metrics, logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBody: maxBody,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch downloads rawURL unconditionally.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	doc, err := f.get(ctx, rawURL, "", "")
	if err != nil {
		return nil, err
	}
	return doc.body, nil
}

// get issues a GET, conditional when etag or lastModified is set. A 304
// response returns a document with notModified set and no body.
func (f *HTTPFetcher) get(ctx context.Context, rawURL, etag, lastModified string) (document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return document{}, fmt.Errorf("create request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	host := hostOf(rawURL)
	start := time.Now()
	resp, err := f.httpClient.Do(req)
	f.metrics.FetchAPIDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	if err != nil {
		return document{}, fmt.Errorf("fetch %s: %w", host, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return document{etag: etag, lastModified: lastModified, notModified: true}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return document{}, fmt.Errorf("%s error: status %d: %s", host, resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return document{}, fmt.Errorf("read %s body: %w", host, err)
	}
	if int64(len(body)) > f.maxBody {
		return document{}, fmt.Errorf("%s document exceeds %s", host, humanize.IBytes(uint64(f.maxBody)))
	}
	f.logger.Debug("fetched source document", "host", host, "size", humanize.IBytes(uint64(len(body))))

	return document{
		body:         body,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

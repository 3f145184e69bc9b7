package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/climate-anomaly/internal/domain"
	"github.com/couchcryptid/climate-anomaly/internal/observability"
)

// Retriever fetches the raw payload of one source.
type Retriever interface {
	Retrieve(ctx context.Context) (domain.Source, error)
}

// Artifacts writes the chart pages and caption file for a report.
type Artifacts interface {
	Render(info domain.SeriesInfo, g *domain.SeriesGrid, b domain.BaselineStats, res domain.AnomalyResult) ([]string, error)
	WriteCaption(info domain.SeriesInfo, caption string) (string, error)
}

// Publisher delivers a finished report and returns its post ID.
type Publisher interface {
	Publish(ctx context.Context, report domain.Report) (string, error)
}

// Run outcomes, used as the "outcome" metric label.
const (
	outcomePublished   = "published"
	outcomeUnavailable = "unavailable"
	outcomeNoData      = "no_data"
	outcomeError       = "error"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// publishAttempts bounds delivery of one built report; the source is not re-fetched.
	publishAttempts = 3
)

// Pipeline runs every configured source once per interval.
type Pipeline struct {
	sources   []Source
	reporter  *Reporter
	publisher Publisher
	store     *Store
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration
	ready     atomic.Bool
}

// New creates a Pipeline. A nil publisher keeps reports local (store and
// artifacts only).
func New(sources []Source, reporter *Reporter, publisher Publisher, store *Store, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, interval time.Duration) *Pipeline {
	return &Pipeline{
		sources:   sources,
		reporter:  reporter,
		publisher: publisher,
		store:     store,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		interval:  interval,
	}
}

// CheckReadiness returns nil once any source has completed a run,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a report run yet")
	}
	return nil
}

// Run reports every source on its own schedule until the context is
// cancelled. Each source keeps its own backoff: a failing source is retried
// without re-running the healthy ones.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "sources", len(p.sources), "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var g errgroup.Group
	for _, src := range p.sources {
		g.Go(func() error {
			p.runLoop(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// runLoop reports one source once per interval. A failed run is retried with
// exponential backoff unless the failure is a configuration or integrity
// error, which waits for the next interval instead.
func (p *Pipeline) runLoop(ctx context.Context, src Source) {
	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff

	for {
		start := p.clock.Now()
		err := p.runSource(ctx, src)
		if ctx.Err() != nil {
			return
		}

		wait := p.interval
		switch {
		case err == nil:
			p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
			p.ready.Store(true)
			backoff = initialBackoff
		case retryable(err):
			p.logger.Error("source run failed, retrying", "source", src.Info.ID, "error", err, "backoff", backoff)
			wait = backoff
			backoff = retry.NextBackoff(backoff, maxBackoff)
		default:
			p.logger.Error("source run failed", "source", src.Info.ID, "error", err)
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			return
		}
	}
}

// RunOnce runs every source concurrently. Sources are independent: one
// failing does not cancel the others. The joined per-source errors are returned.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	errs := make([]error, len(p.sources))

	var g errgroup.Group
	for i, src := range p.sources {
		g.Go(func() error {
			errs[i] = p.runSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// runSource reports one source. Data-unavailable and no-current-data
// outcomes are expected and are not errors: nothing is published.
func (p *Pipeline) runSource(ctx context.Context, src Source) error {
	id := src.Info.ID

	report, err := p.reporter.Build(ctx, src)
	switch {
	case errors.Is(err, domain.ErrNoCurrentData):
		p.logger.Warn("no current data, skipping publish", "source", id, "error", err)
		p.metrics.Runs.WithLabelValues(id, outcomeNoData).Inc()
		return nil
	case errors.Is(err, domain.ErrDataUnavailable):
		p.logger.Warn("baseline unavailable, skipping publish", "source", id, "error", err)
		p.metrics.Runs.WithLabelValues(id, outcomeUnavailable).Inc()
		return nil
	case err != nil:
		p.metrics.Runs.WithLabelValues(id, outcomeError).Inc()
		return err
	}

	p.metrics.AnomalyValue.WithLabelValues(id).Set(report.Result.Anomaly)
	if report.Result.Sigma != nil {
		p.metrics.AnomalySigma.WithLabelValues(id).Set(*report.Result.Sigma)
	} else {
		p.metrics.AnomalySigma.DeleteLabelValues(id)
	}

	if p.publisher != nil {
		postID, err := p.publish(ctx, report)
		if err != nil {
			p.metrics.Runs.WithLabelValues(id, outcomeError).Inc()
			return err
		}
		p.metrics.ReportsPublished.Inc()
		p.logger.Info("report published", "source", id, "post_id", postID)
	}

	p.store.Put(report)
	p.metrics.Runs.WithLabelValues(id, outcomePublished).Inc()
	return nil
}

// publish delivers report with its own backoff, independent of the source's
// run schedule.
func (p *Pipeline) publish(ctx context.Context, report domain.Report) (string, error) {
	backoff := initialBackoff
	var err error
	for attempt := 1; ; attempt++ {
		var postID string
		postID, err = p.publisher.Publish(ctx, report)
		if err == nil {
			return postID, nil
		}
		if attempt == publishAttempts {
			break
		}
		p.logger.Warn("publish failed, retrying", "source", report.Series.ID, "attempt", attempt, "error", err, "backoff", backoff)
		if !p.sleep(ctx, backoff) {
			return "", ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return "", fmt.Errorf("publish %s after %d attempts: %w", report.Series.ID, publishAttempts, err)
}

// retryable reports whether err may clear on its own. Bad configuration and
// self-contradicting input do not.
func retryable(err error) bool {
	var cfgErr *domain.ConfigError
	var integrity *domain.IntegrityError
	return !errors.As(err, &cfgErr) && !errors.As(err, &integrity)
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

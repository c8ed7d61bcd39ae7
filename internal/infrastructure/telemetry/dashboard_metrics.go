package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for dashboard metrics.
const MeterName = "github.com/vaxdash/backend/dashboard"

// ErrNilMeter is returned when NewDashboardMetrics is given no meter.
var ErrNilMeter = errors.New("telemetry: meter cannot be nil")

// DashboardMetrics records dataset refreshes and publication searches.
type DashboardMetrics struct {
	refreshTotal    *Counter
	refreshDuration *Histogram
	observations    *Gauge
	searchTotal     *Counter
	searchDuration  *Histogram
	searchResults   *Gauge
}

// NewDashboardMetrics registers the dashboard instruments on meter.
func NewDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	m := &DashboardMetrics{}
	var err error

	if m.refreshTotal, err = NewCounter(meter,
		"vaxdash.refresh.total", "Dataset refreshes by outcome", "{refresh}"); err != nil {
		return nil, err
	}
	if m.refreshDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "vaxdash.refresh.duration",
		Description: "Time spent fetching and reshaping the vaccination dataset",
		Unit:        "s",
		Boundaries:  UpstreamDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.observations, err = NewGauge(meter,
		"vaxdash.dataset.observations", "Observations held by the current snapshot", "{observation}"); err != nil {
		return nil, err
	}
	if m.searchTotal, err = NewCounter(meter,
		"vaxdash.search.total", "Publication searches by outcome", "{search}"); err != nil {
		return nil, err
	}
	if m.searchDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "vaxdash.search.duration",
		Description: "Publication search latency including cache hits",
		Unit:        "s",
		Boundaries:  UpstreamDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.searchResults, err = NewGauge(meter,
		"vaxdash.search.results", "Publications returned by the last search", "{publication}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRefresh records one refresh attempt. The observation gauge only
// moves on success since a failed refresh keeps the previous snapshot.
func (m *DashboardMetrics) RecordRefresh(ctx context.Context, d time.Duration, observations int, err error) {
	outcome := Outcome(err)
	m.refreshTotal.Inc(ctx, outcome)
	m.refreshDuration.RecordDuration(ctx, d, outcome)
	if err == nil {
		m.observations.Record(ctx, int64(observations))
	}
}

// RecordSearch records one publication search.
func (m *DashboardMetrics) RecordSearch(ctx context.Context, d time.Duration, results int, err error) {
	outcome := Outcome(err)
	m.searchTotal.Inc(ctx, outcome)
	m.searchDuration.RecordDuration(ctx, d, outcome)
	if err == nil {
		m.searchResults.Record(ctx, int64(results))
	}
}

// Package dashboard assembles vaccination series, approvals and publications
// into the views served by the dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/infrastructure/telemetry"
)

// ErrNotReady is returned by views before the first successful refresh
var ErrNotReady = errors.New("dashboard: data not loaded yet")

// Reshaper turns raw records into one series per country
type Reshaper func(countries []vaccination.Country, records map[string][]vaccination.RawRecord) (map[string]*vaccination.Series, error)

// ChartRenderer draws a series as SVG
type ChartRenderer interface {
	SVG(s *vaccination.Series) ([]byte, error)
}

// Metrics records dashboard activity
type Metrics interface {
	RecordRefresh(ctx context.Context, duration time.Duration, observations int, err error)
	RecordSearch(ctx context.Context, duration time.Duration, results int, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordRefresh(context.Context, time.Duration, int, error) {}
func (noopMetrics) RecordSearch(context.Context, time.Duration, int, error)  {}

// CountryView is the data of one country
type CountryView struct {
	Country          vaccination.Country       `json:"country"`
	Series           *vaccination.Series       `json:"series"`
	Summary          vaccination.SeriesSummary `json:"summary"`
	Approvals        string                    `json:"approvals"`
	ApprovedVaccines []string                  `json:"approved_vaccines"`
	FetchedAt        time.Time                 `json:"fetched_at"`
}

// Service holds the latest dataset snapshot and builds views from it
type Service struct {
	catalog  *vaccination.Catalog
	source   vaccination.Source
	searcher literature.Searcher
	reshape  Reshaper
	charts   ChartRenderer
	metrics  Metrics
	logger   *zap.Logger
	now      func() time.Time
	query    literature.Query

	mu       sync.RWMutex
	snapshot *vaccination.Dataset
}

// Option is a functional option for Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCatalog replaces the default country catalog
func WithCatalog(catalog *vaccination.Catalog) Option {
	return func(s *Service) {
		s.catalog = catalog
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithPageQuery sets the publication search shown on the page
func WithPageQuery(q literature.Query) Option {
	return func(s *Service) {
		s.query = q
	}
}

// NewService creates a dashboard service
func NewService(
	source vaccination.Source,
	searcher literature.Searcher,
	reshape Reshaper,
	charts ChartRenderer,
	opts ...Option,
) *Service {
	s := &Service{
		catalog:  vaccination.DefaultCatalog(),
		source:   source,
		searcher: searcher,
		reshape:  reshape,
		charts:   charts,
		metrics:  noopMetrics{},
		logger:   zap.NewNop(),
		now:      time.Now,
		query:    literature.DefaultQuery(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches and reshapes all vaccination data and swaps the snapshot.
// On failure the previous snapshot is kept.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "refresh")
	defer span.End()

	start := s.now()
	var (
		dataset *vaccination.Dataset
		err     error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("refresh"), func(ctx context.Context) {
		dataset, err = s.load(ctx)
	})

	observations := 0
	if dataset != nil {
		for _, series := range dataset.Series {
			observations += series.Len()
		}
	}
	s.metrics.RecordRefresh(ctx, s.now().Sub(start), observations, err)

	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Dashboard refresh failed", zap.Error(err))
		return err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCountries, len(dataset.Series),
		telemetry.SpanAttrObservations, observations,
	)

	s.mu.Lock()
	s.snapshot = dataset
	s.mu.Unlock()

	s.logger.Info("Dashboard data refreshed",
		zap.Int("countries", len(dataset.Series)),
		zap.Int("observations", observations),
		zap.Int("approvals", len(dataset.Approvals)),
	)
	return nil
}

func (s *Service) load(ctx context.Context) (*vaccination.Dataset, error) {
	records, err := s.source.FetchRecords(ctx, s.catalog.ISOCodes())
	if err != nil {
		return nil, fmt.Errorf("dashboard: fetch records: %w", err)
	}
	approvals, err := s.source.FetchApprovals(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: fetch approvals: %w", err)
	}
	series, err := s.reshape(s.catalog.All(), records)
	if err != nil {
		return nil, fmt.Errorf("dashboard: reshape: %w", err)
	}
	return &vaccination.Dataset{
		Series:    series,
		Approvals: approvals,
		FetchedAt: s.now(),
	}, nil
}

// Ready reports whether a snapshot has been loaded
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot != nil
}

// LastRefreshed returns the time of the current snapshot
func (s *Service) LastRefreshed() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return time.Time{}, false
	}
	return s.snapshot.FetchedAt, true
}

func (s *Service) current() (*vaccination.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, ErrNotReady
	}
	return s.snapshot, nil
}

// Countries returns the selectable countries in display order
func (s *Service) Countries() []vaccination.Country {
	return s.catalog.All()
}

// Catalog returns the country catalog
func (s *Service) Catalog() *vaccination.Catalog {
	return s.catalog
}

// CountryView returns the series, summary and approvals of a country,
// addressed by name or ISO code
func (s *Service) CountryView(nameOrCode string) (*CountryView, error) {
	country, err := s.catalog.Resolve(nameOrCode)
	if err != nil {
		return nil, err
	}
	dataset, err := s.current()
	if err != nil {
		return nil, err
	}

	series := dataset.SeriesFor(country)
	return &CountryView{
		Country:          country,
		Series:           series,
		Summary:          series.Summary(),
		Approvals:        dataset.Approvals.For(country.ISOCode),
		ApprovedVaccines: dataset.Approvals.List(country.ISOCode),
		FetchedAt:        dataset.FetchedAt,
	}, nil
}

// Chart renders the chart of a country
func (s *Service) Chart(nameOrCode string) ([]byte, error) {
	view, err := s.CountryView(nameOrCode)
	if err != nil {
		return nil, err
	}
	return s.charts.SVG(view.Series)
}

// Publications runs a literature search
func (s *Service) Publications(ctx context.Context, q literature.Query) (*literature.SearchResult, error) {
	start := s.now()
	result, err := s.searcher.Search(ctx, q)

	n := 0
	if result != nil {
		n = len(result.Publications)
	}
	s.metrics.RecordSearch(ctx, s.now().Sub(start), n, err)
	return result, err
}

// Page builds the dashboard page for a country name. An empty name selects
// the default country. A failed publication search or a series too short to
// chart degrade the page instead of failing it.
func (s *Service) Page(ctx context.Context, name string) (*PageView, error) {
	if name == "" {
		name = s.catalog.Default().Name
	}
	view, err := s.CountryView(name)
	if err != nil {
		return nil, err
	}
	dataset, err := s.current()
	if err != nil {
		return nil, err
	}

	page := &PageView{
		Title:               PageTitle,
		Description:         PageDescription,
		Instructions:        PageInstructions,
		SelectorLabel:       SelectorLabel,
		Selected:            view.Country,
		ApprovalsLine:       ApprovalsLine(view.Country, dataset.Approvals),
		Summary:             view.Summary,
		PublicationsHeading: PublicationsHeading(s.query),
		PublicationsNote:    PublicationsNote,
		FetchedAt:           view.FetchedAt,
	}
	for _, c := range s.catalog.All() {
		page.Countries = append(page.Countries, CountryOption{
			Name:     c.Name,
			ISOCode:  c.ISOCode,
			Selected: c.ISOCode == view.Country.ISOCode,
		})
	}

	svg, err := s.charts.SVG(view.Series)
	switch {
	case err == nil:
		page.ChartSVG = svg
	case errors.Is(err, vaccination.ErrInsufficientData):
		page.ChartError = fmt.Sprintf("Not enough data to draw a chart for %s", view.Country.Name)
	default:
		return nil, err
	}

	result, err := s.Publications(ctx, s.query)
	if err != nil {
		s.logger.Warn("Publication search failed", zap.String("term", s.query.Term), zap.Error(err))
		page.PublicationsError = PublicationsFailed
	} else {
		page.PublicationsTotal = result.Count
		page.Publications = NumberPublications(result.Publications)
	}

	return page, nil
}

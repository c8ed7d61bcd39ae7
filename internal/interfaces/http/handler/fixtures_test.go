package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/infrastructure/chart"
	"github.com/vaxdash/backend/internal/infrastructure/frame"
	"github.com/vaxdash/backend/internal/infrastructure/scheduler"
	"github.com/vaxdash/backend/internal/interfaces/http/middleware"
)

func fp(v float64) *float64 { return &v }

// stubSource serves a fixed dataset
type stubSource struct {
	records   map[string][]vaccination.RawRecord
	approvals vaccination.Approvals
	err       error
}

func (s *stubSource) FetchRecords(context.Context, []string) (map[string][]vaccination.RawRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *stubSource) FetchApprovals(context.Context) (vaccination.Approvals, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.approvals, nil
}

func newStubSource() *stubSource {
	return &stubSource{
		records: map[string][]vaccination.RawRecord{
			"THA": {
				{Date: "2021-07-01", PerMillion: fp(1200.5)},
				{Date: "2021-07-02", PerMillion: fp(1534.25)},
				{Date: "2021-07-03"},
				{Date: "2021-07-04", PerMillion: fp(1402)},
			},
			"AUS": {{Date: "2021-07-01", PerMillion: fp(900)}},
			"MYS": {
				{Date: "2021-07-01", PerMillion: fp(5000)},
				{Date: "2021-07-02", PerMillion: fp(5100)},
			},
			"NZL": {},
		},
		approvals: vaccination.Approvals{
			"THA": "Oxford/AstraZeneca, Sinovac",
			"MYS": "Pfizer/BioNTech, Sinovac",
		},
	}
}

// stubSearcher returns canned publications
type stubSearcher struct {
	mu      sync.Mutex
	queries []literature.Query
	err     error
}

func (s *stubSearcher) Search(_ context.Context, q literature.Query) (*literature.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return &literature.SearchResult{
		Term:  q.Term,
		Count: 12345,
		Publications: []literature.Publication{
			literature.NewPublication("34000001", "Vaccine effectiveness <b>study</b>"),
			literature.NewPublication("34000002", ""),
		},
		RetrievedAt: time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubSearcher) lastQuery() literature.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[len(s.queries)-1]
}

// newTestService builds a dashboard service over the stubs; loaded selects
// whether the first refresh has run
func newTestService(t *testing.T, source *stubSource, searcher *stubSearcher, loaded bool) *dashboard.Service {
	t.Helper()
	svc := dashboard.NewService(source, searcher, frame.Reshape, chart.NewRenderer(),
		dashboard.WithClock(func() time.Time { return time.Date(2021, 8, 1, 9, 30, 0, 0, time.UTC) }),
	)
	if loaded {
		require.NoError(t, svc.Refresh(context.Background()))
	}
	return svc
}

// newTestEngine wires the handlers the way the router does
func newTestEngine(t *testing.T, svc DashboardService, opts ...SystemOption) *gin.Engine {
	t.Helper()
	middleware.SetupValidator()

	engine := gin.New()
	tmpl, err := Templates()
	require.NoError(t, err)
	engine.SetHTMLTemplate(tmpl)
	engine.Use(middleware.RequestID())

	pages := NewPageHandler(svc)
	api := NewDashboardHandler(svc, literature.DefaultQuery())
	system := NewSystemHandler(BuildInfo{Name: "vaxdash", Version: "test", Environment: "test"}, svc, opts...)

	engine.GET("/", pages.Dashboard)
	engine.GET("/chart.svg", pages.ChartSVG)
	engine.GET("/health", system.Health)
	engine.GET("/api/v1/dashboard/countries", api.ListCountries)
	engine.GET("/api/v1/dashboard/vaccinations/:country", api.GetVaccinations)
	engine.GET("/api/v1/dashboard/publications", api.SearchPublications)
	engine.GET("/api/v1/system/info", system.GetSystemInfo)
	engine.GET("/api/v1/system/ping", system.Ping)
	engine.POST("/api/v1/system/refresh", system.TriggerRefresh)
	engine.GET("/api/v1/system/refresh/status", system.GetRefreshStatus)
	return engine
}

// fakeRefresher records manual triggers
type fakeRefresher struct {
	status    scheduler.Status
	triggered chan struct{}
}

func newFakeRefresher(running, inProgress bool) *fakeRefresher {
	return &fakeRefresher{
		status:    scheduler.Status{Running: running, InProgress: inProgress, Interval: 6 * time.Hour},
		triggered: make(chan struct{}, 1),
	}
}

func (f *fakeRefresher) TriggerNow() (scheduler.Run, error) {
	switch {
	case !f.status.Running:
		return scheduler.Run{}, scheduler.ErrSchedulerNotRunning
	case f.status.InProgress:
		return scheduler.Run{}, scheduler.ErrRefreshInProgress
	}
	run := *scheduler.NewRun(scheduler.TriggerManual)
	run.Start()
	f.triggered <- struct{}{}
	return run, nil
}

func (f *fakeRefresher) Status() scheduler.Status {
	return f.status
}

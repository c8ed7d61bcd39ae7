package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/interfaces/http/dto"
)

// envelope keeps data raw so each test can decode it into its own type
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, body []byte, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestDashboardHandler_ListCountries(t *testing.T) {
	engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true))

	w := get(t, engine, "/api/v1/dashboard/countries")

	require.Equal(t, http.StatusOK, w.Code)
	var countries []CountryResponse
	env := decodeEnvelope(t, w.Body.Bytes(), &countries)
	assert.True(t, env.Success)
	require.Len(t, countries, 4)
	assert.Equal(t, "THA", countries[0].ISOCode)
	assert.True(t, countries[0].Default)
	assert.Equal(t, "New Zealand", countries[3].Name)
	assert.False(t, countries[3].Default)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 4, env.Meta.Total)
	require.NotNil(t, env.Meta.FetchedAt)
}

func TestDashboardHandler_ListCountriesBeforeLoad(t *testing.T) {
	engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, false))

	w := get(t, engine, "/api/v1/dashboard/countries")

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes(), nil)
	require.NotNil(t, env.Meta)
	assert.Nil(t, env.Meta.FetchedAt)
}

func TestDashboardHandler_GetVaccinations(t *testing.T) {
	engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true))

	for _, target := range []string{"/api/v1/dashboard/vaccinations/Thailand", "/api/v1/dashboard/vaccinations/tha"} {
		t.Run(target, func(t *testing.T) {
			w := get(t, engine, target)

			require.Equal(t, http.StatusOK, w.Code)
			var view dashboard.CountryView
			env := decodeEnvelope(t, w.Body.Bytes(), &view)
			assert.True(t, env.Success)
			assert.Equal(t, "Thailand", view.Country.Name)
			require.Len(t, view.Series.Observations, 3)
			assert.Equal(t, 1534.25, view.Series.Observations[1].PerMillion)
			assert.Equal(t, 3, view.Summary.Points)
			assert.True(t, view.Summary.Latest.Equal(decimal.NewFromInt(1402)), view.Summary.Latest.String())
			assert.True(t, view.Summary.Peak.Equal(decimal.NewFromFloat(1534.25)), view.Summary.Peak.String())
			assert.Equal(t, "Oxford/AstraZeneca, Sinovac", view.Approvals)
			assert.Equal(t, []string{"Oxford/AstraZeneca", "Sinovac"}, view.ApprovedVaccines)
			assert.Equal(t, 3, env.Meta.Total)
		})
	}
}

func TestDashboardHandler_GetVaccinationsEmptySeries(t *testing.T) {
	engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true))

	w := get(t, engine, "/api/v1/dashboard/vaccinations/NZL")

	require.Equal(t, http.StatusOK, w.Code)
	var view dashboard.CountryView
	decodeEnvelope(t, w.Body.Bytes(), &view)
	assert.Empty(t, view.Series.Observations)
	assert.Equal(t, 0, view.Summary.Points)
	assert.Equal(t, vaccination.UnknownApprovals, view.Approvals)
}

func TestDashboardHandler_GetVaccinationsErrors(t *testing.T) {
	loaded := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true))
	empty := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, false))

	tests := []struct {
		name       string
		engine     http.Handler
		target     string
		wantStatus int
		wantCode   string
	}{
		{"unknown country", loaded, "/api/v1/dashboard/vaccinations/Atlantis", http.StatusNotFound, dto.ErrCodeNotFound},
		{"malformed name", loaded, "/api/v1/dashboard/vaccinations/1234", http.StatusBadRequest, dto.ErrCodeValidation},
		{"not loaded", empty, "/api/v1/dashboard/vaccinations/Thailand", http.StatusServiceUnavailable, dto.ErrCodeNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, tt.engine, tt.target, "X-Request-ID", "api-req")

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w.Body.Bytes(), nil)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, "api-req", env.Error.RequestID)
		})
	}
}

func TestDashboardHandler_SearchPublications(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		searcher := &stubSearcher{}
		engine := newTestEngine(t, newTestService(t, newStubSource(), searcher, true))

		w := get(t, engine, "/api/v1/dashboard/publications")

		require.Equal(t, http.StatusOK, w.Code)
		var result literature.SearchResult
		env := decodeEnvelope(t, w.Body.Bytes(), &result)
		assert.Equal(t, 12345, env.Meta.Total)
		require.Len(t, result.Publications, 2)
		assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/34000001/", result.Publications[0].URL)
		assert.Equal(t, literature.UntitledPlaceholder, result.Publications[1].Title)
		assert.Equal(t, literature.DefaultQuery(), searcher.lastQuery())
	})

	t.Run("custom term and count", func(t *testing.T) {
		searcher := &stubSearcher{}
		engine := newTestEngine(t, newTestService(t, newStubSource(), searcher, true))

		w := get(t, engine, "/api/v1/dashboard/publications?term=mRNA+booster&max_count=5")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, literature.Query{Term: "mRNA booster", MaxCount: 5}, searcher.lastQuery())
	})

	t.Run("max count out of range", func(t *testing.T) {
		engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true))

		w := get(t, engine, "/api/v1/dashboard/publications?max_count=500")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes(), nil)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "max_count", env.Error.Details[0].Field)
	})

	t.Run("blank term", func(t *testing.T) {
		engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true))

		w := get(t, engine, "/api/v1/dashboard/publications?term=+++")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		searcher := &stubSearcher{err: literature.ErrSearchUnavailable}
		engine := newTestEngine(t, newTestService(t, newStubSource(), searcher, true))

		w := get(t, engine, "/api/v1/dashboard/publications")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes(), nil)
		assert.Equal(t, dto.ErrCodeUpstream, env.Error.Code)
	})
}

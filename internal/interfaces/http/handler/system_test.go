package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxdash/backend/internal/infrastructure/cache"
	"github.com/vaxdash/backend/internal/infrastructure/scheduler"
	"github.com/vaxdash/backend/internal/interfaces/http/dto"
)

type fixedStats cache.Stats

func (s fixedStats) Stats() cache.Stats { return cache.Stats(s) }

func post(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, target, nil))
	return w
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	svc := newTestService(t, newStubSource(), &stubSearcher{}, true)
	engine := newTestEngine(t, svc, WithCacheStats(fixedStats{L1Hits: 3, L1Misses: 1, L1Size: 1}))

	w := get(t, engine, "/api/v1/system/info")

	require.Equal(t, http.StatusOK, w.Code)
	var info SystemInfoResponse
	env := decodeEnvelope(t, w.Body.Bytes(), &info)
	assert.True(t, env.Success)
	assert.Equal(t, "vaxdash", info.Name)
	assert.Equal(t, "test", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.NotEmpty(t, info.Uptime)
	assert.True(t, info.Ready)
	require.NotNil(t, info.LastRefreshed)
	assert.Equal(t, time.Date(2021, 8, 1, 9, 30, 0, 0, time.UTC), info.LastRefreshed.UTC())
	require.NotNil(t, info.Cache)
	assert.Equal(t, int64(3), info.Cache.L1Hits)
	assert.False(t, info.Cache.Shared)
}

func TestSystemHandler_GetSystemInfoWithoutCache(t *testing.T) {
	engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, false))

	w := get(t, engine, "/api/v1/system/info")

	require.Equal(t, http.StatusOK, w.Code)
	var info SystemInfoResponse
	decodeEnvelope(t, w.Body.Bytes(), &info)
	assert.False(t, info.Ready)
	assert.Nil(t, info.LastRefreshed)
	assert.Nil(t, info.Cache)
}

func TestSystemHandler_Ping(t *testing.T) {
	engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, false))

	w := get(t, engine, "/api/v1/system/ping")

	require.Equal(t, http.StatusOK, w.Code)
	var pong PingResponse
	decodeEnvelope(t, w.Body.Bytes(), &pong)
	assert.Equal(t, "pong", pong.Message)
	_, err := time.Parse(time.RFC3339, pong.Timestamp)
	assert.NoError(t, err)
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("starting", func(t *testing.T) {
		engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, false))

		w := get(t, engine, "/health")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "starting", body["status"])
		assert.Equal(t, "loading", body["data"])
	})

	t.Run("healthy", func(t *testing.T) {
		engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true))

		w := get(t, engine, "/health")

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "ok", body["data"])
		assert.Equal(t, "2021-08-01T09:30:00Z", body["last_refresh"])
	})
}

func TestSystemHandler_TriggerRefresh(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		refresher := newFakeRefresher(true, false)
		engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true),
			WithRefreshController(refresher))

		w := post(t, engine, "/api/v1/system/refresh")

		require.Equal(t, http.StatusAccepted, w.Code)
		var accepted RefreshAccepted
		env := decodeEnvelope(t, w.Body.Bytes(), &accepted)
		assert.True(t, env.Success)
		assert.Equal(t, "Refresh started", accepted.Message)
		assert.True(t, accepted.Status.Running)
		assert.Equal(t, scheduler.TriggerManual, accepted.Run.Trigger)
		assert.Equal(t, scheduler.RunStatusRunning, accepted.Run.Status)
		assert.Len(t, refresher.triggered, 1)
	})

	tests := []struct {
		name       string
		opts       []SystemOption
		wantStatus int
		wantCode   string
	}{
		{"in progress", []SystemOption{WithRefreshController(newFakeRefresher(true, true))}, http.StatusConflict, dto.ErrCodeConflict},
		{"scheduler stopped", []SystemOption{WithRefreshController(newFakeRefresher(false, false))}, http.StatusServiceUnavailable, dto.ErrCodeNotReady},
		{"no scheduler", nil, http.StatusServiceUnavailable, dto.ErrCodeNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true), tt.opts...)

			w := post(t, engine, "/api/v1/system/refresh")

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w.Body.Bytes(), nil)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestSystemHandler_GetRefreshStatus(t *testing.T) {
	refresher := newFakeRefresher(true, false)
	last := *scheduler.NewRun(scheduler.TriggerStartup)
	refresher.status.LastRun = &last
	refresher.status.History = []scheduler.Run{last}
	engine := newTestEngine(t, newTestService(t, newStubSource(), &stubSearcher{}, true),
		WithRefreshController(refresher))

	w := get(t, engine, "/api/v1/system/refresh/status")

	require.Equal(t, http.StatusOK, w.Code)
	var status scheduler.Status
	decodeEnvelope(t, w.Body.Bytes(), &status)
	assert.True(t, status.Running)
	assert.Equal(t, 6*time.Hour, status.Interval)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, last.ID, status.LastRun.ID)
	assert.Len(t, status.History, 1)
}

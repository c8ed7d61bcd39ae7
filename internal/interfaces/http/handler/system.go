package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vaxdash/backend/internal/infrastructure/cache"
	"github.com/vaxdash/backend/internal/infrastructure/logger"
	"github.com/vaxdash/backend/internal/infrastructure/scheduler"
)

// RefreshController triggers and reports data refreshes
type RefreshController interface {
	TriggerNow() (scheduler.Run, error)
	Status() scheduler.Status
}

// CacheStatsProvider reports publication cache statistics
type CacheStatsProvider interface {
	Stats() cache.Stats
}

// BuildInfo identifies the running service
type BuildInfo struct {
	Name        string
	Version     string
	Environment string
}

// SystemHandler handles health, info and refresh endpoints
type SystemHandler struct {
	BaseHandler
	info       BuildInfo
	service    DashboardService
	refresher  RefreshController
	cacheStats CacheStatsProvider
	startTime  time.Time
	now        func() time.Time
}

// SystemOption is a functional option for SystemHandler
type SystemOption func(*SystemHandler)

// WithRefreshController enables the refresh endpoints
func WithRefreshController(rc RefreshController) SystemOption {
	return func(h *SystemHandler) {
		h.refresher = rc
	}
}

// WithCacheStats adds cache statistics to the system info
func WithCacheStats(p CacheStatsProvider) SystemOption {
	return func(h *SystemHandler) {
		h.cacheStats = p
	}
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(info BuildInfo, service DashboardService, opts ...SystemOption) *SystemHandler {
	h := &SystemHandler{
		info:      info,
		service:   service,
		startTime: time.Now(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name          string       `json:"name"`
	Version       string       `json:"version"`
	Environment   string       `json:"environment"`
	GoVersion     string       `json:"go_version"`
	Uptime        string       `json:"uptime"`
	Ready         bool         `json:"ready"`
	LastRefreshed *time.Time   `json:"last_refreshed,omitempty"`
	Cache         *cache.Stats `json:"cache,omitempty"`
}

// GetSystemInfo returns version, uptime and data freshness
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:        h.info.Name,
		Version:     h.info.Version,
		Environment: h.info.Environment,
		GoVersion:   runtime.Version(),
		Uptime:      h.now().Sub(h.startTime).Round(time.Second).String(),
		Ready:       h.service.Ready(),
	}
	if t, ok := h.service.LastRefreshed(); ok {
		info.LastRefreshed = &t
	}
	if h.cacheStats != nil {
		stats := h.cacheStats.Stats()
		info.Cache = &stats
	}
	h.Success(c, info)
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping answers with pong
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Health reports readiness: 503 until the first refresh succeeded
func (h *SystemHandler) Health(c *gin.Context) {
	body := gin.H{
		"time": h.now().UTC().Format(time.RFC3339),
	}
	last, ok := h.service.LastRefreshed()
	if !ok {
		body["status"] = "starting"
		body["data"] = "loading"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "healthy"
	body["data"] = "ok"
	body["last_refresh"] = last.UTC().Format(time.RFC3339)
	c.JSON(http.StatusOK, body)
}

// RefreshAccepted is returned when a manual refresh was started
type RefreshAccepted struct {
	Message string           `json:"message"`
	Run     scheduler.Run    `json:"run"`
	Status  scheduler.Status `json:"status"`
}

// TriggerRefresh starts a manual refresh in the background and returns 202.
// A refresh already in flight yields 409.
func (h *SystemHandler) TriggerRefresh(c *gin.Context) {
	if h.refresher == nil {
		h.HandleError(c, scheduler.ErrSchedulerNotRunning)
		return
	}
	run, err := h.refresher.TriggerNow()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.FromGin(c).Info("Manual refresh started", zap.String("run_id", run.ID.String()))
	h.Accepted(c, RefreshAccepted{
		Message: "Refresh started",
		Run:     run,
		Status:  h.refresher.Status(),
	})
}

// GetRefreshStatus returns the scheduler state and recent runs
func (h *SystemHandler) GetRefreshStatus(c *gin.Context) {
	if h.refresher == nil {
		h.HandleError(c, scheduler.ErrSchedulerNotRunning)
		return
	}
	h.Success(c, h.refresher.Status())
}

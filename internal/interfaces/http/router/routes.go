package router

import (
	"github.com/gin-gonic/gin"

	"github.com/vaxdash/backend/internal/interfaces/http/handler"
)

// Handlers are the handler sets served by the dashboard
type Handlers struct {
	Pages     *handler.PageHandler
	Dashboard *handler.DashboardHandler
	System    *handler.SystemHandler

	// RefreshMiddleware guards the manual refresh trigger, e.g. with a
	// stricter rate limit
	RefreshMiddleware []gin.HandlerFunc
}

// PageRoutes returns the HTML page, the chart image and the health check
func PageRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("page", "").
		GET("/", h.Pages.Dashboard).
		GET("/chart.svg", h.Pages.ChartSVG).
		GET("/health", h.System.Health)
}

// DashboardRoutes returns the JSON dashboard API
func DashboardRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("dashboard", "/dashboard").
		GET("/countries", h.Dashboard.ListCountries).
		GET("/vaccinations/:country", h.Dashboard.GetVaccinations).
		GET("/publications", h.Dashboard.SearchPublications)
}

// SystemRoutes returns the info, ping and refresh endpoints
func SystemRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	refresh := g.Group("refresh", "/refresh").
		GET("/status", h.System.GetRefreshStatus)
	trigger := append(append([]gin.HandlerFunc{}, h.RefreshMiddleware...), h.System.TriggerRefresh)
	refresh.POST("", trigger...)
	return g
}

// Setup registers every dashboard route on the engine
func Setup(engine *gin.Engine, h Handlers, opts ...RouterOption) *Router {
	r := NewRouter(engine, opts...)
	r.RegisterRoot(PageRoutes(h))
	r.Register(DashboardRoutes(h))
	r.Register(SystemRoutes(h))
	r.Setup()
	return r
}

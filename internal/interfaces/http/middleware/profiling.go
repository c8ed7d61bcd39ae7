package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths are served without profiling labels
	SkipPaths []string
	// Catalog, when set, adds the ISO code of a known requested country
	// as a label. Unknown names are never used as label values.
	Catalog *vaccination.Catalog
}

// DefaultProfilingConfig returns default profiling middleware configuration
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health"},
	}
}

// Profiling returns profiling middleware with default configuration
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig runs each request with Pyroscope labels for the
// controller, route pattern, method and country
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		labels := extractProfilingLabels(c, cfg.Catalog)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func extractProfilingLabels(c *gin.Context, catalog *vaccination.Catalog) map[string]string {
	route := c.FullPath()
	labels := telemetry.HTTPRequestLabels(extractControllerFromRoute(route), route, c.Request.Method)

	if catalog != nil {
		if name := countryParam(c); name != "" {
			if country, err := catalog.Resolve(name); err == nil {
				labels[telemetry.ProfilingLabelCountry] = country.ISOCode
			}
		}
	}
	return labels
}

// extractControllerFromRoute derives a controller name from the route pattern.
//
//	"/api/v1/dashboard/vaccinations/:country" -> "dashboard"
//	"/chart.svg"                              -> "chart.svg"
//	"/"                                       -> "page"
func extractControllerFromRoute(route string) string {
	if route == "" {
		return ""
	}
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return "page"
}

// isVersionSegment checks if a path segment is an API version (v1, v2, etc.)
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}

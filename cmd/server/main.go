package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/infrastructure/cache"
	"github.com/vaxdash/backend/internal/infrastructure/chart"
	"github.com/vaxdash/backend/internal/infrastructure/config"
	"github.com/vaxdash/backend/internal/infrastructure/frame"
	"github.com/vaxdash/backend/internal/infrastructure/logger"
	"github.com/vaxdash/backend/internal/infrastructure/owid"
	"github.com/vaxdash/backend/internal/infrastructure/pubmed"
	"github.com/vaxdash/backend/internal/infrastructure/scheduler"
	"github.com/vaxdash/backend/internal/infrastructure/telemetry"
	"github.com/vaxdash/backend/internal/interfaces/http/handler"
	"github.com/vaxdash/backend/internal/interfaces/http/middleware"
	"github.com/vaxdash/backend/internal/interfaces/http/router"
)

// refreshRateLimit bounds manual refresh triggers per client
const (
	refreshRateLimit  = 2
	refreshRateWindow = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OpenTelemetry: logs first so the bridged logger covers the rest of startup
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := telemetry.Bridge(baseLog, logProvider, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting vaccination dashboard",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.Enabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	// Upstream sources
	source, err := owid.NewAdapter(&owid.Config{
		DataURL:      cfg.Sources.DataURL,
		LocationsURL: cfg.Sources.LocationsURL,
		Timeout:      cfg.Sources.Timeout,
		MaxBodyBytes: cfg.Sources.MaxBodyBytes,
		UserAgent:    cfg.Sources.UserAgent,
	}, owid.WithLogger(log.Named("owid")))
	if err != nil {
		log.Fatal("Invalid vaccination source configuration", zap.Error(err))
	}

	pubmedAdapter, err := pubmed.NewAdapter(&pubmed.Config{
		BaseURL:  cfg.PubMed.BaseURL,
		Email:    cfg.PubMed.Email,
		Tool:     cfg.PubMed.Tool,
		APIKey:   cfg.PubMed.APIKey,
		Database: cfg.PubMed.Database,
		Timeout:  cfg.PubMed.Timeout,
	}, pubmed.WithLogger(log.Named("pubmed")))
	if err != nil {
		log.Fatal("Invalid PubMed configuration", zap.Error(err))
	}

	store, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log.Named("cache")),
		cache.WithCacheConfig(cache.Config{
			TTL:             cfg.Cache.TTL,
			L1TTL:           cfg.Cache.L1TTL,
			CleanupInterval: cfg.Cache.CleanupInterval,
		}),
		cache.WithInMemoryFallback(cfg.Cache.InMemoryFallback),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create publication cache", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing publication cache", zap.Error(err))
		}
	}()
	// esearch and efetch each get the adapter timeout
	searcher := cache.NewCachingSearcher(pubmedAdapter, store, cfg.Cache.TTL, log.Named("cache"),
		cache.WithSearchTimeout(2*cfg.PubMed.Timeout))

	pageQuery, err := literature.NewQuery(cfg.PubMed.DefaultTerm, cfg.PubMed.DefaultMaxCount)
	if err != nil {
		log.Fatal("Invalid default publication search", zap.Error(err))
	}

	dashboardMetrics, err := telemetry.NewDashboardMetrics(meterProvider.Meter(telemetry.MeterName))
	if err != nil {
		log.Fatal("Failed to create dashboard metrics", zap.Error(err))
	}

	service := dashboard.NewService(source, searcher, frame.Reshape, chart.NewRenderer(),
		dashboard.WithLogger(log.Named("dashboard")),
		dashboard.WithMetrics(dashboardMetrics),
		dashboard.WithPageQuery(pageQuery),
	)

	refresher, err := scheduler.NewRefreshScheduler(scheduler.Config{
		Interval:    cfg.Refresh.Interval,
		RunOnStart:  cfg.Refresh.RunOnStart,
		Timeout:     cfg.Refresh.Timeout,
		HistorySize: cfg.Refresh.HistorySize,
	}, service, log.Named("scheduler"))
	if err != nil {
		log.Fatal("Invalid refresh configuration", zap.Error(err))
	}
	if err := refresher.Start(ctx); err != nil {
		log.Fatal("Failed to start refresh scheduler", zap.Error(err))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	templates, err := handler.Templates()
	if err != nil {
		log.Fatal("Failed to parse page templates", zap.Error(err))
	}
	engine.SetHTMLTemplate(templates)

	// Middleware order:
	// RequestID, Recovery, Tracing, SpanEnricher, Logger, Security, CORS,
	// BodyLimit, RateLimit, Timeout, Metrics, Profiling
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health"},
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var limiters []*middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		limiters = append(limiters, limiter)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.Enabled(),
		Logger:        log,
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   profiler.Enabled(),
		SkipPaths: []string{"/health"},
		Catalog:   service.Catalog(),
	}))

	handlers := router.Handlers{
		Pages:     handler.NewPageHandler(service),
		Dashboard: handler.NewDashboardHandler(service, pageQuery),
		System: handler.NewSystemHandler(handler.BuildInfo{
			Name:        cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Env,
		}, service,
			handler.WithRefreshController(refresher),
			handler.WithCacheStats(store),
		),
	}
	if cfg.HTTP.RateLimitEnabled {
		refreshLimiter := middleware.NewRateLimiter(refreshRateLimit, refreshRateWindow)
		limiters = append(limiters, refreshLimiter)
		handlers.RefreshMiddleware = append(handlers.RefreshMiddleware, middleware.RateLimit(refreshLimiter))
	}
	router.Setup(engine, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := refresher.Stop(shutdownCtx); err != nil {
		log.Warn("Refresh scheduler did not stop cleanly", zap.Error(err))
	}
	for _, l := range limiters {
		l.Stop()
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Warn("Log provider shutdown failed", zap.Error(err))
	}
}

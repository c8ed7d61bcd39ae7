package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	Sources   SourcesConfig
	PubMed    PubMedConfig
	Cache     CacheConfig
	Refresh   RefreshConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// RedisConfig holds the optional shared publication cache
type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// SourcesConfig holds the OWID download settings
type SourcesConfig struct {
	DataURL      string
	LocationsURL string
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// PubMedConfig holds the NCBI E-utilities settings
type PubMedConfig struct {
	BaseURL         string
	Email           string
	Tool            string
	APIKey          string
	Database        string
	Timeout         time.Duration
	DefaultTerm     string
	DefaultMaxCount int
}

// CacheConfig holds publication memoization timings
type CacheConfig struct {
	TTL              time.Duration
	L1TTL            time.Duration
	CleanupInterval  time.Duration
	InMemoryFallback bool
}

// RefreshConfig holds the periodic dataset refresh settings
type RefreshConfig struct {
	Interval    time.Duration
	RunOnStart  bool
	Timeout     time.Duration
	HistorySize int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
}

// ProfilingConfig holds Pyroscope configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string
	SpanProfiles      bool
}

// Load reads config.toml (if present) and VAX_ environment variables.
// Priority (highest to lowest):
// 1. Environment variables with VAX_ prefix (e.g., VAX_PUBMED_EMAIL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFrom(".", "/etc/vaxdash", "/app")
}

// LoadFrom is Load with explicit config.toml search paths
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("VAX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true must be registered so that an explicit
	// false from file or env is distinguishable from unset.
	v.SetDefault("refresh.run_on_start", true)
	v.SetDefault("cache.in_memory_fallback", true)
	v.SetDefault("http.rate_limit_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			RequestTimeout:    v.GetDuration("http.request_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("redis.enabled"),
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Sources: SourcesConfig{
			DataURL:      v.GetString("sources.data_url"),
			LocationsURL: v.GetString("sources.locations_url"),
			Timeout:      v.GetDuration("sources.timeout"),
			MaxBodyBytes: v.GetInt64("sources.max_body_bytes"),
			UserAgent:    v.GetString("sources.user_agent"),
		},
		PubMed: PubMedConfig{
			BaseURL:         v.GetString("pubmed.base_url"),
			Email:           v.GetString("pubmed.email"),
			Tool:            v.GetString("pubmed.tool"),
			APIKey:          v.GetString("pubmed.api_key"),
			Database:        v.GetString("pubmed.database"),
			Timeout:         v.GetDuration("pubmed.timeout"),
			DefaultTerm:     v.GetString("pubmed.default_term"),
			DefaultMaxCount: v.GetInt("pubmed.default_max_count"),
		},
		Cache: CacheConfig{
			TTL:              v.GetDuration("cache.ttl"),
			L1TTL:            v.GetDuration("cache.l1_ttl"),
			CleanupInterval:  v.GetDuration("cache.cleanup_interval"),
			InMemoryFallback: v.GetBool("cache.in_memory_fallback"),
		},
		Refresh: RefreshConfig{
			Interval:    v.GetDuration("refresh.interval"),
			RunOnStart:  v.GetBool("refresh.run_on_start"),
			Timeout:     v.GetDuration("refresh.timeout"),
			HistorySize: v.GetInt("refresh.history_size"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiling.profile_types"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vaxdash"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 45 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 120
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// No CORS origin default: cross-origin API access must be configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "vaxdash:"
	}

	if cfg.Sources.DataURL == "" {
		cfg.Sources.DataURL = "https://covid.ourworldindata.org/data/owid-covid-data.json"
	}
	if cfg.Sources.LocationsURL == "" {
		cfg.Sources.LocationsURL = "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/vaccinations/locations.csv"
	}
	if cfg.Sources.Timeout == 0 {
		cfg.Sources.Timeout = 2 * time.Minute
	}
	if cfg.Sources.MaxBodyBytes == 0 {
		cfg.Sources.MaxBodyBytes = 512 << 20
	}
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = cfg.App.Name + "/" + cfg.App.Version
	}

	if cfg.PubMed.BaseURL == "" {
		cfg.PubMed.BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"
	}
	if cfg.PubMed.Email == "" && cfg.App.Env != "production" {
		cfg.PubMed.Email = "dev@vaxdash.local"
	}
	if cfg.PubMed.Tool == "" {
		cfg.PubMed.Tool = cfg.App.Name
	}
	if cfg.PubMed.Database == "" {
		cfg.PubMed.Database = "pubmed"
	}
	if cfg.PubMed.Timeout == 0 {
		cfg.PubMed.Timeout = 30 * time.Second
	}
	if cfg.PubMed.DefaultTerm == "" {
		cfg.PubMed.DefaultTerm = "COVID-19 vaccines"
	}
	if cfg.PubMed.DefaultMaxCount == 0 {
		cfg.PubMed.DefaultMaxCount = 10
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.L1TTL == 0 {
		cfg.Cache.L1TTL = 10 * time.Minute
	}
	if cfg.Cache.CleanupInterval == 0 {
		cfg.Cache.CleanupInterval = 5 * time.Minute
	}

	if cfg.Refresh.Interval == 0 {
		cfg.Refresh.Interval = 6 * time.Hour
	}
	if cfg.Refresh.Timeout == 0 {
		cfg.Refresh.Timeout = 5 * time.Minute
	}
	if cfg.Refresh.HistorySize == 0 {
		cfg.Refresh.HistorySize = 20
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}

	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.App.Name
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"sources.data_url":      c.Sources.DataURL,
		"sources.locations_url": c.Sources.LocationsURL,
		"pubmed.base_url":       c.PubMed.BaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if c.PubMed.Email == "" {
		return fmt.Errorf("pubmed.email is required in production")
	}
	if c.PubMed.DefaultMaxCount < 1 || c.PubMed.DefaultMaxCount > 100 {
		return fmt.Errorf("pubmed.default_max_count must be between 1 and 100, got %d", c.PubMed.DefaultMaxCount)
	}
	if c.Sources.MaxBodyBytes < 0 {
		return fmt.Errorf("sources.max_body_bytes cannot be negative")
	}
	if c.Cache.L1TTL > c.Cache.TTL {
		return fmt.Errorf("cache.l1_ttl (%s) cannot exceed cache.ttl (%s)", c.Cache.L1TTL, c.Cache.TTL)
	}
	if c.Refresh.Interval < time.Minute {
		return fmt.Errorf("refresh.interval must be at least 1m, got %s", c.Refresh.Interval)
	}
	if c.Refresh.HistorySize < 0 {
		return fmt.Errorf("refresh.history_size cannot be negative")
	}
	if c.HTTP.RateLimitRequests < 0 {
		return fmt.Errorf("http.rate_limit_requests cannot be negative")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}
	return nil
}

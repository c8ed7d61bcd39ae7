// Command vaxctl queries the vaccination dataset and PubMed from the
// terminal, using the same configuration as the dashboard server.
package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/infrastructure/cache"
	"github.com/vaxdash/backend/internal/infrastructure/chart"
	"github.com/vaxdash/backend/internal/infrastructure/config"
	"github.com/vaxdash/backend/internal/infrastructure/frame"
	"github.com/vaxdash/backend/internal/infrastructure/logger"
	"github.com/vaxdash/backend/internal/infrastructure/owid"
	"github.com/vaxdash/backend/internal/infrastructure/pubmed"
)

// options are the persistent flags shared by every command
type options struct {
	configPaths []string
	timeout     time.Duration
	verbose     bool
}

// backend is what the commands run against
type backend struct {
	service *dashboard.Service
	source  vaccination.Source
	query   literature.Query
	close   func() error
}

type backendFactory func(ctx context.Context, opts *options) (*backend, error)

func newRootCmd(factory backendFactory) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "vaxctl",
		Short: "Query COVID-19 vaccination data and PubMed publications",
		Long: `vaxctl reads the Our World in Data vaccination dataset and searches PubMed
with the same settings as the dashboard server (config.toml and VAX_ variables).

Available commands:
  series       - Daily vaccinations per million of a country
  approvals    - Vaccines approved in each dashboard country
  publications - Latest PubMed publications for a search term
  render       - Write the chart of a country as SVG`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&opts.configPaths, "config", []string{".", "/etc/vaxdash"}, "Directories searched for config.toml")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Operation timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newSeriesCmd(opts, factory),
		newApprovalsCmd(opts, factory),
		newPublicationsCmd(opts, factory),
		newRenderCmd(opts, factory),
	)
	return root
}

// run builds the backend and calls fn with a context bounded by --timeout
func run(cmd *cobra.Command, opts *options, factory backendFactory, fn func(ctx context.Context, b *backend) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	b, err := factory(ctx, opts)
	if err != nil {
		return err
	}
	if b.close != nil {
		defer func() { _ = b.close() }()
	}
	return fn(ctx, b)
}

// defaultBackend wires the real sources from configuration
func defaultBackend(ctx context.Context, opts *options) (*backend, error) {
	cfg, err := config.LoadFrom(opts.configPaths...)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		return nil, err
	}

	source, err := owid.NewAdapter(&owid.Config{
		DataURL:      cfg.Sources.DataURL,
		LocationsURL: cfg.Sources.LocationsURL,
		Timeout:      cfg.Sources.Timeout,
		MaxBodyBytes: cfg.Sources.MaxBodyBytes,
		UserAgent:    cfg.Sources.UserAgent,
	}, owid.WithLogger(log.Named("owid")))
	if err != nil {
		return nil, err
	}
	searcher, err := pubmed.NewAdapter(&pubmed.Config{
		BaseURL:  cfg.PubMed.BaseURL,
		Email:    cfg.PubMed.Email,
		Tool:     cfg.PubMed.Tool,
		APIKey:   cfg.PubMed.APIKey,
		Database: cfg.PubMed.Database,
		Timeout:  cfg.PubMed.Timeout,
	}, pubmed.WithLogger(log.Named("pubmed")))
	if err != nil {
		return nil, err
	}

	// Shares the server's Redis cache when one is configured
	store, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log.Named("cache")),
		cache.WithCacheConfig(cache.Config{
			TTL:             cfg.Cache.TTL,
			L1TTL:           cfg.Cache.L1TTL,
			CleanupInterval: cfg.Cache.CleanupInterval,
		}),
	).CreateStore(ctx)
	if err != nil {
		return nil, err
	}

	query, err := literature.NewQuery(cfg.PubMed.DefaultTerm, cfg.PubMed.DefaultMaxCount)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	service := dashboard.NewService(source,
		cache.NewCachingSearcher(searcher, store, cfg.Cache.TTL, log.Named("cache"),
			cache.WithSearchTimeout(2*cfg.PubMed.Timeout)),
		frame.Reshape, chart.NewRenderer(),
		dashboard.WithLogger(log.Named("dashboard")),
		dashboard.WithPageQuery(query),
	)
	return &backend{
		service: service,
		source:  source,
		query:   query,
		close: func() error {
			_ = log.Sync()
			return store.Close()
		},
	}, nil
}

func main() {
	if err := newRootCmd(defaultBackend).Execute(); err != nil {
		os.Exit(1)
	}
}

// Package owid fetches vaccination data published by Our World in Data.
package owid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/infrastructure/csvtable"
	"github.com/vaxdash/backend/internal/infrastructure/telemetry"
)

// Column names of the locations table
const (
	ColumnISOCode  = "iso_code"
	ColumnVaccines = "vaccines"
)

// Adapter implements vaccination.Source over HTTP
type Adapter struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Compile-time interface check
var _ vaccination.Source = (*Adapter)(nil)

// AdapterOption is a functional option for Adapter
type AdapterOption func(*Adapter)

// WithHTTPClient replaces the HTTP client (its timeout is left untouched)
func WithHTTPClient(client *http.Client) AdapterOption {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

// WithLogger sets the adapter logger
func WithLogger(logger *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter creates a new source adapter with the given configuration
func NewAdapter(config *Config, opts ...AdapterOption) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// FetchRecords downloads the dataset and returns the raw daily records of
// the requested countries
func (a *Adapter) FetchRecords(ctx context.Context, isoCodes []string) (_ map[string][]vaccination.RawRecord, err error) {
	if len(isoCodes) == 0 {
		return map[string][]vaccination.RawRecord{}, nil
	}
	ctx, span := telemetry.StartClientSpan(ctx, "owid.fetch_records",
		attribute.String(telemetry.SpanAttrURL, a.config.DataURL),
		attribute.StringSlice(telemetry.SpanAttrCountries, isoCodes),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	wanted := make(map[string]bool, len(isoCodes))
	for _, iso := range isoCodes {
		wanted[strings.ToUpper(iso)] = true
	}

	body, err := a.get(ctx, a.config.DataURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	records, err := decodeRecords(io.LimitReader(body, a.config.MaxBodyBytes), wanted)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Fetched vaccination records",
		zap.Strings("countries", isoCodes),
		zap.Int("count", countRecords(records)),
	)
	return records, nil
}

// FetchApprovals downloads the locations table and returns the vaccines
// approved in each country
func (a *Adapter) FetchApprovals(ctx context.Context) (_ vaccination.Approvals, err error) {
	ctx, span := telemetry.StartClientSpan(ctx, "owid.fetch_approvals",
		attribute.String(telemetry.SpanAttrURL, a.config.LocationsURL),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	body, err := a.get(ctx, a.config.LocationsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	table, err := csvtable.NewReader(io.LimitReader(body, a.config.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vaccination.ErrSourceInvalid, err)
	}
	if err := table.Require(ColumnISOCode, ColumnVaccines); err != nil {
		return nil, fmt.Errorf("%w: %v", vaccination.ErrSourceInvalid, err)
	}

	rows, err := table.All()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vaccination.ErrSourceInvalid, err)
	}

	approvals := make(vaccination.Approvals, len(rows))
	for _, row := range rows {
		iso := strings.ToUpper(row.Get(ColumnISOCode))
		if iso == "" {
			continue
		}
		approvals[iso] = row.Get(ColumnVaccines)
	}

	a.logger.Debug("Fetched vaccine approvals", zap.Int("count", len(approvals)))
	return approvals, nil
}

// get performs a GET request and returns the response body of a successful
// response. The caller closes the body.
func (a *Adapter) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("owid: failed to create request: %w", err)
	}
	if a.config.UserAgent != "" {
		req.Header.Set("User-Agent", a.config.UserAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vaccination.ErrSourceUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d from %s", vaccination.ErrSourceRequestFailed, resp.StatusCode, req.URL.Path)
	}
	return resp.Body, nil
}

func countRecords(records map[string][]vaccination.RawRecord) int {
	n := 0
	for _, r := range records {
		n += len(r)
	}
	return n
}

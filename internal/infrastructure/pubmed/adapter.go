// Package pubmed searches PubMed through the NCBI E-utilities API.
package pubmed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/infrastructure/telemetry"
)

// Adapter implements literature.Searcher with esearch followed by efetch
type Adapter struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Compile-time interface check
var _ literature.Searcher = (*Adapter)(nil)

// AdapterOption is a functional option for Adapter
type AdapterOption func(*Adapter)

// WithHTTPClient replaces the HTTP client
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

// NewAdapter creates a new E-utilities adapter
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

// Search finds the most relevant articles for the query and fetches their titles
func (a *Adapter) Search(ctx context.Context, query literature.Query) (_ *literature.SearchResult, err error) {
	ctx, span := telemetry.StartClientSpan(ctx, "pubmed.search",
		attribute.String(telemetry.SpanAttrSearchTerm, query.Term),
		attribute.Int(telemetry.SpanAttrSearchMax, query.MaxCount),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	count, ids, err := a.esearch(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &literature.SearchResult{
		Term:         query.Term,
		Count:        count,
		Publications: make([]literature.Publication, 0, len(ids)),
		RetrievedAt:  time.Now(),
	}
	if len(ids) == 0 {
		return result, nil
	}

	titles, err := a.efetchTitles(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result.Publications = append(result.Publications, literature.NewPublication(id, titles[id]))
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrResults, len(result.Publications))
	a.logger.Debug("PubMed search completed",
		zap.String("term", query.Term),
		zap.Int("count", count),
		zap.Int("returned", len(result.Publications)),
	)
	return result, nil
}

// esearch returns the total hit count and the first page of PMIDs
func (a *Adapter) esearch(ctx context.Context, query literature.Query) (int, []string, error) {
	params := url.Values{}
	params.Set("db", a.config.Database)
	params.Set("term", query.Term)
	params.Set("retmax", strconv.Itoa(query.MaxCount))
	params.Set("retmode", "json")

	body, err := a.doRequest(ctx, "esearch.fcgi", params)
	if err != nil {
		return 0, nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", literature.ErrSearchInvalid, err)
	}
	if msg := firstNonEmpty(resp.Error, resp.Result.Error); msg != "" {
		return 0, nil, fmt.Errorf("%w: %s", literature.ErrSearchRequestFailed, msg)
	}

	count := 0
	if resp.Result.Count != "" {
		count, err = strconv.Atoi(resp.Result.Count)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: count %q", literature.ErrSearchInvalid, resp.Result.Count)
		}
	}

	ids := resp.Result.IDList
	if len(ids) > query.MaxCount {
		ids = ids[:query.MaxCount]
	}
	return count, ids, nil
}

// efetchTitles downloads MEDLINE records for the ids and maps PMID to title.
// PMIDs with no record or no TI field are absent from the map.
func (a *Adapter) efetchTitles(ctx context.Context, ids []string) (map[string]string, error) {
	params := url.Values{}
	params.Set("db", a.config.Database)
	params.Set("id", strings.Join(ids, ","))
	params.Set("rettype", "medline")
	params.Set("retmode", "text")

	body, err := a.doRequest(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}

	records, err := ParseMedline(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", literature.ErrSearchInvalid, err)
	}

	titles := make(map[string]string, len(records))
	for _, rec := range records {
		pmid := rec.Get(TagPMID)
		if pmid == "" {
			continue
		}
		if _, seen := titles[pmid]; !seen {
			titles[pmid] = rec.Get(TagTitle)
		}
	}
	return titles, nil
}

// doRequest calls one E-utility with the common identification parameters
func (a *Adapter) doRequest(ctx context.Context, utility string, params url.Values) ([]byte, error) {
	params.Set("tool", a.config.Tool)
	params.Set("email", a.config.Email)
	if a.config.APIKey != "" {
		params.Set("api_key", a.config.APIKey)
	}

	endpoint := a.config.BaseURL + utility + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("pubmed: failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", literature.ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("pubmed: failed to read response: %w", err)
	}

	// Check for HTTP errors
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s HTTP %d", literature.ErrSearchRequestFailed, utility, resp.StatusCode)
	}

	return body, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

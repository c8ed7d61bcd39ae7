package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/interfaces/http/dto"
)

// DashboardService is the application service behind the dashboard routes
type DashboardService interface {
	Ready() bool
	LastRefreshed() (time.Time, bool)
	Countries() []vaccination.Country
	CountryView(nameOrCode string) (*dashboard.CountryView, error)
	Chart(nameOrCode string) ([]byte, error)
	Publications(ctx context.Context, q literature.Query) (*literature.SearchResult, error)
	Page(ctx context.Context, name string) (*dashboard.PageView, error)
}

// Compile-time interface check
var _ DashboardService = (*dashboard.Service)(nil)

// DashboardHandler serves the JSON dashboard API
type DashboardHandler struct {
	BaseHandler
	service      DashboardService
	defaultQuery literature.Query
}

// NewDashboardHandler creates a dashboard API handler. defaultQuery fills in
// the term and max count a publications request leaves out.
func NewDashboardHandler(service DashboardService, defaultQuery literature.Query) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		defaultQuery: defaultQuery,
	}
}

// CountryResponse is one selectable country
type CountryResponse struct {
	vaccination.Country
	Default bool `json:"default"`
}

// ListCountries returns the selectable countries in display order
func (h *DashboardHandler) ListCountries(c *gin.Context) {
	countries := h.service.Countries()
	out := make([]CountryResponse, len(countries))
	for i, country := range countries {
		out[i] = CountryResponse{Country: country, Default: i == 0}
	}
	h.SuccessWithMeta(c, out, &dto.Meta{Total: len(out), FetchedAt: h.fetchedAt()})
}

// GetVaccinations returns the series, summary and approvals of one country
func (h *DashboardHandler) GetVaccinations(c *gin.Context) {
	var uri dto.CountryURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.ValidationError(c, err)
		return
	}

	view, err := h.service.CountryView(uri.Country)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, view, &dto.Meta{Total: view.Series.Len(), FetchedAt: &view.FetchedAt})
}

// SearchPublications runs a PubMed search
func (h *DashboardHandler) SearchPublications(c *gin.Context) {
	var req dto.PublicationsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	term := req.Term
	if term == "" {
		term = h.defaultQuery.Term
	}
	maxCount := req.MaxCount
	if maxCount == 0 {
		maxCount = h.defaultQuery.MaxCount
	}
	query, err := literature.NewQuery(term, maxCount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.service.Publications(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result, &dto.Meta{Total: result.Count})
}

func (h *DashboardHandler) fetchedAt() *time.Time {
	if t, ok := h.service.LastRefreshed(); ok {
		return &t
	}
	return nil
}

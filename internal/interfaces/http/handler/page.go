package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/interfaces/http/dto"
	"github.com/vaxdash/backend/internal/interfaces/http/middleware"
)

// Template names
const (
	TemplateDashboard = "dashboard.html"
	TemplateError     = "error.html"
)

const displayDateLayout = "2 Jan 2006"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the page templates for gin's HTML renderer
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

// pageLanguages are the locales numbers can be formatted for; the first is
// the fallback
var pageLanguages = language.NewMatcher([]language.Tag{
	language.English,
	language.Thai,
	language.Malay,
})

// PageHandler serves the HTML dashboard and the standalone chart
type PageHandler struct {
	BaseHandler
	service DashboardService
}

// NewPageHandler creates a page handler
func NewPageHandler(service DashboardService) *PageHandler {
	return &PageHandler{service: service}
}

// dashboardData is the template data of the dashboard page. Numbers are
// formatted for the negotiated language.
type dashboardData struct {
	Page      *dashboard.PageView
	Lang      string
	Chart     template.HTML
	Points    string
	Latest    string
	Peak      string
	PeakDate  string
	Mean      string
	Total     string
	FetchedAt string
	LinkLabel string
}

type errorData struct {
	Title     string
	Message   string
	Countries []vaccination.Country
	RequestID string
}

// Dashboard renders the dashboard page for ?country=, the first catalog
// country when absent. An unknown country renders a 400 page listing the
// valid choices.
func (h *PageHandler) Dashboard(c *gin.Context) {
	var q dto.CountryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.renderError(c, http.StatusBadRequest, "Unknown country", "Please pick one of the countries below.", true)
		return
	}

	page, err := h.service.Page(c.Request.Context(), q.Country)
	if err != nil {
		code, status, message := mapError(err)
		if code == dto.ErrCodeNotFound {
			h.renderError(c, http.StatusBadRequest, "Unknown country",
				q.Country+" is not available on this dashboard.", true)
			return
		}
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		h.renderError(c, status, http.StatusText(status), message, false)
		return
	}

	otelgin.HTML(c, http.StatusOK, TemplateDashboard, newDashboardData(page, c.GetHeader("Accept-Language")))
}

func newDashboardData(page *dashboard.PageView, acceptLanguage string) dashboardData {
	tag, _ := language.MatchStrings(pageLanguages, acceptLanguage)
	p := message.NewPrinter(tag)
	base, _ := tag.Base()

	data := dashboardData{
		Page:      page,
		Lang:      base.String(),
		Chart:     template.HTML(page.ChartSVG), // generated by the chart renderer, never user input
		Points:    p.Sprintf("%d", page.Summary.Points),
		Latest:    p.Sprintf("%.2f", page.Summary.Latest.InexactFloat64()),
		Peak:      p.Sprintf("%.2f", page.Summary.Peak.InexactFloat64()),
		Mean:      p.Sprintf("%.2f", page.Summary.Mean.InexactFloat64()),
		Total:     p.Sprintf("%d", page.PublicationsTotal),
		FetchedAt: page.FetchedAt.UTC().Format(displayDateLayout + " 15:04 MST"),
		LinkLabel: dashboard.LinkLabel,
	}
	if page.Summary.PeakDate != nil {
		data.PeakDate = page.Summary.PeakDate.Format(displayDateLayout)
	}
	return data
}

func (h *PageHandler) renderError(c *gin.Context, status int, title, message string, listCountries bool) {
	data := errorData{
		Title:     title,
		Message:   message,
		RequestID: middleware.GetRequestID(c),
	}
	if listCountries {
		data.Countries = h.service.Countries()
	}
	c.HTML(status, TemplateError, data)
}

// ChartSVG serves the chart of ?country= as an SVG image
func (h *PageHandler) ChartSVG(c *gin.Context) {
	var q dto.CountryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}
	country := q.Country
	if country == "" {
		if all := h.service.Countries(); len(all) > 0 {
			country = all[0].Name
		}
	}

	svg, err := h.service.Chart(country)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

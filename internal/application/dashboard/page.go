package dashboard

import (
	"fmt"
	"time"

	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
)

// Page texts
const (
	PageTitle       = "COVID-19 vaccinations dashboard"
	PageDescription = "This dashboard shows the number of vaccinations that have been delivered in " +
		"Australia, Thailand, Malaysia or New Zealand. Information on the vaccines approved in each " +
		"country as well as the latest scientific publications on COVID-19 vaccines (from PubMed) are also shown."
	PageInstructions = "Select your country of choice from the drop-down list. " +
		"The x-axis shows the dates while the y-axis shows the number of vaccines administered (per million)."
	SelectorLabel      = "Select country to display data"
	PublicationsNote   = "Note: This list of publications is updated every time this dashboard is refreshed"
	PublicationsFailed = "Publications are currently unavailable"
	LinkLabel          = "Link to PubMed"
)

// CountryOption is one entry of the country selector
type CountryOption struct {
	Name     string
	ISOCode  string
	Selected bool
}

// NumberedPublication is one line of the publication list, numbered from 1
type NumberedPublication struct {
	Number int
	Title  string
	URL    string
}

// PageView is everything the dashboard page displays
type PageView struct {
	Title        string
	Description  string
	Instructions string

	SelectorLabel string
	Countries     []CountryOption
	Selected      vaccination.Country

	ApprovalsLine string
	Summary       vaccination.SeriesSummary
	ChartSVG      []byte
	ChartError    string

	PublicationsHeading string
	PublicationsNote    string
	PublicationsTotal   int
	Publications        []NumberedPublication
	PublicationsError   string

	FetchedAt time.Time
}

// ApprovalsLine formats the approved vaccines of a country
func ApprovalsLine(country vaccination.Country, approvals vaccination.Approvals) string {
	return fmt.Sprintf("Vaccines approved in %s: %s", country.Name, approvals.For(country.ISOCode))
}

// PublicationsHeading formats the title above the publication list
func PublicationsHeading(q literature.Query) string {
	return fmt.Sprintf("The %d latest publications related to %s from PubMed.gov", q.MaxCount, q.Term)
}

// NumberPublications numbers publications from 1 in list order
func NumberPublications(pubs []literature.Publication) []NumberedPublication {
	out := make([]NumberedPublication, len(pubs))
	for i, p := range pubs {
		out[i] = NumberedPublication{Number: i + 1, Title: p.Title, URL: p.URL}
	}
	return out
}

// MarkdownLine renders a publication as "n. title [Link to PubMed](url)"
func (p NumberedPublication) MarkdownLine() string {
	return fmt.Sprintf("%d. %s [%s](%s)", p.Number, p.Title, LinkLabel, p.URL)
}

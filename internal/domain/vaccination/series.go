package vaccination

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the date format used by the source data
const DateLayout = "2006-01-02"

// MinChartPoints is the smallest series that can be drawn as a line
const MinChartPoints = 2

// Observation is one day of new vaccinations (7-day smoothed, per million people)
type Observation struct {
	Date       time.Time `json:"date"`
	PerMillion float64   `json:"per_million"`
}

// Series is the vaccination time series of one country.
// Observations keep the order delivered by the source.
type Series struct {
	Country      Country       `json:"country"`
	Observations []Observation `json:"observations"`
}

// NewSeries creates a series for a country
func NewSeries(country Country, observations []Observation) *Series {
	return &Series{
		Country:      country,
		Observations: observations,
	}
}

// Len returns the number of observations
func (s *Series) Len() int {
	return len(s.Observations)
}

// Chartable reports whether the series has enough points to draw a line
func (s *Series) Chartable() bool {
	return len(s.Observations) >= MinChartPoints
}

// Dates returns the observation dates
func (s *Series) Dates() []time.Time {
	dates := make([]time.Time, len(s.Observations))
	for i, o := range s.Observations {
		dates[i] = o.Date
	}
	return dates
}

// Values returns the observation values
func (s *Series) Values() []float64 {
	values := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		values[i] = o.PerMillion
	}
	return values
}

// SeriesSummary holds headline figures for a series, rounded to two decimals
type SeriesSummary struct {
	Points   int             `json:"points"`
	First    *time.Time      `json:"first,omitempty"`
	Last     *time.Time      `json:"last,omitempty"`
	Latest   decimal.Decimal `json:"latest"`
	Peak     decimal.Decimal `json:"peak"`
	PeakDate *time.Time      `json:"peak_date,omitempty"`
	Mean     decimal.Decimal `json:"mean"`
}

// Summary computes the headline figures of the series
func (s *Series) Summary() SeriesSummary {
	summary := SeriesSummary{
		Points: len(s.Observations),
		Latest: decimal.Zero,
		Peak:   decimal.Zero,
		Mean:   decimal.Zero,
	}
	if len(s.Observations) == 0 {
		return summary
	}

	first := s.Observations[0].Date
	last := s.Observations[len(s.Observations)-1].Date
	summary.First = &first
	summary.Last = &last
	summary.Latest = decimal.NewFromFloat(s.Observations[len(s.Observations)-1].PerMillion).Round(2)

	total := decimal.Zero
	peakIdx := 0
	for i, o := range s.Observations {
		total = total.Add(decimal.NewFromFloat(o.PerMillion))
		if o.PerMillion > s.Observations[peakIdx].PerMillion {
			peakIdx = i
		}
	}
	peakDate := s.Observations[peakIdx].Date
	summary.Peak = decimal.NewFromFloat(s.Observations[peakIdx].PerMillion).Round(2)
	summary.PeakDate = &peakDate
	summary.Mean = total.Div(decimal.NewFromInt(int64(len(s.Observations)))).Round(2)

	return summary
}

// RawRecord is a source row before reshaping. PerMillion is nil when the
// source has no value for that day.
type RawRecord struct {
	Date       string
	PerMillion *float64
}

// Dataset is a complete snapshot of everything the dashboard displays
// about vaccinations
type Dataset struct {
	Series    map[string]*Series // keyed by ISO code
	Approvals Approvals
	FetchedAt time.Time
}

// SeriesFor returns the series of a country, or an empty series when the
// reshaped data has no rows for it
func (d *Dataset) SeriesFor(country Country) *Series {
	if s, ok := d.Series[country.ISOCode]; ok {
		return s
	}
	return NewSeries(country, nil)
}

// Package frame reshapes raw per-country records into chartable series
// using data frames.
package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/vaxdash/backend/internal/domain/vaccination"
)

// Column names of the combined frame
const (
	ColDates    = "Dates"
	ColVaccines = "Vaccines"
	ColCountry  = "Country"
)

// CountryFrame builds the three-column frame of one country. Missing values
// are stored as NaN.
func CountryFrame(iso string, records []vaccination.RawRecord) dataframe.DataFrame {
	dates := make([]string, len(records))
	values := make([]float64, len(records))
	countries := make([]string, len(records))
	for i, r := range records {
		dates[i] = r.Date
		countries[i] = iso
		if r.PerMillion == nil {
			values[i] = math.NaN()
		} else {
			values[i] = *r.PerMillion
		}
	}

	return dataframe.New(
		series.New(dates, series.String, ColDates),
		series.New(values, series.Float, ColVaccines),
		series.New(countries, series.String, ColCountry),
	)
}

// Combine concatenates the frames of the given countries in catalog order.
// Countries without records contribute no rows. The boolean result is false
// when no country has any rows.
func Combine(countries []vaccination.Country, records map[string][]vaccination.RawRecord) (dataframe.DataFrame, bool, error) {
	var (
		combined dataframe.DataFrame
		started  bool
	)
	for _, c := range countries {
		rows := records[c.ISOCode]
		if len(rows) == 0 {
			continue
		}
		df := CountryFrame(c.ISOCode, rows)
		if !started {
			combined = df
			started = true
		} else {
			combined = combined.RBind(df)
		}
		if combined.Err != nil {
			return dataframe.DataFrame{}, false, fmt.Errorf("frame: concat %s: %w", c.ISOCode, combined.Err)
		}
	}
	return combined, started, nil
}

// DropMissing removes the rows whose Vaccines value is missing
func DropMissing(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	out := df.Filter(dataframe.F{
		Colname:    ColVaccines,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return !el.IsNA() && !math.IsNaN(el.Float())
		},
	})
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("frame: drop missing: %w", out.Err)
	}
	return out, nil
}

// ParseDates casts the Dates column. Any malformed date fails the whole frame.
func ParseDates(df dataframe.DataFrame) ([]time.Time, error) {
	raw := df.Col(ColDates).Records()
	dates := make([]time.Time, len(raw))
	for i, s := range raw {
		d, err := time.Parse(vaccination.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %q", vaccination.ErrInvalidDate, i+1, s)
		}
		dates[i] = d
	}
	return dates, nil
}

// Reshape turns the raw records of each country into a series. Every
// country in countries gets an entry, possibly empty.
func Reshape(countries []vaccination.Country, records map[string][]vaccination.RawRecord) (map[string]*vaccination.Series, error) {
	out := make(map[string]*vaccination.Series, len(countries))
	for _, c := range countries {
		out[c.ISOCode] = vaccination.NewSeries(c, []vaccination.Observation{})
	}

	combined, ok, err := Combine(countries, records)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}

	if _, err := ParseDates(combined); err != nil {
		return nil, err
	}

	cleaned, err := DropMissing(combined)
	if err != nil {
		return nil, err
	}
	if cleaned.Nrow() == 0 {
		return out, nil
	}

	dates, err := ParseDates(cleaned)
	if err != nil {
		return nil, err
	}
	values := cleaned.Col(ColVaccines).Float()
	isos := cleaned.Col(ColCountry).Records()

	for i := range isos {
		s, ok := out[isos[i]]
		if !ok {
			continue
		}
		s.Observations = append(s.Observations, vaccination.Observation{
			Date:       dates[i],
			PerMillion: values[i],
		})
	}
	return out, nil
}

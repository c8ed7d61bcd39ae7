package frame

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxdash/backend/internal/domain/vaccination"
)

func f(v float64) *float64 { return &v }

func day(s string) time.Time {
	d, _ := time.Parse(vaccination.DateLayout, s)
	return d
}

var (
	thailand  = vaccination.Country{ISOCode: "THA", Name: "Thailand", Color: "#ff0000"}
	australia = vaccination.Country{ISOCode: "AUS", Name: "Australia", Color: "#008000"}
	malaysia  = vaccination.Country{ISOCode: "MYS", Name: "Malaysia", Color: "#0000ff"}
)

func TestCountryFrame(t *testing.T) {
	df := CountryFrame("THA", []vaccination.RawRecord{
		{Date: "2021-03-01", PerMillion: f(1.5)},
		{Date: "2021-03-02"},
	})
	require.NoError(t, df.Err)

	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []string{ColDates, ColVaccines, ColCountry}, df.Names())
	values := df.Col(ColVaccines).Float()
	assert.Equal(t, 1.5, values[0])
	assert.True(t, math.IsNaN(values[1]))
	assert.Equal(t, []string{"THA", "THA"}, df.Col(ColCountry).Records())
}

func TestCombineAndDropMissing(t *testing.T) {
	records := map[string][]vaccination.RawRecord{
		"THA": {{Date: "2021-03-01", PerMillion: f(1)}, {Date: "2021-03-02"}},
		"AUS": {{Date: "2021-03-01"}, {Date: "2021-03-02", PerMillion: f(2)}},
	}

	combined, ok, err := Combine([]vaccination.Country{thailand, australia, malaysia}, records)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, combined.Nrow())
	assert.Equal(t, []string{"THA", "THA", "AUS", "AUS"}, combined.Col(ColCountry).Records())

	cleaned, err := DropMissing(combined)
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Nrow())
	assert.Equal(t, []float64{1, 2}, cleaned.Col(ColVaccines).Float())
}

func TestCombine_NoRows(t *testing.T) {
	_, ok, err := Combine([]vaccination.Country{thailand}, map[string][]vaccination.RawRecord{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReshape(t *testing.T) {
	records := map[string][]vaccination.RawRecord{
		"THA": {
			{Date: "2021-02-28"},
			{Date: "2021-03-01", PerMillion: f(12.5)},
			{Date: "2021-03-02", PerMillion: f(30.25)},
		},
		"AUS": {
			{Date: "2021-02-22", PerMillion: f(4)},
		},
		"NZL": {
			{Date: "2021-02-22", PerMillion: f(9)},
		},
	}

	out, err := Reshape([]vaccination.Country{thailand, australia, malaysia}, records)
	require.NoError(t, err)
	require.Len(t, out, 3)

	tha := out["THA"]
	assert.Equal(t, thailand, tha.Country)
	assert.Equal(t, []time.Time{day("2021-03-01"), day("2021-03-02")}, tha.Dates())
	assert.Equal(t, []float64{12.5, 30.25}, tha.Values())
	assert.True(t, tha.Chartable())

	assert.Equal(t, 1, out["AUS"].Len())
	assert.False(t, out["AUS"].Chartable())

	assert.Equal(t, 0, out["MYS"].Len())
	assert.NotContains(t, out, "NZL")
}

func TestReshape_AllMissing(t *testing.T) {
	out, err := Reshape([]vaccination.Country{thailand}, map[string][]vaccination.RawRecord{
		"THA": {{Date: "2021-03-01"}, {Date: "2021-03-02"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out["THA"].Len())
}

func TestReshape_InvalidDate(t *testing.T) {
	tests := []struct {
		name    string
		records []vaccination.RawRecord
	}{
		{name: "bad value row", records: []vaccination.RawRecord{{Date: "01/03/2021", PerMillion: f(1)}}},
		{name: "bad missing row", records: []vaccination.RawRecord{{Date: "2021-03-01", PerMillion: f(1)}, {Date: "yesterday"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reshape([]vaccination.Country{thailand}, map[string][]vaccination.RawRecord{"THA": tt.records})
			assert.ErrorIs(t, err, vaccination.ErrInvalidDate)
		})
	}
}

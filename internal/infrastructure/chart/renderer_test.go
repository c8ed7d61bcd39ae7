package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/vaxdash/backend/internal/domain/vaccination"
)

var thailand = vaccination.Country{ISOCode: "THA", Name: "Thailand", Color: "#ff0000"}

func observations(values ...float64) []vaccination.Observation {
	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]vaccination.Observation, len(values))
	for i, v := range values {
		out[i] = vaccination.Observation{Date: start.AddDate(0, 0, i), PerMillion: v}
	}
	return out
}

func TestRenderer_SVG(t *testing.T) {
	r := NewRenderer()
	svg, err := r.SVG(vaccination.NewSeries(thailand, observations(10, 250.5, 120.125)))
	require.NoError(t, err)

	out := string(svg)
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, YAxisTitle)
	assert.Contains(t, out, "Thailand")
	assert.Contains(t, out, Color("#ff0000").String())
	assert.Contains(t, out, `width="960"`)
}

func TestRenderer_WithSize(t *testing.T) {
	r := NewRenderer(WithSize(400, 0))
	assert.Equal(t, 400, r.width)
	assert.Equal(t, DefaultHeight, r.height)

	var buf bytes.Buffer
	require.NoError(t, r.RenderSVG(&buf, vaccination.NewSeries(thailand, observations(1, 2))))
	assert.Contains(t, buf.String(), `width="400"`)
}

func TestRenderer_InsufficientData(t *testing.T) {
	r := NewRenderer()
	sameDay := []vaccination.Observation{
		{Date: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), PerMillion: 1},
		{Date: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), PerMillion: 2},
	}

	tests := []struct {
		name   string
		series *vaccination.Series
	}{
		{name: "nil", series: nil},
		{name: "empty", series: vaccination.NewSeries(thailand, nil)},
		{name: "single point", series: vaccination.NewSeries(thailand, observations(5))},
		{name: "single day", series: vaccination.NewSeries(thailand, sameDay)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.SVG(tt.series)
			assert.ErrorIs(t, err, vaccination.ErrInsufficientData)
		})
	}
}

func TestRenderer_FlatSeries(t *testing.T) {
	r := NewRenderer()
	_, err := r.SVG(vaccination.NewSeries(thailand, observations(0, 0, 0)))
	assert.NoError(t, err)

	_, err = r.SVG(vaccination.NewSeries(thailand, observations(7, 7)))
	assert.NoError(t, err)
}

func TestFlatRange(t *testing.T) {
	assert.Nil(t, flatRange([]float64{1, 2}))

	rng, ok := flatRange([]float64{0, 0}).(*gochart.ContinuousRange)
	require.True(t, ok)
	assert.Equal(t, 0.0, rng.Min)
	assert.Equal(t, 1.0, rng.Max)

	rng, ok = flatRange([]float64{5, 5}).(*gochart.ContinuousRange)
	require.True(t, ok)
	assert.Equal(t, 0.0, rng.Min)
	assert.Equal(t, 10.0, rng.Max)
}

// Package chart draws vaccination series as SVG line charts.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vaxdash/backend/internal/domain/vaccination"
)

const (
	// DefaultWidth of the rendered chart in pixels
	DefaultWidth = 960
	// DefaultHeight of the rendered chart in pixels
	DefaultHeight = 480
	// LineWidth is the stroke width of the series line
	LineWidth = 3.0
	// YAxisTitle labels the value axis
	YAxisTitle = "Number of vaccines administered (per million)"
	// XAxisTitle labels the date axis
	XAxisTitle = "Date"
)

// Renderer renders series with fixed dimensions
type Renderer struct {
	width  int
	height int
}

// Option is a functional option for Renderer
type Option func(*Renderer)

// WithSize sets the chart dimensions. Non-positive values keep the default.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
		if height > 0 {
			r.height = height
		}
	}
}

// NewRenderer creates a renderer
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:  DefaultWidth,
		height: DefaultHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderSVG writes the series as an SVG document. A series with fewer than
// two points, or spanning a single day, returns vaccination.ErrInsufficientData.
func (r *Renderer) RenderSVG(w io.Writer, s *vaccination.Series) error {
	if s == nil || !s.Chartable() {
		return fmt.Errorf("%w: %d points", vaccination.ErrInsufficientData, seriesLen(s))
	}
	dates := s.Dates()
	if dates[0].Equal(dates[len(dates)-1]) {
		return fmt.Errorf("%w: single day", vaccination.ErrInsufficientData)
	}

	values := s.Values()
	graph := gochart.Chart{
		Width:  r.width,
		Height: r.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           XAxisTitle,
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		YAxis: gochart.YAxis{
			Name:  YAxisTitle,
			Range: flatRange(values),
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    s.Country.Name,
				XValues: dates,
				YValues: values,
				Style: gochart.Style{
					StrokeColor: Color(s.Country.Color),
					StrokeWidth: LineWidth,
				},
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("chart: render %s: %w", s.Country.ISOCode, err)
	}
	return nil
}

// SVG renders the series into memory
func (r *Renderer) SVG(s *vaccination.Series) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderSVG(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Color converts a "#rrggbb" country colour
func Color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// flatRange widens the y-axis of a constant series, which would otherwise
// have a zero range
func flatRange(values []float64) gochart.Range {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi > lo {
		return nil
	}
	if lo == 0 {
		return &gochart.ContinuousRange{Min: 0, Max: 1}
	}
	return &gochart.ContinuousRange{Min: lo - math.Abs(lo), Max: hi + math.Abs(hi)}
}

func seriesLen(s *vaccination.Series) int {
	if s == nil {
		return 0
	}
	return s.Len()
}

// Package geometry turns chart models into drawable primitives: SVG path
// strings, rectangles, arc segments and axis ticks. Every generator is a pure
// function of (model, viewport); the Panel type adds the resize-driven
// recomputation used by interactive renderers.
//
// Degenerate input never panics and never produces NaN coordinates. Empty
// models yield empty paths and empty primitive lists.
package geometry

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/derickschaefer/yojitsu/internal/util"
)

// ─── Viewport ─────────────────────────────────────────────────────────────────

// Padding is the space reserved around the plot area for axes and labels.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Viewport is the measured size of a chart container.
type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding Padding `json:"padding"`
}

// PlotWidth is the horizontal extent of the plot area, never negative.
func (v Viewport) PlotWidth() float64 {
	return math.Max(v.Width-v.Padding.Left-v.Padding.Right, 0)
}

// PlotHeight is the vertical extent of the plot area, never negative.
func (v Viewport) PlotHeight() float64 {
	return math.Max(v.Height-v.Padding.Top-v.Padding.Bottom, 0)
}

// CartesianPadding is the padding used by line and bar charts.
var CartesianPadding = Padding{Top: 20, Right: 20, Bottom: 40, Left: 70}

// DefaultCartesian returns the viewport line and bar charts use before the
// first measurement.
func DefaultCartesian() Viewport {
	return Viewport{Width: 800, Height: 300, Padding: CartesianPadding}
}

// DefaultPie returns the viewport pie charts use before the first
// measurement.
func DefaultPie() Viewport {
	return Viewport{Width: 400, Height: 400}
}

// ─── Shared primitives ────────────────────────────────────────────────────────

// Tick is a positioned axis mark. Pos is measured along the axis inside the
// plot area (x for horizontal axes, y for vertical axes).
type Tick struct {
	Pos   float64 `json:"pos"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// LegendItem is one entry of a chart legend.
type LegendItem struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// FormatNumber renders v with thousands separators and at most two decimal
// places, the way axis and value labels are shown.
func FormatNumber(v float64) string {
	if !util.Finite(v) {
		return "."
	}
	return humanize.CommafWithDigits(math.Round(v*100)/100, 2)
}

// num formats a coordinate for SVG path data.
func num(v float64) string {
	if !util.Finite(v) {
		v = 0
	}
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // normalize negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// clampFinite replaces non-finite values with fallback.
func clampFinite(v, fallback float64) float64 {
	if !util.Finite(v) {
		return fallback
	}
	return v
}

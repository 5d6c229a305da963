// Package export writes computed charts to files a browser can open: SVG
// drawn straight from the geometry, and interactive HTML built with
// go-echarts from the chart models.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/derickschaefer/yojitsu/internal/geometry"
)

const (
	globalStyle  = "font-family:Hiragino Sans,Noto Sans JP,sans-serif;font-size:11px;fill:#374151"
	titleStyle   = "text-anchor:middle;font-size:14px;font-weight:bold"
	gridStyle    = "stroke:#e5e7eb;stroke-width:1"
	axisStyle    = "stroke:#9ca3af;stroke-width:1"
	tickLabelY   = "text-anchor:end;baseline-shift:-33.3%"
	tickLabelX   = "text-anchor:middle"
	legendSwatch = 10
	legendGap    = 90
	lineHeight   = 14
)

// ErrEmptyLayout is returned when a layout carries no geometry.
var ErrEmptyLayout = errors.New("layout has no geometry")

// SVGOptions tune SVG output.
type SVGOptions struct {
	// Caption lines are drawn in the middle of pie and donut charts.
	Caption []string
}

// WriteSVG draws l onto w as a standalone SVG document.
func WriteSVG(w io.Writer, l geometry.Layout, o SVGOptions) error {
	switch {
	case l.Line != nil:
		writeLine(svg.New(w), l.Line)
	case l.Bar != nil:
		writeBar(svg.New(w), l.Bar)
	case l.Pie != nil:
		writePie(svg.New(w), l.Pie, o.Caption)
	default:
		return fmt.Errorf("%w: %s", ErrEmptyLayout, l.Kind)
	}
	slog.Debug("svg written", "kind", l.Kind)
	return nil
}

// ─── Line ─────────────────────────────────────────────────────────────────────

func writeLine(canvas *svg.SVG, l *geometry.LineLayout) {
	vp := l.Viewport
	pw, ph := px(vp.PlotWidth()), px(vp.PlotHeight())
	begin(canvas, vp, l.Config.Title)

	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", px(vp.Padding.Left), px(vp.Padding.Top)))
	for _, y := range l.GridLines {
		canvas.Line(0, px(y), pw, px(y), gridStyle)
	}
	axes(canvas, pw, ph)
	for _, t := range l.YTicks {
		canvas.Text(-6, px(t.Pos), t.Label, tickLabelY)
	}
	for _, t := range l.XTicks {
		canvas.Line(px(t.Pos), ph, px(t.Pos), ph+4, axisStyle)
	}
	for _, t := range l.XLabels {
		canvas.Text(px(t.Pos), ph+lineHeight+2, t.Label, tickLabelX)
	}
	axisLabels(canvas, pw, ph, l.Config.XAxisLabel, l.Config.YAxisLabel)

	for _, s := range l.Series {
		if s.Area != "" {
			canvas.Path(s.Area, "class=\"area\"", fmt.Sprintf("fill:%s;fill-opacity:0.08;stroke:none", s.Color))
		}
	}
	for _, s := range l.Series {
		style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g;stroke-linejoin:round", s.Color, lineWidth(s.LineWidth))
		if s.Dashed {
			style += ";stroke-dasharray:6,4"
		}
		canvas.Path(polylinePath(s.Points), "class=\"series\"", style)
		for _, m := range s.Markers {
			canvas.Circle(px(m.X), px(m.Y), 3, fmt.Sprintf("fill:%s;stroke:#fff;stroke-width:1", s.Color))
		}
	}
	canvas.Gend()

	legend(canvas, vp.Width, vp.Height, l.Legend)
	canvas.Gend()
	canvas.End()
}

// ─── Bar ──────────────────────────────────────────────────────────────────────

func writeBar(canvas *svg.SVG, b *geometry.BarLayout) {
	vp := b.Viewport
	pw, ph := px(vp.PlotWidth()), px(vp.PlotHeight())
	begin(canvas, vp, b.Config.Title)

	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", px(vp.Padding.Left), px(vp.Padding.Top)))
	for _, y := range b.GridLines {
		canvas.Line(0, px(y), pw, px(y), gridStyle)
	}
	axes(canvas, pw, ph)
	for _, t := range b.YTicks {
		canvas.Text(-6, px(t.Pos), t.Label, tickLabelY)
	}
	for _, g := range b.Groups {
		for _, r := range g.Bars {
			canvas.Rect(px(r.X), px(r.Y), px(r.Width), px(r.Height), "class=\"bar\"", "fill:"+r.Color)
		}
		canvas.Text(px(g.LabelX), ph+lineHeight+2, g.Category, tickLabelX)
	}
	axisLabels(canvas, pw, ph, b.Config.XAxisLabel, b.Config.YAxisLabel)
	canvas.Gend()

	legend(canvas, vp.Width, vp.Height, b.Legend)
	canvas.Gend()
	canvas.End()
}

// ─── Pie ──────────────────────────────────────────────────────────────────────

func writePie(canvas *svg.SVG, p *geometry.PieLayout, caption []string) {
	vp := geometry.Viewport{Width: p.Size, Height: p.Size + float64(legendRows(p.Legend)*lineHeight*2)}
	begin(canvas, vp, p.Config.Title)

	for _, a := range p.Arcs {
		canvas.Path(a.Path, "class=\"arc\"", fmt.Sprintf("fill:%s;stroke:#fff;stroke-width:1", a.Color))
	}
	for _, a := range p.Arcs {
		if !a.ShowLabel {
			continue
		}
		for i, line := range strings.Split(a.LabelText, "\n") {
			canvas.Text(px(a.LabelX), px(a.LabelY)+i*lineHeight, line, "text-anchor:middle;fill:#fff;font-weight:bold")
		}
	}
	cy := px(p.CenterY) - (len(caption)-1)*lineHeight/2
	for i, line := range caption {
		style := "text-anchor:middle"
		if i == 0 {
			style += ";font-size:20px;font-weight:bold"
		}
		canvas.Text(px(p.CenterX), cy+i*lineHeight*3/2, line, style)
	}

	legend(canvas, vp.Width, vp.Height, p.Legend)
	canvas.Gend()
	canvas.End()
}

// ─── Shared pieces ────────────────────────────────────────────────────────────

func begin(canvas *svg.SVG, vp geometry.Viewport, title string) {
	w, h := px(vp.Width), px(vp.Height)
	canvas.Start(w, h)
	if title != "" {
		canvas.Title(title)
	}
	canvas.Rect(0, 0, w, h, "fill:#ffffff")
	canvas.Gstyle(globalStyle)
	if title != "" {
		canvas.Text(w/2, lineHeight+2, title, titleStyle)
	}
}

func axes(canvas *svg.SVG, pw, ph int) {
	canvas.Line(0, 0, 0, ph, axisStyle)
	canvas.Line(0, ph, pw, ph, axisStyle)
}

func axisLabels(canvas *svg.SVG, pw, ph int, x, y string) {
	if x != "" {
		canvas.Text(pw/2, ph+lineHeight*2+6, x, tickLabelX)
	}
	if y != "" {
		canvas.Text(0, -8, y, "text-anchor:start")
	}
}

// legend draws one row of swatches along the bottom edge.
func legend(canvas *svg.SVG, width, height float64, items []geometry.LegendItem) {
	if len(items) == 0 {
		return
	}
	total := len(items) * legendGap
	x := (px(width) - total) / 2
	y := px(height) - lineHeight
	for _, it := range items {
		canvas.Rect(x, y-legendSwatch+1, legendSwatch, legendSwatch, "fill:"+it.Color)
		canvas.Text(x+legendSwatch+4, y, it.Label)
		x += legendGap
	}
}

func legendRows(items []geometry.LegendItem) int {
	if len(items) == 0 {
		return 0
	}
	return 1
}

// polylinePath turns "x,y x,y" point lists into path data.
func polylinePath(points string) string {
	if points == "" {
		return "M 0,0"
	}
	return "M " + strings.ReplaceAll(points, " ", " L ")
}

func lineWidth(w float64) float64 {
	if w <= 0 {
		return 2
	}
	return w
}

func px(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

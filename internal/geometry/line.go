package geometry

import (
	"fmt"
	"strings"
	"time"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/scale"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// Marker is a data point drawn on a line, with its tooltip text.
type Marker struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Time    string  `json:"time"`
	Value   float64 `json:"value"`
	Tooltip string  `json:"tooltip"`
}

// LinePath is the drawable form of one line series.
type LinePath struct {
	Name      string   `json:"name"`
	Color     string   `json:"color"`
	LineWidth float64  `json:"line_width"`
	Dashed    bool     `json:"dashed,omitempty"`
	Points    string   `json:"points"`
	Area      string   `json:"area"`
	Markers   []Marker `json:"markers,omitempty"`
}

// LineLayout is the complete geometry of a line chart. Coordinates are
// relative to the plot area origin (top-left, inside the padding).
type LineLayout struct {
	Viewport  Viewport          `json:"viewport"`
	Range     scale.Range       `json:"range"`
	Domain    scale.TimeDomain  `json:"domain"`
	Series    []LinePath        `json:"series"`
	XTicks    []Tick            `json:"x_ticks"`
	XLabels   []Tick            `json:"x_labels"`
	YTicks    []Tick            `json:"y_ticks"`
	GridLines []float64         `json:"grid_lines,omitempty"`
	Legend    []LegendItem      `json:"legend,omitempty"`
	Config    model.ChartConfig `json:"config"`
}

// lineMapper converts data space into plot space.
type lineMapper struct {
	vp     Viewport
	rng    scale.Range
	domain scale.TimeDomain
}

func (m lineMapper) x(t time.Time) float64 {
	frac := float64(t.Sub(m.domain.Start)) / float64(m.domain.Span())
	return clampFinite(frac*m.vp.PlotWidth(), 0)
}

func (m lineMapper) y(v float64) float64 {
	h := m.vp.PlotHeight()
	return clampFinite(h-(v-m.rng.Min)/m.rng.Span()*h, h)
}

// Line computes the geometry of a line chart. now anchors the empty-data
// time domain; loc is the zone hour ticks are labelled in.
func Line(m model.ChartModel, vp Viewport, now time.Time, loc *time.Location) LineLayout {
	if loc == nil {
		loc = time.UTC
	}
	mp := lineMapper{
		vp:     vp,
		rng:    scale.ModelRange(m),
		domain: scale.ModelTimeRange(m, now, loc),
	}
	out := LineLayout{
		Viewport: vp,
		Range:    mp.rng,
		Domain:   mp.domain,
		Series:   make([]LinePath, 0, len(m.Series)),
		Config:   m.Config,
	}

	for _, s := range m.Series {
		out.Series = append(out.Series, linePath(s, mp, loc))
		if m.Config.ShowLegend {
			out.Legend = append(out.Legend, LegendItem{Label: s.Name, Color: s.Color})
		}
	}

	for _, t := range scale.HourTicks(mp.domain) {
		lt := t.In(loc)
		tick := Tick{Pos: mp.x(t), Value: float64(lt.Hour())}
		out.XTicks = append(out.XTicks, tick)
		if lt.Hour()%2 == 0 {
			tick.Label = fmt.Sprintf("%d:00", lt.Hour())
			out.XLabels = append(out.XLabels, tick)
		}
	}

	for _, v := range scale.Ticks(mp.rng) {
		y := mp.y(v)
		out.YTicks = append(out.YTicks, Tick{Pos: y, Value: v, Label: FormatNumber(v)})
		if m.Config.ShowGrid {
			out.GridLines = append(out.GridLines, y)
		}
	}
	return out
}

func linePath(s model.Series, mp lineMapper, loc *time.Location) LinePath {
	lp := LinePath{
		Name:      s.Name,
		Color:     s.Color,
		LineWidth: s.LineWidth,
		Dashed:    s.Dashed,
	}
	pts := make([]string, 0, len(s.Points))
	var area strings.Builder
	var firstX, lastX float64
	for _, p := range s.Points {
		if !util.Finite(p.Y) {
			continue
		}
		x, y := mp.x(p.X), mp.y(p.Y)
		pts = append(pts, num(x)+","+num(y))
		if area.Len() == 0 {
			firstX = x
			area.WriteString("M " + num(x) + "," + num(y))
		} else {
			area.WriteString(" L " + num(x) + "," + num(y))
		}
		lastX = x
		if s.ShowPoints {
			hm := p.X.In(loc).Format("15:04")
			lp.Markers = append(lp.Markers, Marker{
				X: x, Y: y, Time: hm, Value: p.Y,
				Tooltip: fmt.Sprintf("%s %s: %s", s.Name, hm, FormatNumber(p.Y)),
			})
		}
	}
	lp.Points = strings.Join(pts, " ")
	if area.Len() > 0 {
		h := num(mp.vp.PlotHeight())
		fmt.Fprintf(&area, " L %s,%s L %s,%s Z", num(lastX), h, num(firstX), h)
		lp.Area = area.String()
	}
	return lp
}

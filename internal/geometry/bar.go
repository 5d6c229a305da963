package geometry

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/scale"
)

const (
	groupGutter   = 0.2 // share of each category group left empty
	barMargin     = 4.0 // px between bars of one group
	fallbackColor = "#ccc"
)

// Rect is one bar of a grouped bar chart.
type Rect struct {
	Series   string  `json:"series"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
	Value    float64 `json:"value"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Tooltip  string  `json:"tooltip"`
}

// BarGroup holds the bars of one category, plus the center of its label.
type BarGroup struct {
	Category string  `json:"category"`
	LabelX   float64 `json:"label_x"`
	Bars     []Rect  `json:"bars"`
}

// BarLayout is the complete geometry of a grouped bar chart.
type BarLayout struct {
	Viewport  Viewport          `json:"viewport"`
	Range     scale.Range       `json:"range"`
	Groups    []BarGroup        `json:"groups"`
	YTicks    []Tick            `json:"y_ticks"`
	GridLines []float64         `json:"grid_lines,omitempty"`
	Legend    []LegendItem      `json:"legend,omitempty"`
	Config    model.ChartConfig `json:"config"`
}

// Bar computes the geometry of a grouped bar chart. Each category gets one
// group with one bar per series, in series order; a series with no value
// for a category draws a zero-height bar.
func Bar(m model.ChartModel, vp Viewport) BarLayout {
	rng := scale.ModelRange(m)
	h := vp.PlotHeight()
	valueToY := func(v float64) float64 {
		return clampFinite(h-(v-rng.Min)/rng.Span()*h, h)
	}

	out := BarLayout{
		Viewport: vp,
		Range:    rng,
		Groups:   []BarGroup{},
		Config:   m.Config,
	}
	for _, s := range m.Series {
		if m.Config.ShowLegend {
			out.Legend = append(out.Legend, LegendItem{Label: s.Name, Color: colorOr(s.Color)})
		}
	}
	for _, v := range scale.Ticks(rng) {
		y := valueToY(v)
		out.YTicks = append(out.YTicks, Tick{Pos: y, Value: v, Label: FormatNumber(v)})
		if m.Config.ShowGrid {
			out.GridLines = append(out.GridLines, y)
		}
	}

	cats := Categories(m)
	if len(cats) == 0 || len(m.Series) == 0 {
		return out
	}

	n := float64(len(m.Series))
	groupW := vp.PlotWidth() / float64(len(cats))
	gutter := groupW * groupGutter
	avail := groupW - gutter
	barW := math.Max((avail-(n-1)*barMargin)/n, 0)

	values := make([]map[string]float64, len(m.Series))
	for i, s := range m.Series {
		values[i] = s.ValuesByLabel()
	}

	for ci, cat := range cats {
		groupX := float64(ci)*groupW + gutter/2
		g := BarGroup{Category: cat, LabelX: groupX + avail/2}
		for si, s := range m.Series {
			v := values[si][cat]
			y := valueToY(v)
			g.Bars = append(g.Bars, Rect{
				Series:   s.Name,
				Category: cat,
				Color:    colorOr(s.Color),
				Value:    v,
				X:        groupX + float64(si)*(barW+barMargin),
				Y:        y,
				Width:    barW,
				Height:   h - y,
				Tooltip:  fmt.Sprintf("%s %s: %s", s.Name, cat, FormatNumber(v)),
			})
		}
		out.Groups = append(out.Groups, g)
	}
	return out
}

// Categories returns the distinct point labels across all series. Labels
// whose points carry a time are ordered chronologically; the rest are
// ordered lexically after them.
func Categories(m model.ChartModel) []string {
	first := make(map[string]time.Time)
	for _, s := range m.Series {
		for _, p := range s.Points {
			t, seen := first[p.Label]
			if !seen || (!p.X.IsZero() && (t.IsZero() || p.X.Before(t))) {
				first[p.Label] = p.X
			}
		}
	}
	cats := make([]string, 0, len(first))
	for c := range first {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		ti, tj := first[cats[i]], first[cats[j]]
		switch {
		case ti.IsZero() != tj.IsZero():
			return !ti.IsZero()
		case !ti.Equal(tj):
			return ti.Before(tj)
		}
		return cats[i] < cats[j]
	})
	return cats
}

func colorOr(c string) string {
	if c == "" {
		return fallbackColor
	}
	return c
}

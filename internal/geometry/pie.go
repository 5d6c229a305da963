package geometry

import (
	"fmt"
	"math"
	"strings"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/util"
)

const (
	radiusRatio      = 0.42
	pieLabelRatio    = 0.65
	minLabelPercent  = 5.0
	defaultStartDeg  = -90.0
	fullCircleDegree = 360.0
)

// PieColors is the palette used for segments without a color.
var PieColors = []string{"#60A5FA", "#F472B6", "#34D399", "#FBBF24", "#A78BFA", "#F87171"}

// Arc is one drawn segment of a pie or donut chart.
type Arc struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Color      string  `json:"color"`
	Percentage float64 `json:"percentage"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
	Path       string  `json:"path"`
	LabelX     float64 `json:"label_x"`
	LabelY     float64 `json:"label_y"`
	LabelText  string  `json:"label_text"`
	ShowLabel  bool    `json:"show_label"`
}

// PieLayout is the complete geometry of a pie or donut chart. Coordinates
// are relative to the square's top-left corner.
type PieLayout struct {
	Size        float64           `json:"size"`
	CenterX     float64           `json:"center_x"`
	CenterY     float64           `json:"center_y"`
	Radius      float64           `json:"radius"`
	InnerRadius float64           `json:"inner_radius"`
	Total       float64           `json:"total"`
	Arcs        []Arc             `json:"arcs"`
	Legend      []LegendItem      `json:"legend,omitempty"`
	Config      model.ChartConfig `json:"config"`
}

// Pie computes the geometry of a pie chart, or a donut chart when the model
// sets an inner radius. The chart is kept square at min(width, height).
// Segments sweep clockwise from the configured start angle (default −90°,
// i.e. 12 o'clock) in proportion to their share of the total. A zero or
// negative total yields no arcs.
func Pie(m model.ChartModel, vp Viewport) PieLayout {
	size := math.Max(math.Min(vp.Width, vp.Height), 0)
	out := PieLayout{
		Size:    size,
		CenterX: size / 2,
		CenterY: size / 2,
		Radius:  size * radiusRatio,
		Arcs:    []Arc{},
		Config:  m.Config,
	}
	out.InnerRadius = innerRadius(m.Config.InnerRadius, out.Radius)

	total := 0.0
	for _, s := range m.Segments {
		if util.Finite(s.Value) && s.Value > 0 {
			total += s.Value
		}
	}
	out.Total = total
	if !(total > 0) {
		return out
	}

	angle := defaultStartDeg
	if m.Config.StartAngle != nil && util.Finite(*m.Config.StartAngle) {
		angle = *m.Config.StartAngle
	}

	for i, s := range m.Segments {
		v := s.Value
		if !util.Finite(v) || v < 0 {
			v = 0
		}
		share := v / total
		end := angle + share*fullCircleDegree
		color := s.Color
		if color == "" {
			color = PieColors[i%len(PieColors)]
		}
		arc := Arc{
			Label:      s.Label,
			Value:      v,
			Color:      color,
			Percentage: math.Round(share*100*10) / 10,
			StartAngle: angle,
			EndAngle:   end,
			Path:       arcPath(out.CenterX, out.CenterY, out.Radius, out.InnerRadius, angle, end),
		}

		labelR := out.Radius * pieLabelRatio
		if out.InnerRadius > 0 {
			labelR = out.Radius - (out.Radius-out.InnerRadius)/2
		}
		arc.LabelX, arc.LabelY = polar(out.CenterX, out.CenterY, labelR, (angle+end)/2)
		arc.ShowLabel = !m.Config.HideLabels && arc.Percentage >= minLabelPercent
		arc.LabelText = labelText(arc, m.Config)

		out.Arcs = append(out.Arcs, arc)
		if m.Config.ShowLegend {
			out.Legend = append(out.Legend, LegendItem{Label: s.Label, Color: color})
		}
		angle = end
	}
	return out
}

// innerRadius keeps the donut hole inside the outer radius. Holes that would
// swallow the ring are shrunk to 60% of the outer radius.
func innerRadius(requested, outer float64) float64 {
	if !util.Finite(requested) || requested <= 0 {
		return 0
	}
	if requested >= outer {
		return outer * 0.6
	}
	return requested
}

// polar converts an angle in degrees (0° = 3 o'clock, clockwise in screen
// space) to cartesian coordinates around (cx, cy).
func polar(cx, cy, r, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return cx + r*math.Cos(rad), cy + r*math.Sin(rad)
}

// arcPath builds the SVG path of one segment. A segment covering the whole
// circle is drawn as two half arcs, since an arc whose endpoints coincide
// renders nothing.
func arcPath(cx, cy, r, ir, start, end float64) string {
	if end-start >= fullCircleDegree-1e-9 {
		mid := start + fullCircleDegree/2
		return joinPath(
			arcPath(cx, cy, r, ir, start, mid),
			arcPath(cx, cy, r, ir, mid, start+fullCircleDegree),
		)
	}
	large := 0
	if end-start > 180 {
		large = 1
	}
	sx, sy := polar(cx, cy, r, start)
	ex, ey := polar(cx, cy, r, end)

	if ir == 0 {
		return fmt.Sprintf("M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
			num(cx), num(cy), num(sx), num(sy),
			num(r), num(r), large, num(ex), num(ey))
	}
	isx, isy := polar(cx, cy, ir, start)
	iex, iey := polar(cx, cy, ir, end)
	return fmt.Sprintf("M %s %s A %s %s 0 %d 1 %s %s L %s %s A %s %s 0 %d 0 %s %s Z",
		num(sx), num(sy), num(r), num(r), large, num(ex), num(ey),
		num(iex), num(iey), num(ir), num(ir), large, num(isx), num(isy))
}

func joinPath(parts ...string) string {
	return strings.Join(parts, " ")
}

// labelText joins the segment label, its percentage and its value according
// to the config, one per line. With nothing selected it falls back to the
// percentage alone.
func labelText(a Arc, cfg model.ChartConfig) string {
	var parts []string
	if !cfg.HideLabels {
		parts = append(parts, a.Label)
	}
	if cfg.ShowPercentages {
		parts = append(parts, fmt.Sprintf("%.1f%%", a.Percentage))
	}
	if cfg.ShowValues {
		parts = append(parts, FormatNumber(a.Value))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%.1f%%", a.Percentage))
	}
	return strings.Join(parts, "\n")
}

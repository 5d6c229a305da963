package geometry

import (
	"time"

	"github.com/derickschaefer/yojitsu/internal/model"
)

// Layout is the geometry of one chart, whichever kind it is. Exactly one of
// Line, Bar or Pie is set.
type Layout struct {
	Kind model.ChartKind `json:"kind"`
	Line *LineLayout     `json:"line,omitempty"`
	Bar  *BarLayout      `json:"bar,omitempty"`
	Pie  *PieLayout      `json:"pie,omitempty"`
}

// DefaultViewport returns the pre-measurement viewport for a chart kind.
func DefaultViewport(kind model.ChartKind) Viewport {
	if kind == model.ChartPie {
		return DefaultPie()
	}
	return DefaultCartesian()
}

// Compute dispatches to the generator matching m.Kind. Unknown kinds are
// drawn as line charts.
func Compute(m model.ChartModel, vp Viewport, now time.Time, loc *time.Location) Layout {
	switch m.Kind {
	case model.ChartBar:
		l := Bar(m, vp)
		return Layout{Kind: model.ChartBar, Bar: &l}
	case model.ChartPie:
		l := Pie(m, vp)
		return Layout{Kind: model.ChartPie, Pie: &l}
	default:
		l := Line(m, vp, now, loc)
		return Layout{Kind: model.ChartLine, Line: &l}
	}
}

// ─── Panel ────────────────────────────────────────────────────────────────────

// Panel holds one chart's model and viewport and keeps its geometry current.
// Every SetModel or Resize synchronously recomputes scale and geometry and
// then notifies the listener, if any. Until the first Resize the panel uses
// the default viewport for its kind.
//
// A Panel is owned by a single view and is not safe for concurrent use.
type Panel struct {
	model    model.ChartModel
	viewport Viewport
	measured bool
	loc      *time.Location
	now      func() time.Time
	layout   Layout
	onChange func(Layout)
}

// PanelOption configures a Panel.
type PanelOption func(*Panel)

// WithClock sets the clock used to anchor empty line charts.
func WithClock(now func() time.Time) PanelOption {
	return func(p *Panel) { p.now = now }
}

// WithLocation sets the zone used for hour tick labels.
func WithLocation(loc *time.Location) PanelOption {
	return func(p *Panel) { p.loc = loc }
}

// OnChange registers fn to run after every recomputation.
func OnChange(fn func(Layout)) PanelOption {
	return func(p *Panel) { p.onChange = fn }
}

// NewPanel returns a panel for m sized to the default viewport.
func NewPanel(m model.ChartModel, opts ...PanelOption) *Panel {
	p := &Panel{
		model:    m,
		viewport: DefaultViewport(m.Kind),
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	p.recompute()
	return p
}

// SetModel replaces the chart model and recomputes.
func (p *Panel) SetModel(m model.ChartModel) {
	if m.Kind != p.model.Kind && !p.measured {
		p.viewport = DefaultViewport(m.Kind)
	}
	p.model = m
	p.recompute()
}

// Resize records a new container measurement and recomputes. Pie panels
// stay square at the smaller of the two sides; negative sizes count as 0.
func (p *Panel) Resize(width, height float64) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	vp := p.viewport
	if p.model.Kind == model.ChartPie {
		side := width
		if height < side {
			side = height
		}
		width, height = side, side
	}
	vp.Width, vp.Height = width, height
	p.viewport = vp
	p.measured = true
	p.recompute()
}

// Measured reports whether Resize has been called at least once.
func (p *Panel) Measured() bool { return p.measured }

// Viewport returns the viewport the current geometry was computed for.
func (p *Panel) Viewport() Viewport { return p.viewport }

// Layout returns the current geometry.
func (p *Panel) Layout() Layout { return p.layout }

func (p *Panel) recompute() {
	p.layout = Compute(p.model, p.viewport, p.now(), p.loc)
	if p.onChange != nil {
		p.onChange(p.layout)
	}
}

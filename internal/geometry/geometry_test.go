package geometry_test

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/yojitsu/internal/geometry"
	"github.com/derickschaefer/yojitsu/internal/model"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

var base = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

// lineModel builds a two-series line model with hourly points from base.
func lineModel(plan, actual []float64) model.ChartModel {
	mk := func(name, color string, vals []float64) model.Series {
		s := model.Series{Name: name, Color: color, LineWidth: 2.5, ShowPoints: true, Points: []model.Point{}}
		for i, v := range vals {
			s.Points = append(s.Points, model.Point{X: base.Add(time.Duration(i) * time.Hour), Y: v})
		}
		return s
	}
	return model.ChartModel{
		Kind:   model.ChartLine,
		Series: []model.Series{mk("plan", "#60A5FA", plan), mk("actual", "#F472B6", actual)},
		Config: model.ChartConfig{ShowLegend: true, ShowGrid: true},
	}
}

func barModel(cats []string, plan, actual []float64) model.ChartModel {
	mk := func(name string, vals []float64) model.Series {
		s := model.Series{Name: name}
		for i, v := range vals {
			s.Points = append(s.Points, model.Point{Label: cats[i], Y: v})
		}
		return s
	}
	return model.ChartModel{
		Kind:   model.ChartBar,
		Series: []model.Series{mk("plan", plan), mk("actual", actual)},
	}
}

func pieModel(values ...float64) model.ChartModel {
	m := model.ChartModel{Kind: model.ChartPie}
	for i, v := range values {
		m.Segments = append(m.Segments, model.Segment{Label: string(rune('A' + i)), Value: v})
	}
	return m
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ─── Viewport ─────────────────────────────────────────────────────────────────

func TestViewportPlotArea(t *testing.T) {
	vp := geometry.DefaultCartesian()
	if vp.PlotWidth() != 710 || vp.PlotHeight() != 240 {
		t.Errorf("plot area = %gx%g, want 710x240", vp.PlotWidth(), vp.PlotHeight())
	}
	tiny := geometry.Viewport{Width: 50, Height: 10, Padding: geometry.CartesianPadding}
	if tiny.PlotWidth() != 0 || tiny.PlotHeight() != 0 {
		t.Errorf("plot area must clamp at zero, got %gx%g", tiny.PlotWidth(), tiny.PlotHeight())
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{0: "0", 1500: "1,500", 2.5: "2.5", 1234567: "1,234,567"}
	for in, want := range cases {
		if got := geometry.FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%g) = %q, want %q", in, got, want)
		}
	}
}

// ─── Line ─────────────────────────────────────────────────────────────────────

func TestLineCoordinates(t *testing.T) {
	m := lineModel([]float64{0, 50, 95}, []float64{10, 20, 30})
	l := geometry.Line(m, geometry.DefaultCartesian(), base, time.UTC)

	if l.Range.Max != 100 {
		t.Fatalf("expected y max 100, got %g", l.Range.Max)
	}
	// Domain is 07:30–10:30; the first point at 08:00 sits at 1/6 of 710.
	pts := strings.Split(l.Series[0].Points, " ")
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %q", l.Series[0].Points)
	}
	if pts[0] != "118.33,240" {
		t.Errorf("first point = %q, want 118.33,240", pts[0])
	}
	if pts[1] != "355,120" {
		t.Errorf("second point = %q, want 355,120", pts[1])
	}
	if !strings.HasPrefix(l.Series[0].Area, "M 118.33,240 L 355,120") ||
		!strings.HasSuffix(l.Series[0].Area, "L 591.67,240 L 118.33,240 Z") {
		t.Errorf("unexpected area path %q", l.Series[0].Area)
	}
	if len(l.Series[0].Markers) != 3 {
		t.Errorf("expected 3 markers, got %d", len(l.Series[0].Markers))
	}
	if len(l.Legend) != 2 {
		t.Errorf("expected legend of 2, got %d", len(l.Legend))
	}
}

func TestLineAxisTicks(t *testing.T) {
	m := lineModel([]float64{10, 20, 30}, nil)
	l := geometry.Line(m, geometry.DefaultCartesian(), base, time.UTC)

	// 07:30–10:30 → hourly ticks at 8, 9, 10; labels at even hours only.
	if len(l.XTicks) != 3 {
		t.Fatalf("expected 3 x ticks, got %d", len(l.XTicks))
	}
	if len(l.XLabels) != 2 || l.XLabels[0].Label != "8:00" || l.XLabels[1].Label != "10:00" {
		t.Errorf("unexpected x labels: %+v", l.XLabels)
	}
	// 30*1.05 → 40, step 10 → 0..40
	if len(l.YTicks) != 5 || l.YTicks[4].Label != "40" {
		t.Errorf("unexpected y ticks: %+v", l.YTicks)
	}
	if len(l.GridLines) != len(l.YTicks) {
		t.Errorf("grid lines should follow y ticks")
	}
	if l.YTicks[0].Pos != 240 || l.YTicks[4].Pos != 0 {
		t.Errorf("y ticks should span the plot height: %+v", l.YTicks)
	}
}

func TestLineEmptyModel(t *testing.T) {
	m := lineModel(nil, nil)
	l := geometry.Line(m, geometry.DefaultCartesian(), base, time.UTC)
	if len(l.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(l.Series))
	}
	for _, s := range l.Series {
		if s.Points != "" || s.Area != "" {
			t.Errorf("empty series should give empty paths, got %q / %q", s.Points, s.Area)
		}
	}
	if l.Range.Max != 100 {
		t.Errorf("empty range max should be 100, got %g", l.Range.Max)
	}
	// Empty domain spans the whole day → 24 hourly ticks.
	if len(l.XTicks) != 24 {
		t.Errorf("expected 24 hourly ticks, got %d", len(l.XTicks))
	}
}

func TestLineZeroViewportNoNaN(t *testing.T) {
	m := lineModel([]float64{5}, []float64{5})
	l := geometry.Line(m, geometry.Viewport{}, base, time.UTC)
	for _, s := range l.Series {
		if strings.Contains(s.Points, "NaN") || strings.Contains(s.Area, "NaN") {
			t.Errorf("NaN in output: %q %q", s.Points, s.Area)
		}
	}
}

func TestLineSkipsNonFinitePoints(t *testing.T) {
	m := lineModel([]float64{1, math.NaN(), 3}, nil)
	l := geometry.Line(m, geometry.DefaultCartesian(), base, time.UTC)
	if n := len(strings.Fields(l.Series[0].Points)); n != 2 {
		t.Errorf("expected 2 points, got %d", n)
	}
}

func TestLineIdempotent(t *testing.T) {
	m := lineModel([]float64{10, 40, 25}, []float64{5, 35, 30})
	vp := geometry.Viewport{Width: 640, Height: 240, Padding: geometry.CartesianPadding}
	a := geometry.Line(m, vp, base, time.UTC)
	b := geometry.Line(m, vp, base, time.UTC)
	if !reflect.DeepEqual(a, b) {
		t.Error("two computations with identical input differ")
	}
}

// ─── Bar ──────────────────────────────────────────────────────────────────────

func TestBarGrouping(t *testing.T) {
	m := barModel([]string{"09:00", "08:00"}, []float64{40, 80}, []float64{20, 60})
	m.Series[1].Points = m.Series[1].Points[:1] // actual missing for 08:00
	vp := geometry.Viewport{Width: 490, Height: 300, Padding: geometry.CartesianPadding}
	l := geometry.Bar(m, vp)

	if len(l.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(l.Groups))
	}
	if l.Groups[0].Category != "08:00" {
		t.Errorf("categories should be sorted, got %q first", l.Groups[0].Category)
	}
	// plot width 400 → group 200, gutter 40, avail 160, bar (160-4)/2 = 78
	g := l.Groups[0]
	if g.Bars[0].Width != 78 || g.Bars[0].X != 20 || g.Bars[1].X != 102 {
		t.Errorf("unexpected bar layout: %+v", g.Bars)
	}
	if g.LabelX != 100 {
		t.Errorf("label center = %g, want 100", g.LabelX)
	}
	if g.Bars[1].Value != 0 || g.Bars[1].Height != 0 {
		t.Errorf("missing value should draw a zero bar: %+v", g.Bars[1])
	}
	// 80*1.05 = 84 → 100; 80 → y = 240 - 0.8*240 = 48
	if !approxEqual(g.Bars[0].Y, 48, 1e-9) || !approxEqual(g.Bars[0].Height, 192, 1e-9) {
		t.Errorf("unexpected bar height: %+v", g.Bars[0])
	}
	if g.Bars[0].Color != "#ccc" {
		t.Errorf("expected fallback color, got %q", g.Bars[0].Color)
	}
}

func TestBarSumsSharedLabels(t *testing.T) {
	m := model.ChartModel{Kind: model.ChartBar, Series: []model.Series{{
		Name:   "plan",
		Points: []model.Point{{Label: "09:00", Y: 100}, {Label: "09:00", Y: 80}},
	}}}
	l := geometry.Bar(m, geometry.DefaultCartesian())
	if len(l.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(l.Groups))
	}
	b := l.Groups[0].Bars[0]
	if b.Value != 180 {
		t.Errorf("points sharing a label should sum, got %g", b.Value)
	}
	if b.Y < 0 || b.Value > l.Range.Max {
		t.Errorf("bar %g clipped by axis max %g (y=%g)", b.Value, l.Range.Max, b.Y)
	}
}

func TestBarChronologicalCategories(t *testing.T) {
	dec := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	m := model.ChartModel{Kind: model.ChartBar, Series: []model.Series{{
		Name: "plan",
		Points: []model.Point{
			{X: dec, Label: "12/31", Y: 1},
			{X: dec.AddDate(0, 0, 1), Label: "01/01", Y: 2},
		},
	}}}
	cats := geometry.Categories(m)
	if cats[0] != "12/31" || cats[1] != "01/01" {
		t.Errorf("timed categories should sort chronologically, got %v", cats)
	}
}

func TestBarEmpty(t *testing.T) {
	l := geometry.Bar(model.ChartModel{Kind: model.ChartBar}, geometry.DefaultCartesian())
	if len(l.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(l.Groups))
	}
}

// ─── Pie ──────────────────────────────────────────────────────────────────────

func TestPieAngles(t *testing.T) {
	l := geometry.Pie(pieModel(70, 30), geometry.DefaultPie())
	if len(l.Arcs) != 2 {
		t.Fatalf("expected 2 arcs, got %d", len(l.Arcs))
	}
	a, b := l.Arcs[0], l.Arcs[1]
	if !approxEqual(a.StartAngle, -90, 1e-9) || !approxEqual(a.EndAngle, 162, 1e-9) {
		t.Errorf("first arc %g→%g, want -90→162", a.StartAngle, a.EndAngle)
	}
	if !approxEqual(b.StartAngle, 162, 1e-9) || !approxEqual(b.EndAngle, 270, 1e-9) {
		t.Errorf("second arc %g→%g, want 162→270", b.StartAngle, b.EndAngle)
	}
	if a.Percentage != 70 || b.Percentage != 30 {
		t.Errorf("percentages %g/%g", a.Percentage, b.Percentage)
	}
	if !strings.Contains(a.Path, " 0 1 1 ") {
		t.Errorf("a 252° arc needs the large-arc flag: %q", a.Path)
	}
	if !strings.Contains(b.Path, " 0 0 1 ") {
		t.Errorf("a 108° arc must not set the large-arc flag: %q", b.Path)
	}
	if !strings.HasPrefix(a.Path, "M 200 200 L 200 32 ") {
		t.Errorf("pie path should start at the center then 12 o'clock: %q", a.Path)
	}
}

func TestPieSquare(t *testing.T) {
	l := geometry.Pie(pieModel(1), geometry.Viewport{Width: 600, Height: 300})
	if l.Size != 300 || l.CenterX != 150 || l.CenterY != 150 || !approxEqual(l.Radius, 126, 1e-9) {
		t.Errorf("unexpected pie frame: %+v", l)
	}
}

func TestPieZeroTotal(t *testing.T) {
	l := geometry.Pie(pieModel(0, 0), geometry.DefaultPie())
	if len(l.Arcs) != 0 {
		t.Errorf("expected no arcs, got %d", len(l.Arcs))
	}
}

func TestPieLabels(t *testing.T) {
	m := pieModel(96, 4)
	l := geometry.Pie(m, geometry.DefaultPie())
	if !l.Arcs[0].ShowLabel || l.Arcs[1].ShowLabel {
		t.Errorf("only segments ≥5%% should show a label: %v %v", l.Arcs[0].ShowLabel, l.Arcs[1].ShowLabel)
	}
	if l.Arcs[0].LabelText != "A" {
		t.Errorf("default label text = %q", l.Arcs[0].LabelText)
	}

	m.Config.ShowPercentages = true
	m.Config.ShowValues = true
	l = geometry.Pie(m, geometry.DefaultPie())
	if l.Arcs[0].LabelText != "A\n96.0%\n96" {
		t.Errorf("label text = %q", l.Arcs[0].LabelText)
	}

	m.Config = model.ChartConfig{HideLabels: true}
	l = geometry.Pie(m, geometry.DefaultPie())
	if l.Arcs[0].ShowLabel || l.Arcs[0].LabelText != "96.0%" {
		t.Errorf("hidden labels: show=%v text=%q", l.Arcs[0].ShowLabel, l.Arcs[0].LabelText)
	}
}

func TestPieDonut(t *testing.T) {
	m := pieModel(50, 50)
	m.Config.InnerRadius = 90
	l := geometry.Pie(m, geometry.DefaultPie())
	if l.InnerRadius != 90 {
		t.Fatalf("inner radius = %g", l.InnerRadius)
	}
	p := l.Arcs[0].Path
	if strings.Count(p, "A ") != 2 || !strings.Contains(p, "A 90 90 0 0 0") {
		t.Errorf("unexpected donut path %q", p)
	}
	// Label sits midway through the ring: 168 - (168-90)/2 = 129, at 0°.
	if !approxEqual(l.Arcs[0].LabelX, 329, 1e-9) || !approxEqual(l.Arcs[0].LabelY, 200, 1e-9) {
		t.Errorf("label at (%g, %g)", l.Arcs[0].LabelX, l.Arcs[0].LabelY)
	}
}

func TestPieDonutHoleClamped(t *testing.T) {
	m := pieModel(1)
	m.Config.InnerRadius = 90
	l := geometry.Pie(m, geometry.Viewport{Width: 100, Height: 100})
	if l.InnerRadius >= l.Radius {
		t.Errorf("inner radius %g must stay inside %g", l.InnerRadius, l.Radius)
	}
}

func TestPieFullCircle(t *testing.T) {
	l := geometry.Pie(pieModel(5), geometry.DefaultPie())
	if strings.Count(l.Arcs[0].Path, "A ") != 2 {
		t.Errorf("a full circle should be drawn as two arcs: %q", l.Arcs[0].Path)
	}
}

func TestPieStartAngle(t *testing.T) {
	m := pieModel(1, 1)
	zero := 0.0
	m.Config.StartAngle = &zero
	l := geometry.Pie(m, geometry.DefaultPie())
	if l.Arcs[0].StartAngle != 0 || l.Arcs[1].EndAngle != 360 {
		t.Errorf("unexpected angles: %+v", l.Arcs)
	}
}

func TestPieDefaultColors(t *testing.T) {
	l := geometry.Pie(pieModel(1, 1, 1), geometry.DefaultPie())
	for i, a := range l.Arcs {
		if a.Color != geometry.PieColors[i] {
			t.Errorf("arc %d color %q, want %q", i, a.Color, geometry.PieColors[i])
		}
	}
}

// ─── Panel ────────────────────────────────────────────────────────────────────

func TestPanelDefaultsBeforeResize(t *testing.T) {
	p := geometry.NewPanel(lineModel([]float64{1}, nil), geometry.WithClock(func() time.Time { return base }))
	if p.Measured() {
		t.Error("panel should not be measured before Resize")
	}
	if p.Layout().Line == nil || p.Layout().Line.Viewport.Width != 800 {
		t.Errorf("expected default 800px layout, got %+v", p.Layout().Line)
	}
}

func TestPanelResizeRecomputes(t *testing.T) {
	calls := 0
	p := geometry.NewPanel(lineModel([]float64{1, 2}, nil),
		geometry.WithClock(func() time.Time { return base }),
		geometry.OnChange(func(geometry.Layout) { calls++ }),
	)
	p.Resize(400, 200)
	if !p.Measured() {
		t.Error("panel should be measured after Resize")
	}
	if got := p.Layout().Line.Viewport; got.Width != 400 || got.Height != 200 {
		t.Errorf("viewport = %+v", got)
	}
	p.SetModel(lineModel([]float64{3, 4}, nil))
	if calls != 3 {
		t.Errorf("expected 3 recomputations, got %d", calls)
	}
}

func TestPanelPieStaysSquare(t *testing.T) {
	p := geometry.NewPanel(pieModel(1, 2))
	p.Resize(500, 320)
	if vp := p.Viewport(); vp.Width != 320 || vp.Height != 320 {
		t.Errorf("pie viewport = %+v", vp)
	}
	if p.Layout().Pie.Size != 320 {
		t.Errorf("pie size = %g", p.Layout().Pie.Size)
	}
}

func TestComputeDispatch(t *testing.T) {
	if l := geometry.Compute(barModel(nil, nil, nil), geometry.DefaultCartesian(), base, nil); l.Bar == nil {
		t.Error("bar model should produce bar geometry")
	}
	if l := geometry.Compute(pieModel(1), geometry.DefaultPie(), base, nil); l.Pie == nil {
		t.Error("pie model should produce pie geometry")
	}
}

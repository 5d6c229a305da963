package export

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/derickschaefer/yojitsu/internal/geometry"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/scale"
)

// Charter is a go-echarts chart that can render itself as a full page.
type Charter interface {
	components.Charter
	Render(w io.Writer) error
}

// Size is the pixel size of an interactive chart.
type Size struct {
	Width  int
	Height int
}

func (s Size) init(title string) opts.Initialization {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 300
	}
	return opts.Initialization{
		PageTitle: title,
		Width:     fmt.Sprintf("%dpx", w),
		Height:    fmt.Sprintf("%dpx", h),
	}
}

// Chart builds the go-echarts chart for m. The value axis of line and bar
// charts uses the same nice range as the SVG geometry.
func Chart(m model.ChartModel, size Size) Charter {
	switch m.Kind {
	case model.ChartBar:
		return barChart(m, size)
	case model.ChartPie:
		return pieChart(m, size)
	default:
		return lineChart(m, size)
	}
}

// WriteHTML renders m as a standalone interactive HTML page.
func WriteHTML(w io.Writer, m model.ChartModel, size Size) error {
	if err := Chart(m, size).Render(w); err != nil {
		return fmt.Errorf("rendering %s chart: %w", m.Kind, err)
	}
	slog.Debug("html written", "kind", m.Kind, "title", m.Config.Title)
	return nil
}

// WritePage renders several chart models onto one HTML page, top to bottom.
func WritePage(w io.Writer, title string, models []model.ChartModel, size Size) error {
	page := components.NewPage()
	page.PageTitle = title
	page.Layout = components.PageFlexLayout
	for _, m := range models {
		page.AddCharts(Chart(m, size))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	slog.Debug("html page written", "charts", len(models))
	return nil
}

// ─── Builders ─────────────────────────────────────────────────────────────────

func common(m model.ChartModel, size Size) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(size.init(m.Config.Title)),
		charts.WithTitleOpts(opts.Title{Title: m.Config.Title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(m.Config.ShowLegend), Top: "bottom"}),
	}
}

func cartesian(m model.ChartModel, size Size) []charts.GlobalOpts {
	rng := scale.ModelRange(m)
	return append(common(m, size),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: m.Config.XAxisLabel}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      m.Config.YAxisLabel,
			Min:       rng.Min,
			Max:       rng.Max,
			SplitLine: &opts.SplitLine{Show: opts.Bool(m.Config.ShowGrid)},
		}),
	)
}

// valuesByCategory aligns each series on the shared category list; missing
// points are sent as "-" so echarts leaves a gap.
func valuesByCategory(s model.Series, cats []string) []interface{} {
	byLabel := s.ValuesByLabel()
	out := make([]interface{}, len(cats))
	for i, c := range cats {
		if v, ok := byLabel[c]; ok {
			out[i] = v
		} else {
			out[i] = "-"
		}
	}
	return out
}

func lineChart(m model.ChartModel, size Size) *charts.Line {
	cats := geometry.Categories(m)
	line := charts.NewLine()
	line.SetGlobalOptions(cartesian(m, size)...)
	line.SetXAxis(cats)
	for _, s := range m.Series {
		values := valuesByCategory(s, cats)
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}
		style := opts.LineStyle{Width: 2}
		if s.Dashed {
			style.Type = "dashed"
		}
		line.AddSeries(s.Name, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
			charts.WithLineStyleOpts(style),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.08)}),
		)
	}
	return line
}

func barChart(m model.ChartModel, size Size) *charts.Bar {
	cats := geometry.Categories(m)
	bar := charts.NewBar()
	bar.SetGlobalOptions(cartesian(m, size)...)
	bar.SetXAxis(cats)
	for _, s := range m.Series {
		values := valuesByCategory(s, cats)
		data := make([]opts.BarData, len(values))
		for i, v := range values {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(s.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}))
	}
	return bar
}

func pieChart(m model.ChartModel, size Size) *charts.Pie {
	if size.Height <= 0 {
		size.Height = int(geometry.DefaultPie().Height)
	}
	if size.Width <= 0 {
		size.Width = int(geometry.DefaultPie().Width)
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(append(common(m, size),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)...)

	data := make([]opts.PieData, 0, len(m.Segments))
	for i, s := range m.Segments {
		color := s.Color
		if color == "" {
			color = geometry.PieColors[i%len(geometry.PieColors)]
		}
		data = append(data, opts.PieData{
			Name:      s.Label,
			Value:     s.Value,
			ItemStyle: &opts.ItemStyle{Color: color},
		})
	}

	formatter := "{b}"
	switch {
	case m.Config.ShowPercentages && m.Config.ShowValues:
		formatter = "{b}\n{c} ({d}%)"
	case m.Config.ShowPercentages:
		formatter = "{b}\n{d}%"
	case m.Config.ShowValues:
		formatter = "{b}\n{c}"
	}
	pie.AddSeries(m.Config.Title, data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(!m.Config.HideLabels),
				Formatter: formatter,
			}),
			charts.WithPieChartOpts(opts.PieChart{Radius: pieRadius(m, size)}),
		)
	return pie
}

// pieRadius mirrors the SVG geometry: the outer radius is the same share of
// the square and the donut hole keeps its pixel size.
func pieRadius(m model.ChartModel, size Size) interface{} {
	side := float64(min(size.Width, size.Height))
	l := geometry.Pie(m, geometry.Viewport{Width: side, Height: side})
	outer := fmt.Sprintf("%.0f%%", l.Radius/(side/2)*100)
	if l.InnerRadius <= 0 {
		return outer
	}
	return []string{fmt.Sprintf("%.0f%%", l.InnerRadius/(side/2)*100), outer}
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/analyze"
	"github.com/derickschaefer/yojitsu/internal/app"
	"github.com/derickschaefer/yojitsu/internal/chart"
	"github.com/derickschaefer/yojitsu/internal/chartmodel"
	"github.com/derickschaefer/yojitsu/internal/export"
	"github.com/derickschaefer/yojitsu/internal/geometry"
	"github.com/derickschaefer/yojitsu/internal/model"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Build a chart of plan against actual and compute its geometry",
	Long: `Chart commands aggregate the records of a page, build the chart model and
compute its geometry for the given size.

By default the geometry is printed (table: one row per marker, bar or arc;
json/yaml: the full layout). --svg writes the drawing, --html an interactive
page, and --preview draws the chart in the terminal.`,
}

// chartFlags are the output flags shared by every chart subcommand.
type chartFlags struct {
	records     recordFlags
	granularity string
	now         string
	width       int
	height      int
	svg         string
	html        string
	preview     bool
	overrides   model.Overrides
}

func (f *chartFlags) register(cmd *cobra.Command, kind model.ChartKind) {
	f.records.register(cmd)
	fl := cmd.Flags()
	if kind != model.ChartPie {
		fl.StringVar(&f.granularity, "granularity", string(model.GranularityHour), "bucket width: hour|day")
	}
	fl.StringVar(&f.now, "now", "", "reference time for progress and the time axis (default: current time)")
	fl.IntVar(&f.width, "width", 0, "chart width in px (default: config chart_width or pie_size)")
	fl.IntVar(&f.height, "height", 0, "chart height in px (default: config chart_height or pie_size)")
	fl.StringVar(&f.svg, "svg", "", "write the chart as SVG to this file")
	fl.StringVar(&f.html, "html", "", "write the chart as interactive HTML to this file")
	fl.BoolVar(&f.preview, "preview", false, "draw the chart in the terminal instead of printing geometry")
	fl.StringVar(&f.overrides.Title, "title", "", "chart title")
	fl.StringVar(&f.overrides.XAxisLabel, "x-label", "", "x axis label")
	fl.StringVar(&f.overrides.YAxisLabel, "y-label", "", "y axis label")
}

// viewport sizes a chart from the flags, falling back to config.
func (f *chartFlags) viewport(deps *app.Deps, kind model.ChartKind) geometry.Viewport {
	vp := geometry.DefaultViewport(kind)
	w, h := deps.Config.ChartWidth, deps.Config.ChartHeight
	if kind == model.ChartPie {
		w, h = deps.Config.PieSize, deps.Config.PieSize
	}
	if f.width > 0 {
		w = f.width
	}
	if f.height > 0 {
		h = f.height
	}
	vp.Width, vp.Height = float64(w), float64(h)
	return vp
}

// builtChart is a chart model plus what was learned building it.
type builtChart struct {
	Model    model.ChartModel
	Progress *analyze.Progress
	Warnings []string
}

// buildChart loads the records selected by rf and builds the model of kind.
// Pie charts show progress at now.
func buildChart(deps *app.Deps, kind model.ChartKind, rf *recordFlags, g model.Granularity, now time.Time, ov model.Overrides) (builtChart, error) {
	if kind == model.ChartPie {
		page, plans, actuals, warnings, err := rf.load(deps)
		if err != nil {
			return builtChart{}, err
		}
		pr, prWarnings := analyze.ComputeProgress(page, plans, actuals, now, deps.Location)
		return builtChart{
			Model:    chartmodel.BuildProgressModel(pr, ov),
			Progress: &pr,
			Warnings: append(warnings, prWarnings...),
		}, nil
	}

	page, buckets, warnings, err := rf.buckets(deps, g)
	if err != nil {
		return builtChart{}, err
	}
	var m model.ChartModel
	if kind == model.ChartBar {
		m = chartmodel.BuildBarModel(page, g, buckets, ov)
	} else {
		m = chartmodel.BuildLineModel(page, buckets, ov)
	}
	return builtChart{Model: m, Warnings: warnings}, nil
}

func runChart(cmd *cobra.Command, kind model.ChartKind, f *chartFlags) error {
	started := time.Now()
	g := model.GranularityHour
	if f.granularity != "" {
		var err error
		if g, err = model.ParseGranularity(f.granularity); err != nil {
			return err
		}
	}

	deps, err := buildDeps()
	if err != nil {
		return err
	}
	defer deps.Close()
	now, err := parseNow(f.now, deps.Location)
	if err != nil {
		return err
	}

	built, err := buildChart(deps, kind, &f.records, g, now, f.overrides)
	if err != nil {
		return err
	}
	vp := f.viewport(deps, kind)
	layout := geometry.Compute(built.Model, vp, now, deps.Location)

	if f.svg != "" {
		var caption []string
		if built.Progress != nil {
			caption = []string{built.Progress.Headline(), built.Progress.StatusLabel}
		}
		if err := writeFile(f.svg, func(w *os.File) error {
			return export.WriteSVG(w, layout, export.SVGOptions{Caption: caption})
		}); err != nil {
			return err
		}
		success(os.Stderr, deps, "Wrote %s", f.svg)
	}
	if f.html != "" {
		size := export.Size{Width: int(vp.Width), Height: int(vp.Height)}
		if err := writeFile(f.html, func(w *os.File) error {
			return export.WriteHTML(w, built.Model, size)
		}); err != nil {
			return err
		}
		success(os.Stderr, deps, "Wrote %s", f.html)
	}

	if f.preview {
		for _, w := range built.Warnings {
			notice(deps, "%s", w)
		}
		return chart.Preview(cmd.OutOrStdout(), built.Model, 0)
	}
	if f.svg != "" || f.html != "" {
		for _, w := range built.Warnings {
			notice(deps, "%s", w)
		}
		return nil
	}
	return emit(cmd.OutOrStdout(), deps, newResult(model.KindGeometry, "chart "+string(kind),
		layout, geometryItems(layout), built.Warnings, started))
}

// geometryItems counts the drawn elements of a layout.
func geometryItems(l geometry.Layout) int {
	switch {
	case l.Line != nil:
		n := 0
		for _, s := range l.Line.Series {
			n += len(s.Markers)
		}
		return n
	case l.Bar != nil:
		n := 0
		for _, g := range l.Bar.Groups {
			n += len(g.Bars)
		}
		return n
	case l.Pie != nil:
		return len(l.Pie.Arcs)
	}
	return 0
}

// writeFile creates path and hands it to fn.
func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	slog.Debug("file written", "path", path)
	return nil
}

// ─── chart line / bar / pie ──────────────────────────────────────────────────

var chartLineFlags, chartBarFlags, chartPieFlags chartFlags

var chartLineCmd = &cobra.Command{
	Use:   "line",
	Short: "Plan and actual over time as two lines",
	Long: `Draws the plan series and the actual series over time, each in its page
color. The value axis starts at 0 and ends at a nice round maximum; the
time axis covers the data padded by 30 minutes, or the whole of today
(00:00 to 23:59:59) when there is none.`,
	Example: `  yojitsu chart line --page arrival
  yojitsu chart line --page shipment --svg shipment.svg --width 1024 --height 360
  yojitsu chart line --plans plan.jsonl --actuals actual.jsonl --preview`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChart(cmd, model.ChartLine, &chartLineFlags)
	},
}

var chartBarCmd = &cobra.Command{
	Use:   "bar",
	Short: "Plan and actual per hour or day as grouped bars",
	Example: `  yojitsu chart bar --page arrival --granularity day
  yojitsu chart bar --page shipment --html shipment-bar.html
  yojitsu chart bar --page arrival --preview`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChart(cmd, model.ChartBar, &chartBarFlags)
	},
}

var chartPieCmd = &cobra.Command{
	Use:   "pie",
	Short: "Progress against the day's plan as a donut",
	Long: `Draws the share of the day's plan that is done. Actuals beyond the plan
are shown as an extra overage wedge. With no plan the donut shows a single
"予定なし" ring.`,
	Example: `  yojitsu chart pie --page arrival --now 2024-01-15T14:00
  yojitsu chart pie --page shipment --svg shipment-pie.svg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChart(cmd, model.ChartPie, &chartPieFlags)
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartLineCmd)
	chartCmd.AddCommand(chartBarCmd)
	chartCmd.AddCommand(chartPieCmd)

	chartLineFlags.register(chartLineCmd, model.ChartLine)
	chartBarFlags.register(chartBarCmd, model.ChartBar)
	chartPieFlags.register(chartPieCmd, model.ChartPie)
}

package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/analyze"
	"github.com/derickschaefer/yojitsu/internal/chartmodel"
	"github.com/derickschaefer/yojitsu/internal/export"
	"github.com/derickschaefer/yojitsu/internal/geometry"
	"github.com/derickschaefer/yojitsu/internal/model"
)

var (
	progressFlags recordFlags
	progressNow   string
	progressSVG   string
	progressHTML  string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Compare actual completion with the plan due by now",
	Long: `Sums the day's plan, the part of it due by --now, and the actuals recorded
by --now, then classifies the page:

  先行 (ahead)     actual leads the plan due by more than 5% of the day's plan
  遅延 (delayed)   actual trails it by more than 5%
  予定通り         otherwise, or when nothing is planned

On the arrival page the completion of each process (入荷, 検品, 入庫) is
listed as well.`,
	Example: `  yojitsu progress --page arrival --now 2024-01-15T14:00
  yojitsu progress --page shipment --format json
  yojitsu progress --page arrival --svg donut.svg --html progress.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		now, err := parseNow(progressNow, deps.Location)
		if err != nil {
			return err
		}

		page, plans, actuals, warnings, err := progressFlags.load(deps)
		if err != nil {
			return err
		}
		pr, prWarnings := analyze.ComputeProgress(page, plans, actuals, now, deps.Location)
		warnings = append(warnings, prWarnings...)
		var processes []analyze.ProcessProgress
		if page == model.PageArrival {
			processes = analyze.ComputeProcessProgress(plans, actuals, now, deps.Location)
		}
		report := analyze.NewReport(pr, processes)

		donut := chartmodel.BuildProgressModel(pr, model.Overrides{})
		size := deps.Config.PieSize
		if progressSVG != "" {
			vp := geometry.Viewport{Width: float64(size), Height: float64(size)}
			l := geometry.Compute(donut, vp, now, deps.Location)
			caption := []string{report.Headline, pr.StatusLabel}
			if err := writeFile(progressSVG, func(w *os.File) error {
				return export.WriteSVG(w, l, export.SVGOptions{Caption: caption})
			}); err != nil {
				return err
			}
			success(os.Stderr, deps, "Wrote %s", progressSVG)
		}
		if progressHTML != "" {
			models := []model.ChartModel{donut}
			if len(report.Processes) > 0 {
				models = append(models, chartmodel.BuildProcessModel(report.Processes, model.Overrides{}))
			}
			if err := writeFile(progressHTML, func(w *os.File) error {
				return export.WritePage(w, donut.Config.Title, models, export.Size{Width: size, Height: size})
			}); err != nil {
				return err
			}
			success(os.Stderr, deps, "Wrote %s", progressHTML)
		}

		return emit(cmd.OutOrStdout(), deps,
			newResult(model.KindProgress, "progress", report, 1+len(report.Processes), warnings, started))
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressFlags.register(progressCmd)
	progressCmd.Flags().StringVar(&progressNow, "now", "", "reference time (default: current time)")
	progressCmd.Flags().StringVar(&progressSVG, "svg", "", "write the progress donut as SVG to this file")
	progressCmd.Flags().StringVar(&progressHTML, "html", "", "write the donut and process pie as interactive HTML")
}

// Package chartmodel builds renderer-independent chart models from
// aggregated buckets and progress figures. Each builder produces exactly
// two series for plan/actual comparisons, plan first, with points in bucket
// order. Caller overrides win over the page defaults when non-empty.
package chartmodel

import (
	"fmt"

	"github.com/derickschaefer/yojitsu/internal/analyze"
	"github.com/derickschaefer/yojitsu/internal/model"
)

// ─── Page styles ──────────────────────────────────────────────────────────────

// Style is the per-page naming and palette of plan/actual charts.
type Style struct {
	Subject     string // 入荷 or 出荷
	PlanName    string
	ActualName  string
	PlanColor   string
	ActualColor string
	DateAxis    string
}

var styles = map[model.Page]Style{
	model.PageArrival: {
		Subject:     "入荷",
		PlanName:    "入荷予定",
		ActualName:  "入荷実績",
		PlanColor:   "#60A5FA",
		ActualColor: "#F472B6",
		DateAxis:    "入荷日",
	},
	model.PageShipment: {
		Subject:     "出荷",
		PlanName:    "出荷予定",
		ActualName:  "出荷実績",
		PlanColor:   "#50C878",
		ActualColor: "#FF6B35",
		DateAxis:    "出荷日",
	},
}

// StyleFor returns the style of page p. Unknown pages use the arrival
// style.
func StyleFor(p model.Page) Style {
	if s, ok := styles[p]; ok {
		return s
	}
	return styles[model.PageArrival]
}

const (
	quantityAxis = "数量"
	timeAxis     = "時刻"
	lineWidth    = 2.5
)

// ─── Builders ─────────────────────────────────────────────────────────────────

// BuildLineModel builds the plan-versus-actual line chart of page p.
func BuildLineModel(p model.Page, buckets []model.Bucket, ov model.Overrides) model.ChartModel {
	st := StyleFor(p)
	plan, actual := comparisonSeries(st, buckets, func(b model.Bucket) string { return b.Key })
	for _, s := range []*model.Series{&plan, &actual} {
		s.LineWidth = lineWidth
		s.ShowPoints = true
	}
	return model.ChartModel{
		Kind:   model.ChartLine,
		Series: []model.Series{plan, actual},
		Config: merge(defaultConfig(st.Subject+"予実推移", st.DateAxis), ov),
	}
}

// BuildBarModel builds the grouped plan-versus-actual bar chart of page p.
// Hourly buckets are labelled "HH:00" and daily buckets "MM/DD". Labels
// stay unique per bucket: hourly buckets spanning several days carry the
// date ("MM/DD HH:00"), daily buckets spanning several years the year.
func BuildBarModel(p model.Page, g model.Granularity, buckets []model.Bucket, ov model.Overrides) model.ChartModel {
	st := StyleFor(p)
	title, axis := st.Subject+"予実推移（1時間単位）", timeAxis
	layout := "15:04"
	if spans(buckets, "2006-01-02") {
		layout = "01/02 15:04"
	}
	if g == model.GranularityDay {
		title, axis = st.Subject+"予実推移（日次）", st.DateAxis
		layout = "01/02"
		if spans(buckets, "2006") {
			layout = "2006/01/02"
		}
	}
	label := func(b model.Bucket) string { return b.Start.Format(layout) }
	plan, actual := comparisonSeries(st, buckets, label)
	return model.ChartModel{
		Kind:   model.ChartBar,
		Series: []model.Series{plan, actual},
		Config: merge(defaultConfig(title, axis), ov),
	}
}

// Progress segment labels and colors.
const (
	SegmentNoPlan    = "予定なし"
	SegmentActual    = "実績"
	SegmentRemaining = "未完了"
	SegmentOverage   = "超過"

	noPlanColor    = "#9CA3AF"
	remainingColor = "#3a3a3a"
	overageColor   = "#FBBF24"

	progressInnerRadius = 90
	progressStartAngle  = -90.0
)

// BuildProgressModel builds the progress donut for p.
//
// With nothing planned the donut is a single grey "予定なし" ring. Otherwise
// the actual wedge is drawn in the status color and the remaining plan in
// dark grey. When actual exceeds the plan, the actual wedge is capped at the
// plan and the excess is appended as "超過"; the whole ring then represents
// the actual total, so the overage never draws past a full circle.
func BuildProgressModel(pr analyze.Progress, ov model.Overrides) model.ChartModel {
	st := StyleFor(pr.Page)
	var segs []model.Segment
	switch {
	case pr.TotalPlanned <= 0:
		segs = append(segs, model.Segment{Label: SegmentNoPlan, Value: 100, Color: noPlanColor})
	default:
		remaining := pr.TotalPlanned - pr.Actual
		done := pr.Actual
		if remaining < 0 {
			done = pr.TotalPlanned
		}
		if done > 0 {
			segs = append(segs, model.Segment{Label: SegmentActual, Value: done, Color: pr.StatusColor})
		}
		if remaining > 0 {
			segs = append(segs, model.Segment{Label: SegmentRemaining, Value: remaining, Color: remainingColor})
		} else if remaining < 0 {
			segs = append(segs, model.Segment{Label: SegmentOverage, Value: -remaining, Color: overageColor})
		}
	}

	start := progressStartAngle
	cfg := defaultConfig(st.Subject+"進捗状況", "")
	cfg.YAxisLabel = ""
	cfg.ShowPercentages = true
	cfg.InnerRadius = progressInnerRadius
	cfg.StartAngle = &start
	return model.ChartModel{
		Kind:     model.ChartPie,
		Segments: segs,
		Config:   merge(cfg, ov),
	}
}

// BuildProcessModel builds a pie of per-process actual quantities, one
// segment per arrival process in workflow order.
func BuildProcessModel(pp []analyze.ProcessProgress, ov model.Overrides) model.ChartModel {
	segs := make([]model.Segment, 0, len(pp))
	for _, p := range pp {
		segs = append(segs, model.Segment{
			Label: fmt.Sprintf("%s %.0f%%", p.Process, p.Percentage),
			Value: p.Actual,
			Color: p.Color,
		})
	}
	cfg := defaultConfig("工程別進捗", "")
	cfg.YAxisLabel = ""
	cfg.ShowValues = true
	return model.ChartModel{Kind: model.ChartPie, Segments: segs, Config: merge(cfg, ov)}
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func comparisonSeries(st Style, buckets []model.Bucket, label func(model.Bucket) string) (model.Series, model.Series) {
	plan := model.Series{Name: st.PlanName, Color: st.PlanColor, Points: make([]model.Point, 0, len(buckets))}
	actual := model.Series{Name: st.ActualName, Color: st.ActualColor, Points: make([]model.Point, 0, len(buckets))}
	for _, b := range buckets {
		l := label(b)
		plan.Points = append(plan.Points, model.Point{X: b.Start, Label: l, Y: b.PlanTotal})
		actual.Points = append(actual.Points, model.Point{X: b.Start, Label: l, Y: b.ActualTotal})
	}
	return plan, actual
}

// spans reports whether the bucket starts differ when formatted with layout.
func spans(buckets []model.Bucket, layout string) bool {
	for _, b := range buckets {
		if b.Start.Format(layout) != buckets[0].Start.Format(layout) {
			return true
		}
	}
	return false
}

func defaultConfig(title, xAxis string) model.ChartConfig {
	return model.ChartConfig{
		Title:      title,
		XAxisLabel: xAxis,
		YAxisLabel: quantityAxis,
		ShowLegend: true,
		ShowGrid:   true,
		Animation:  true,
	}
}

func merge(cfg model.ChartConfig, ov model.Overrides) model.ChartConfig {
	if ov.Title != "" {
		cfg.Title = ov.Title
	}
	if ov.XAxisLabel != "" {
		cfg.XAxisLabel = ov.XAxisLabel
	}
	if ov.YAxisLabel != "" {
		cfg.YAxisLabel = ov.YAxisLabel
	}
	return cfg
}

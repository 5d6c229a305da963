// Package analyze computes plan-versus-actual summaries and progress over
// records and buckets. All functions are pure; no I/O.
package analyze

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/derickschaefer/yojitsu/internal/aggregate"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// ─── Summary ──────────────────────────────────────────────────────────────────

// Summary holds descriptive statistics for a bucketed plan/actual series.
type Summary struct {
	Page           model.Page `json:"page"`
	Buckets        int        `json:"buckets"`
	PlanTotal      float64    `json:"plan_total"`
	ActualTotal    float64    `json:"actual_total"`
	Gap            float64    `json:"gap"`             // ActualTotal - PlanTotal
	AchievementPct float64    `json:"achievement_pct"` // ActualTotal / PlanTotal * 100
	PlanMean       float64    `json:"plan_mean"`
	ActualMean     float64    `json:"actual_mean"`
	ActualMedian   float64    `json:"actual_median"`
	PeakPlanKey    string     `json:"peak_plan_key,omitempty"`
	PeakPlan       float64    `json:"peak_plan"`
	PeakActualKey  string     `json:"peak_actual_key,omitempty"`
	PeakActual     float64    `json:"peak_actual"`
	ShortBuckets   int        `json:"short_buckets"` // buckets where actual < plan
}

// Summarize computes descriptive statistics over buckets. Ratios that have
// no denominator are NaN.
func Summarize(page model.Page, buckets []model.Bucket) Summary {
	s := Summary{Page: page, Buckets: len(buckets)}
	if len(buckets) == 0 {
		s.AchievementPct = math.NaN()
		s.PlanMean = math.NaN()
		s.ActualMean = math.NaN()
		s.ActualMedian = math.NaN()
		return s
	}

	totals := aggregate.Sum(buckets)
	s.PlanTotal, s.ActualTotal = totals.Plan, totals.Actual

	actuals := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		actuals = append(actuals, b.ActualTotal)
		if s.PeakPlanKey == "" || b.PlanTotal > s.PeakPlan {
			s.PeakPlanKey, s.PeakPlan = b.Key, b.PlanTotal
		}
		if s.PeakActualKey == "" || b.ActualTotal > s.PeakActual {
			s.PeakActualKey, s.PeakActual = b.Key, b.ActualTotal
		}
		if b.ActualTotal < b.PlanTotal {
			s.ShortBuckets++
		}
	}

	n := float64(len(buckets))
	s.Gap = s.ActualTotal - s.PlanTotal
	s.PlanMean = s.PlanTotal / n
	s.ActualMean = s.ActualTotal / n
	sort.Float64s(actuals)
	s.ActualMedian = percentile(actuals, 50)
	if s.PlanTotal != 0 {
		s.AchievementPct = s.ActualTotal / s.PlanTotal * 100
	} else {
		s.AchievementPct = math.NaN()
	}
	return s
}

// MarshalJSON encodes NaN statistics as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	out := struct {
		plain
		AchievementPct *float64 `json:"achievement_pct"`
		PlanMean       *float64 `json:"plan_mean"`
		ActualMean     *float64 `json:"actual_mean"`
		ActualMedian   *float64 `json:"actual_median"`
	}{
		plain:          plain(s),
		AchievementPct: nullable(s.AchievementPct),
		PlanMean:       nullable(s.PlanMean),
		ActualMean:     nullable(s.ActualMean),
		ActualMedian:   nullable(s.ActualMedian),
	}
	return json.Marshal(out)
}

func nullable(v float64) *float64 {
	if !util.Finite(v) {
		return nil
	}
	return &v
}

// ─── Progress ─────────────────────────────────────────────────────────────────

// Status classifies actual progress against the plan up to now.
type Status string

const (
	StatusAhead   Status = "ahead"
	StatusOnTrack Status = "on-track"
	StatusDelayed Status = "delayed"
)

// tolerance is the share of the day's plan within which progress counts as
// on track.
const tolerance = 0.05

// Label returns the display label of s.
func (s Status) Label() string {
	switch s {
	case StatusAhead:
		return "先行"
	case StatusDelayed:
		return "遅延"
	default:
		return "予定通り"
	}
}

// Color returns the display color of s on page p. Ahead and delayed use
// the page palette; on-track is shared.
func (s Status) Color(p model.Page) string {
	switch {
	case s == StatusAhead && p == model.PageShipment:
		return "#50C878"
	case s == StatusAhead:
		return "#60A5FA"
	case s == StatusDelayed && p == model.PageShipment:
		return "#FF6B35"
	case s == StatusDelayed:
		return "#F87171"
	default:
		return "#34D399"
	}
}

// Progress compares actual completion with the plan at a point in time.
type Progress struct {
	Page            model.Page `json:"page"`
	Now             time.Time  `json:"now"`
	TotalPlanned    float64    `json:"total_planned"`
	PlannedUntilNow float64    `json:"planned_until_now"`
	Actual          float64    `json:"actual"`
	ProgressPct     float64    `json:"progress_pct"`
	ExpectedPct     float64    `json:"expected_pct"`
	Status          Status     `json:"status"`
	StatusLabel     string     `json:"status_label"`
	StatusColor     string     `json:"status_color"`
}

// ComputeProgress sums the day's plan, the plan due by now and the actuals
// recorded by now, and classifies the difference. Records with unparseable
// timestamps count toward the day's plan but never toward "by now"; each
// one produces a warning. Negative or non-finite quantities are skipped
// with a warning.
func ComputeProgress(page model.Page, plans, actuals []model.Record, now time.Time, loc *time.Location) (Progress, []string) {
	p := Progress{Page: page, Now: now}
	var warnings []string

	for _, r := range plans {
		if !validQuantity(r) {
			warnings = append(warnings, invalidQuantity(model.KindPlan, r))
			continue
		}
		p.TotalPlanned += r.Quantity
		due, err := atOrBefore(r, now, loc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("plan record %s: %v", r.ID, err))
			continue
		}
		if due {
			p.PlannedUntilNow += r.Quantity
		}
	}
	for _, r := range actuals {
		if !validQuantity(r) {
			warnings = append(warnings, invalidQuantity(model.KindActual, r))
			continue
		}
		done, err := atOrBefore(r, now, loc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("actual record %s: %v", r.ID, err))
			continue
		}
		if done {
			p.Actual += r.Quantity
		}
	}

	if p.TotalPlanned > 0 {
		p.ProgressPct = p.Actual / p.TotalPlanned * 100
		p.ExpectedPct = p.PlannedUntilNow / p.TotalPlanned * 100
	}
	p.Status = Classify(p.Actual, p.PlannedUntilNow, p.TotalPlanned)
	p.StatusLabel = p.Status.Label()
	p.StatusColor = p.Status.Color(page)
	return p, warnings
}

// Classify returns ahead when actual leads the plan-until-now by more than
// 5% of the day's plan, delayed when it trails by more, on-track otherwise.
// With nothing planned the status is on-track.
func Classify(actual, plannedUntilNow, totalPlanned float64) Status {
	if totalPlanned == 0 {
		return StatusOnTrack
	}
	tol := totalPlanned * tolerance
	diff := actual - plannedUntilNow
	switch {
	case diff > tol:
		return StatusAhead
	case diff < -tol:
		return StatusDelayed
	default:
		return StatusOnTrack
	}
}

// Headline is the percentage shown in the middle of the donut.
func (p Progress) Headline() string {
	return fmt.Sprintf("%d%%", int(math.Round(p.ProgressPct)))
}

// Detail describes actual against the day's plan.
func (p Progress) Detail() string {
	return fmt.Sprintf("実績: %s / 予定: %s", util.FormatValue(p.Actual), util.FormatValue(p.TotalPlanned))
}

// Expected describes how far actual leads or trails the plan up to now.
func (p Progress) Expected() string {
	diff := p.Actual - p.PlannedUntilNow
	switch {
	case diff > 0:
		return fmt.Sprintf("予定より %s 先行", util.FormatValue(diff))
	case diff < 0:
		return fmt.Sprintf("予定より %s 遅延", util.FormatValue(-diff))
	default:
		return "予定通り"
	}
}

// ─── Process progress ─────────────────────────────────────────────────────────

// ProcessProgress is the completion of one arrival process up to now.
type ProcessProgress struct {
	Process    string  `json:"process"`
	Planned    float64 `json:"planned"`
	Actual     float64 `json:"actual"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

var processColors = map[string]string{
	model.ProcessReceive: "#60A5FA",
	model.ProcessInspect: "#FBBF24",
	model.ProcessPutaway: "#34D399",
}

// ComputeProcessProgress returns one entry per arrival process, in workflow
// order. Only records at or before now count; the percentage is capped at
// 100 and is 0 when nothing of that process was due.
func ComputeProcessProgress(plans, actuals []model.Record, now time.Time, loc *time.Location) []ProcessProgress {
	out := make([]ProcessProgress, 0, len(model.ArrivalProcesses))
	for _, proc := range model.ArrivalProcesses {
		pp := ProcessProgress{Process: proc, Color: processColors[proc]}
		pp.Planned = sumDue(plans, proc, now, loc)
		pp.Actual = sumDue(actuals, proc, now, loc)
		if pp.Planned > 0 {
			pp.Percentage = math.Min(100, pp.Actual/pp.Planned*100)
		}
		out = append(out, pp)
	}
	return out
}

func sumDue(recs []model.Record, process string, now time.Time, loc *time.Location) float64 {
	var total float64
	for _, r := range recs {
		if r.Process != process || !validQuantity(r) {
			continue
		}
		if due, err := atOrBefore(r, now, loc); err == nil && due {
			total += r.Quantity
		}
	}
	return total
}

// validQuantity rejects negative and non-finite quantities, the same
// records aggregation skips.
func validQuantity(r model.Record) bool {
	return util.Finite(r.Quantity) && r.Quantity >= 0
}

func invalidQuantity(kind model.RecordKind, r model.Record) string {
	return fmt.Sprintf("%s record %s skipped: invalid quantity %g", kind, r.ID, r.Quantity)
}

func atOrBefore(r model.Record, now time.Time, loc *time.Location) (bool, error) {
	t, err := util.ParseTimestamp(r.Timestamp, loc)
	if err != nil {
		return false, err
	}
	return !t.After(now), nil
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

// percentile computes the p-th percentile of a sorted slice using linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	idx := p / 100 * float64(n-1)
	lo := int(math.Floor(idx))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// ─── Report ───────────────────────────────────────────────────────────────────

// Report bundles everything the progress view shows for one page.
type Report struct {
	Progress  Progress          `json:"progress"`
	Headline  string            `json:"headline"`
	Detail    string            `json:"detail"`
	Expected  string            `json:"expected"`
	Processes []ProcessProgress `json:"processes,omitempty"`
}

// NewReport fills in the display strings of p. Process progress is only
// attached for the arrival page.
func NewReport(p Progress, processes []ProcessProgress) Report {
	r := Report{Progress: p, Headline: p.Headline(), Detail: p.Detail(), Expected: p.Expected()}
	if p.Page == model.PageArrival {
		r.Processes = processes
	}
	return r
}

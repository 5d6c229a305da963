package render

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/yojitsu/internal/analyze"
	"github.com/derickschaefer/yojitsu/internal/geometry"
	"github.com/derickschaefer/yojitsu/internal/layout"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/store"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// Table is the flattened form of a result. Rows hold display strings;
// Raw holds the same cells unformatted, for CSV and TSV.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Raw     [][]string
	Align   []int
	Notes   []string
}

func (t *Table) add(display, raw []string) {
	t.Rows = append(t.Rows, display)
	t.Raw = append(t.Raw, raw)
}

// addSame appends a row whose display and raw cells are identical.
func (t *Table) addSame(row []string) { t.add(row, row) }

const (
	left  = tablewriter.ALIGN_LEFT
	right = tablewriter.ALIGN_RIGHT
)

// TableFor flattens result into a Table. It fails for payloads that have no
// tabular form; callers fall back to JSON.
func TableFor(result *model.Result) (*Table, error) {
	switch d := result.Data.(type) {
	case []model.Record:
		return recordsTable(d), nil
	case []model.Bucket:
		return bucketsTable(d), nil
	case analyze.Summary:
		return summaryTable(d), nil
	case analyze.Report:
		return reportTable(d), nil
	case geometry.Layout:
		return geometryTable(d)
	case layout.Board:
		return boardTable(d), nil
	case []layout.Pattern:
		return patternsTable(d), nil
	case []layout.GraphDefinition:
		return graphsTable(d), nil
	case []store.ImportInfo:
		return importsTable(d), nil
	case *model.Table:
		t := &Table{Headers: d.Headers}
		for _, r := range d.Rows {
			t.addSame(r)
		}
		return t, nil
	}
	return nil, fmt.Errorf("no table form for %s (%T)", result.Kind, result.Data)
}

// ─── Records & buckets ────────────────────────────────────────────────────────

func recordsTable(recs []model.Record) *Table {
	t := &Table{
		Headers: []string{"ID", "TIMESTAMP", "QUANTITY", "PROCESS", "DISTRICT", "CUSTOMER"},
		Align:   []int{left, left, right, left, left, left},
	}
	for _, r := range recs {
		t.add(
			[]string{r.ID, r.Timestamp, geometry.FormatNumber(r.Quantity), r.Process, r.District, r.CustomerID},
			[]string{r.ID, r.Timestamp, raw(r.Quantity), r.Process, r.District, r.CustomerID},
		)
	}
	return t
}

func bucketsTable(buckets []model.Bucket) *Table {
	t := &Table{
		Headers: []string{"BUCKET", "PLAN", "ACTUAL", "GAP"},
		Align:   []int{left, right, right, right},
	}
	for _, b := range buckets {
		gap := b.ActualTotal - b.PlanTotal
		t.add(
			[]string{b.Key, geometry.FormatNumber(b.PlanTotal), geometry.FormatNumber(b.ActualTotal), signed(gap)},
			[]string{b.Key, raw(b.PlanTotal), raw(b.ActualTotal), raw(gap)},
		)
	}
	return t
}

// ─── Analysis ─────────────────────────────────────────────────────────────────

func summaryTable(s analyze.Summary) *Table {
	t := &Table{Title: "Summary: " + string(s.Page), Headers: []string{"FIELD", "VALUE"}}
	rows := []struct {
		name string
		v    float64
		disp string
	}{
		{"buckets", float64(s.Buckets), strconv.Itoa(s.Buckets)},
		{"plan_total", s.PlanTotal, geometry.FormatNumber(s.PlanTotal)},
		{"actual_total", s.ActualTotal, geometry.FormatNumber(s.ActualTotal)},
		{"gap", s.Gap, signed(s.Gap)},
		{"achievement_pct", s.AchievementPct, pct(s.AchievementPct)},
		{"plan_mean", s.PlanMean, geometry.FormatNumber(s.PlanMean)},
		{"actual_mean", s.ActualMean, geometry.FormatNumber(s.ActualMean)},
		{"actual_median", s.ActualMedian, geometry.FormatNumber(s.ActualMedian)},
		{"peak_plan", s.PeakPlan, peak(s.PeakPlanKey, s.PeakPlan)},
		{"peak_actual", s.PeakActual, peak(s.PeakActualKey, s.PeakActual)},
		{"short_buckets", float64(s.ShortBuckets), strconv.Itoa(s.ShortBuckets)},
	}
	for _, r := range rows {
		t.add([]string{r.name, r.disp}, []string{r.name, raw(r.v)})
	}
	return t
}

func reportTable(r analyze.Report) *Table {
	p := r.Progress
	t := &Table{
		Title:   fmt.Sprintf("%s  %s  (%s)", r.Headline, p.StatusLabel, p.Page),
		Headers: []string{"FIELD", "VALUE"},
		Notes:   []string{r.Detail, r.Expected},
	}
	t.add([]string{"now", p.Now.Format("2006-01-02 15:04")}, []string{"now", p.Now.Format("2006-01-02T15:04:05Z07:00")})
	t.add([]string{"total_planned", geometry.FormatNumber(p.TotalPlanned)}, []string{"total_planned", raw(p.TotalPlanned)})
	t.add([]string{"planned_until_now", geometry.FormatNumber(p.PlannedUntilNow)}, []string{"planned_until_now", raw(p.PlannedUntilNow)})
	t.add([]string{"actual", geometry.FormatNumber(p.Actual)}, []string{"actual", raw(p.Actual)})
	t.add([]string{"progress_pct", pct(p.ProgressPct)}, []string{"progress_pct", raw(p.ProgressPct)})
	t.add([]string{"expected_pct", pct(p.ExpectedPct)}, []string{"expected_pct", raw(p.ExpectedPct)})
	t.addSame([]string{"status", string(p.Status)})
	for _, pp := range r.Processes {
		name := "process:" + pp.Process
		t.add(
			[]string{name, fmt.Sprintf("%s / %s (%s)", geometry.FormatNumber(pp.Actual), geometry.FormatNumber(pp.Planned), pct(pp.Percentage))},
			[]string{name, raw(pp.Percentage)},
		)
	}
	return t
}

// ─── Geometry ─────────────────────────────────────────────────────────────────

func geometryTable(l geometry.Layout) (*Table, error) {
	switch {
	case l.Line != nil:
		return lineTable(l.Line), nil
	case l.Bar != nil:
		return barTable(l.Bar), nil
	case l.Pie != nil:
		return pieTable(l.Pie), nil
	}
	return nil, fmt.Errorf("empty %s layout", l.Kind)
}

func lineTable(l *geometry.LineLayout) *Table {
	t := &Table{
		Title:   l.Config.Title,
		Headers: []string{"SERIES", "TIME", "VALUE", "X", "Y"},
		Align:   []int{left, left, right, right, right},
		Notes: []string{fmt.Sprintf("y: %s..%s step %s  x: %s..%s",
			geometry.FormatNumber(l.Range.Min), geometry.FormatNumber(l.Range.Max), geometry.FormatNumber(l.Range.Step),
			l.Domain.Start.Format("01/02 15:04"), l.Domain.End.Format("01/02 15:04"))},
	}
	for _, s := range l.Series {
		for _, m := range s.Markers {
			t.add(
				[]string{s.Name, m.Time, geometry.FormatNumber(m.Value), coord(m.X), coord(m.Y)},
				[]string{s.Name, m.Time, raw(m.Value), raw(m.X), raw(m.Y)},
			)
		}
	}
	return t
}

func barTable(b *geometry.BarLayout) *Table {
	t := &Table{
		Title:   b.Config.Title,
		Headers: []string{"CATEGORY", "SERIES", "VALUE", "X", "Y", "WIDTH", "HEIGHT"},
		Align:   []int{left, left, right, right, right, right, right},
		Notes: []string{fmt.Sprintf("y: %s..%s step %s",
			geometry.FormatNumber(b.Range.Min), geometry.FormatNumber(b.Range.Max), geometry.FormatNumber(b.Range.Step))},
	}
	for _, g := range b.Groups {
		for _, r := range g.Bars {
			t.add(
				[]string{g.Category, r.Series, geometry.FormatNumber(r.Value), coord(r.X), coord(r.Y), coord(r.Width), coord(r.Height)},
				[]string{g.Category, r.Series, raw(r.Value), raw(r.X), raw(r.Y), raw(r.Width), raw(r.Height)},
			)
		}
	}
	return t
}

func pieTable(p *geometry.PieLayout) *Table {
	t := &Table{
		Title:   p.Config.Title,
		Headers: []string{"SEGMENT", "VALUE", "PERCENT", "START", "END"},
		Align:   []int{left, right, right, right, right},
		Notes:   []string{fmt.Sprintf("total: %s", geometry.FormatNumber(p.Total))},
	}
	for _, a := range p.Arcs {
		t.add(
			[]string{a.Label, geometry.FormatNumber(a.Value), pct(a.Percentage), coord(a.StartAngle) + "°", coord(a.EndAngle) + "°"},
			[]string{a.Label, raw(a.Value), raw(a.Percentage), raw(a.StartAngle), raw(a.EndAngle)},
		)
	}
	return t
}

// ─── Layout ───────────────────────────────────────────────────────────────────

func boardTable(b layout.Board) *Table {
	t := &Table{
		Title:   fmt.Sprintf("%s  layout %s  (grid %s)", b.Page, b.Layout, b.GridTemplate),
		Headers: []string{"SLOT", "GRID AREA", "CHART", "GRAPH"},
	}
	for _, s := range b.Slots {
		label := s.Label
		if s.ChartID == "" {
			label = "(empty)"
		}
		t.add(
			[]string{strconv.Itoa(s.Slot), s.GridArea, s.ChartID, label},
			[]string{strconv.Itoa(s.Slot), s.GridArea, s.ChartID, string(s.Graph)},
		)
	}
	return t
}

func patternsTable(ps []layout.Pattern) *Table {
	t := &Table{Headers: []string{"TYPE", "LABEL", "SLOTS", "GRID", "DESCRIPTION"}}
	for _, p := range ps {
		t.addSame([]string{string(p.Type), p.Label, strconv.Itoa(p.Slots), p.GridTemplate, p.Description})
	}
	return t
}

func graphsTable(gs []layout.GraphDefinition) *Table {
	t := &Table{Headers: []string{"TYPE", "PAGE", "KIND", "LABEL"}}
	for _, g := range gs {
		t.addSame([]string{string(g.Type), string(g.Page), string(g.Kind), g.Label})
	}
	return t
}

func importsTable(infos []store.ImportInfo) *Table {
	t := &Table{
		Headers: []string{"PAGE", "KIND", "SET", "RECORDS", "QUANTITY", "SOURCE", "IMPORTED"},
		Align:   []int{left, left, left, right, right, left, left},
	}
	for _, i := range infos {
		t.add(
			[]string{string(i.Page), string(i.Kind), i.Set, strconv.Itoa(i.Count), geometry.FormatNumber(i.Quantity), i.Source, i.ImportedAt.Local().Format("2006-01-02 15:04")},
			[]string{string(i.Page), string(i.Kind), i.Set, strconv.Itoa(i.Count), raw(i.Quantity), i.Source, i.ImportedAt.Format("2006-01-02T15:04:05Z")},
		)
	}
	return t
}

// ─── Cell formatting ──────────────────────────────────────────────────────────

// raw formats a number for machine-readable output; NaN becomes ".".
func raw(v float64) string {
	if !util.Finite(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func coord(v float64) string {
	if !util.Finite(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func pct(v float64) string {
	if !util.Finite(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func signed(v float64) string {
	if v > 0 {
		return "+" + geometry.FormatNumber(v)
	}
	return geometry.FormatNumber(v)
}

func peak(key string, v float64) string {
	if key == "" {
		return "."
	}
	return fmt.Sprintf("%s @ %s", geometry.FormatNumber(v), key)
}

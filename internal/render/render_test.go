package render_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/yojitsu/internal/analyze"
	"github.com/derickschaefer/yojitsu/internal/geometry"
	"github.com/derickschaefer/yojitsu/internal/layout"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/render"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func bucketResult() *model.Result {
	t0 := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	return &model.Result{
		Kind:        model.KindBuckets,
		GeneratedAt: t0,
		Command:     "aggregate",
		Data: []model.Bucket{
			{Key: "2024-01-15T08:00", Start: t0, PlanTotal: 1500, ActualTotal: 1200},
			{Key: "2024-01-15T09:00", Start: t0.Add(time.Hour), PlanTotal: 50, ActualTotal: 75.5},
		},
		Warnings: []string{"plan record p9: bad timestamp"},
		Stats:    model.ResultStats{Items: 2, DurationMs: 3},
	}
}

func renderString(t *testing.T, r *model.Result, format string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render.Render(&buf, r, format); err != nil {
		t.Fatalf("Render(%s): %v", format, err)
	}
	return buf.String()
}

// ─── Formats ──────────────────────────────────────────────────────────────────

func TestValidFormat(t *testing.T) {
	for _, f := range render.Formats {
		if !render.ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false", f)
		}
	}
	if render.ValidFormat("xml") {
		t.Error("ValidFormat(xml) should be false")
	}
}

func TestRenderBucketsTable(t *testing.T) {
	out := renderString(t, bucketResult(), render.FormatTable)
	for _, want := range []string{"BUCKET", "2024-01-15T08:00", "1,500", "-300", "+25.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderBucketsCSVUsesRawValues(t *testing.T) {
	out := renderString(t, bucketResult(), render.FormatCSV)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "bucket,plan,actual,gap" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "2024-01-15T08:00,1500,1200,-300" {
		t.Errorf("row 1: got %q", lines[1])
	}
}

func TestRenderBucketsTSV(t *testing.T) {
	out := renderString(t, bucketResult(), render.FormatTSV)
	if !strings.HasPrefix(out, "bucket\tplan\tactual\tgap\n") {
		t.Errorf("unexpected TSV header:\n%s", out)
	}
}

func TestRenderBucketsMarkdown(t *testing.T) {
	out := renderString(t, bucketResult(), render.FormatMD)
	if !strings.HasPrefix(out, "| BUCKET | PLAN | ACTUAL | GAP |\n|----|----|----|----|\n") {
		t.Errorf("unexpected markdown header:\n%s", out)
	}
}

func TestRenderJSONEnvelope(t *testing.T) {
	out := renderString(t, bucketResult(), render.FormatJSON)
	var decoded struct {
		Kind string         `json:"kind"`
		Data []model.Bucket `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if decoded.Kind != model.KindBuckets || len(decoded.Data) != 2 {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestRenderJSONLOneLinePerElement(t *testing.T) {
	out := renderString(t, bucketResult(), render.FormatJSONL)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), out)
	}
	var b model.Bucket
	if err := json.Unmarshal([]byte(lines[1]), &b); err != nil {
		t.Fatalf("line 2: %v", err)
	}
	if b.Key != "2024-01-15T09:00" || b.ActualTotal != 75.5 {
		t.Errorf("line 2 decoded to %+v", b)
	}
}

func TestRenderYAML(t *testing.T) {
	out := renderString(t, bucketResult(), render.FormatYAML)
	var decoded map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, out)
	}
	if decoded["kind"] != model.KindBuckets {
		t.Errorf("kind: got %v", decoded["kind"])
	}
	if !strings.Contains(out, "plan_total: 1500") {
		t.Errorf("YAML should use json field names:\n%s", out)
	}
}

func TestRenderSummaryNaNAsNull(t *testing.T) {
	r := &model.Result{Kind: model.KindSummary, Data: analyze.Summarize(model.PageArrival, nil)}
	out := renderString(t, r, render.FormatJSON)
	if !strings.Contains(out, `"achievement_pct": null`) {
		t.Errorf("NaN achievement should encode as null:\n%s", out)
	}
	table := renderString(t, r, render.FormatTable)
	if !strings.Contains(table, "achievement_pct") {
		t.Errorf("summary table missing field rows:\n%s", table)
	}
}

func TestRenderUnknownPayloadFallsBackToJSON(t *testing.T) {
	r := &model.Result{Kind: "other", Data: map[string]int{"n": 1}}
	out := renderString(t, r, render.FormatTable)
	if !strings.Contains(out, `"n": 1`) {
		t.Errorf("expected JSON fallback, got:\n%s", out)
	}
}

// ─── Per-kind tables ──────────────────────────────────────────────────────────

func TestTableForPieGeometry(t *testing.T) {
	m := model.ChartModel{
		Kind:     model.ChartPie,
		Segments: []model.Segment{{Label: "実績", Value: 30}, {Label: "未完了", Value: 70}},
		Config:   model.ChartConfig{Title: "入荷進捗状況"},
	}
	l := geometry.Compute(m, geometry.DefaultPie(), time.Time{}, time.UTC)
	tbl, err := render.TableFor(&model.Result{Kind: model.KindGeometry, Data: l})
	if err != nil {
		t.Fatalf("TableFor: %v", err)
	}
	if tbl.Title != "入荷進捗状況" || len(tbl.Rows) != 2 {
		t.Fatalf("unexpected table %+v", tbl)
	}
	if tbl.Raw[0][2] != "30" || tbl.Rows[1][2] != "70.0%" {
		t.Errorf("percent cells: raw=%q display=%q", tbl.Raw[0][2], tbl.Rows[1][2])
	}
}

func TestTableForBoard(t *testing.T) {
	s := layout.NewStore()
	_ = s.SetLayout(layout.TwoColumns)
	if _, err := s.AddGraph(layout.ArrivalBar, 1); err != nil {
		t.Fatalf("AddGraph: %v", err)
	}
	tbl, err := render.TableFor(&model.Result{Kind: model.KindBoard, Data: s.Board()})
	if err != nil {
		t.Fatalf("TableFor: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected one row per slot, got %d", len(tbl.Rows))
	}
	if tbl.Rows[0][3] != "(empty)" {
		t.Errorf("slot 0 should be empty, got %q", tbl.Rows[0][3])
	}
	if tbl.Raw[1][3] != string(layout.ArrivalBar) {
		t.Errorf("slot 1 graph: got %q", tbl.Raw[1][3])
	}
}

func TestTableForReportIncludesProcesses(t *testing.T) {
	p := analyze.Progress{Page: model.PageArrival, TotalPlanned: 100, Actual: 40, ProgressPct: 40}
	rep := analyze.NewReport(p, []analyze.ProcessProgress{{Process: model.ProcessReceive, Planned: 10, Actual: 5, Percentage: 50}})
	tbl, err := render.TableFor(&model.Result{Kind: model.KindProgress, Data: rep})
	if err != nil {
		t.Fatalf("TableFor: %v", err)
	}
	last := tbl.Rows[len(tbl.Rows)-1]
	if last[0] != "process:入荷" || !strings.Contains(last[1], "50.0%") {
		t.Errorf("last row: %v", last)
	}
	if len(tbl.Notes) != 2 {
		t.Errorf("expected detail and expected notes, got %v", tbl.Notes)
	}
}

func TestTableForGenericTable(t *testing.T) {
	tbl, err := render.TableFor(&model.Result{Kind: model.KindTable, Data: &model.Table{
		Headers: []string{"KEY", "VALUE"},
		Rows:    [][]string{{"a", "1"}},
	}})
	if err != nil {
		t.Fatalf("TableFor: %v", err)
	}
	if len(tbl.Rows) != 1 || tbl.Raw[0][1] != "1" {
		t.Errorf("unexpected %+v", tbl)
	}
}

// ─── Footer ───────────────────────────────────────────────────────────────────

func TestPrintFooter(t *testing.T) {
	var buf bytes.Buffer
	render.PrintFooter(&buf, bucketResult(), false)
	if got := buf.String(); got != "⚠  plan record p9: bad timestamp\n" {
		t.Errorf("quiet footer: got %q", got)
	}

	buf.Reset()
	render.PrintFooter(&buf, bucketResult(), true)
	if !strings.Contains(buf.String(), "2 items") || !strings.Contains(buf.String(), "3ms") {
		t.Errorf("verbose footer missing stats: %q", buf.String())
	}
}

func TestRenderRawNaN(t *testing.T) {
	r := &model.Result{Kind: model.KindBuckets, Data: []model.Bucket{{Key: "k", PlanTotal: math.NaN()}}}
	out := renderString(t, r, render.FormatCSV)
	if !strings.Contains(out, "k,.,0,.") {
		t.Errorf("NaN cells should render as '.': %q", out)
	}
}

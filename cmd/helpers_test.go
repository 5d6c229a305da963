package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/derickschaefer/yojitsu/internal/analyze"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/util"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

const planJSONL = `{"id":"P-1","quantity":100,"timestamp":"2024-01-15T08:10:00","process":"入荷"}
{"id":"P-2","quantity":50,"timestamp":"2024-01-15T08:40:00","process":"検品"}
{"id":"P-3","quantity":150,"timestamp":"2024-01-15T10:00:00","process":"入荷"}
`

const actualJSONL = `{"id":"A-1","quantity":90,"timestamp":"2024-01-15T08:20:00","process":"入荷"}
not json
{"id":"A-2","quantity":40,"timestamp":"2024-01-15T09:05:00","process":"検品"}
{"id":"A-3","quantity":10,"timestamp":"yesterday","process":"入荷"}
`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// resetFlags puts every flag of c and its subcommands back to its default.
// Cobra keeps parsed values in the bound variables between runs.
func resetFlags(t *testing.T, c *cobra.Command) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("resetting --%s on %s: %v", f.Name, c.Name(), err)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(t, sub)
	}
}

// run executes the root command with args and returns what it wrote.
func run(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(t, rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("yojitsu %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func decodeData(t *testing.T, out string, into interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("decoding result envelope: %v\n%s", err, out)
	}
	if err := json.Unmarshal(env.Data, into); err != nil {
		t.Fatalf("decoding data: %v\n%s", err, env.Data)
	}
}

// ─── outputWriter / resolveFormat ─────────────────────────────────────────────

func TestOutputWriterDefault(t *testing.T) {
	globalFlags.Out = ""
	w, closeFn, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter default: %v", err)
	}
	if w != os.Stdout {
		t.Fatalf("expected stdout writer passthrough")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("default closer should be nil error, got: %v", err)
	}
}

func TestOutputWriterFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.txt")
	globalFlags.Out = p
	t.Cleanup(func() { globalFlags.Out = "" })

	w, closeFn, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter file: %v", err)
	}
	if w == os.Stdout {
		t.Fatalf("expected file writer, got stdout")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("closing output writer: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
}

func TestResolveFormat(t *testing.T) {
	t.Cleanup(func() { globalFlags.Format = "" })

	globalFlags.Format = ""
	if got, _ := resolveFormat(""); got != "table" {
		t.Errorf("empty format should default to table, got %q", got)
	}
	if got, _ := resolveFormat("csv"); got != "csv" {
		t.Errorf("config format should apply, got %q", got)
	}
	globalFlags.Format = "yaml"
	if got, _ := resolveFormat("csv"); got != "yaml" {
		t.Errorf("flag should win over config, got %q", got)
	}
	globalFlags.Format = "xml"
	if _, err := resolveFormat(""); err == nil {
		t.Error("unknown format should be rejected")
	}
}

// ─── Record loading helpers ───────────────────────────────────────────────────

func TestDecodeWarningsSplitsMultiError(t *testing.T) {
	var me util.MultiError
	me.Add(errors.New("line 2: invalid JSON"))
	me.Add(errors.New("line 5: invalid JSON"))
	wrapped := errors.Join(errors.New("ctx"), me.Err())

	if got := decodeWarnings(wrapped); len(got) != 2 {
		t.Errorf("expected 2 warnings, got %v", got)
	}
	if fatalOnly(wrapped) != nil {
		t.Error("decode errors must not be fatal")
	}
	diskErr := errors.New("disk on fire")
	if fatalOnly(diskErr) != diskErr || decodeWarnings(diskErr) != nil {
		t.Error("plain errors must stay fatal and produce no warnings")
	}
}

func TestParseNow(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	got, err := parseNow("2024-01-15T14:00", loc)
	if err != nil {
		t.Fatalf("parseNow: %v", err)
	}
	if got.Hour() != 14 || got.Location() != loc {
		t.Errorf("expected 14:00 in JST, got %v", got)
	}
	if _, err := parseNow("lunchtime", loc); err == nil {
		t.Error("expected error for malformed --now")
	}
	if now, _ := parseNow("", loc); now.IsZero() {
		t.Error("empty --now should be the current time")
	}
}

// ─── Commands ─────────────────────────────────────────────────────────────────

func TestImportThenAggregate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "y.db")
	plans := writeTemp(t, "plan.jsonl", planJSONL)
	actuals := writeTemp(t, "actual.jsonl", actualJSONL)

	out := run(t, "--db", db, "--tz", "UTC", "import", "arrival", "--kind", "plan", plans)
	if !strings.Contains(out, "Stored 3 arrival plan records") {
		t.Errorf("unexpected import output: %q", out)
	}
	run(t, "--db", db, "--tz", "UTC", "import", "arrival", "--kind", "actual", actuals)

	out = run(t, "--db", db, "--tz", "UTC", "--format", "json", "aggregate", "--page", "arrival")
	var buckets []model.Bucket
	decodeData(t, out, &buckets)

	want := []model.Bucket{
		{Key: "2024-01-15T08:00", PlanTotal: 150, ActualTotal: 90},
		{Key: "2024-01-15T09:00", PlanTotal: 0, ActualTotal: 40},
		{Key: "2024-01-15T10:00", PlanTotal: 150, ActualTotal: 0},
	}
	if len(buckets) != len(want) {
		t.Fatalf("expected %d buckets, got %d: %+v", len(want), len(buckets), buckets)
	}
	for i, w := range want {
		b := buckets[i]
		if b.Key != w.Key || b.PlanTotal != w.PlanTotal || b.ActualTotal != w.ActualTotal {
			t.Errorf("bucket %d: expected %+v, got %+v", i, w, b)
		}
	}
}

func TestAggregateFromFilesWithSummary(t *testing.T) {
	plans := writeTemp(t, "plan.jsonl", planJSONL)
	actuals := writeTemp(t, "actual.jsonl", actualJSONL)
	db := filepath.Join(t.TempDir(), "unused.db")

	out := run(t, "--db", db, "--tz", "UTC", "--format", "json",
		"aggregate", "--plans", plans, "--actuals", actuals, "--granularity", "day", "--summary")
	var s struct {
		Buckets     int     `json:"buckets"`
		PlanTotal   float64 `json:"plan_total"`
		ActualTotal float64 `json:"actual_total"`
	}
	decodeData(t, out, &s)
	if s.Buckets != 1 || s.PlanTotal != 300 || s.ActualTotal != 130 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if _, err := os.Stat(db); !os.IsNotExist(err) {
		t.Error("reading from files must not open the store")
	}
}

func TestProgressReport(t *testing.T) {
	plans := writeTemp(t, "plan.jsonl", planJSONL)
	actuals := writeTemp(t, "actual.jsonl", actualJSONL)

	out := run(t, "--tz", "UTC", "--format", "json", "progress",
		"--page", "arrival", "--plans", plans, "--actuals", actuals, "--now", "2024-01-15T09:30:00")
	var r analyze.Report
	decodeData(t, out, &r)

	if r.Progress.TotalPlanned != 300 || r.Progress.PlannedUntilNow != 150 || r.Progress.Actual != 130 {
		t.Errorf("unexpected progress: %+v", r.Progress)
	}
	// 130 against 150 due trails by more than 5% of 300
	if r.Progress.Status != analyze.StatusDelayed {
		t.Errorf("expected delayed, got %s", r.Progress.Status)
	}
	if len(r.Processes) != 3 {
		t.Errorf("arrival report should list 3 processes, got %d", len(r.Processes))
	}
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	plans := writeTemp(t, "plan.jsonl", planJSONL)
	actuals := writeTemp(t, "actual.jsonl", actualJSONL)

	run(t, "--tz", "UTC", "--format", "json", "aggregate",
		"--plans", plans, "--actuals", actuals, "--granularity", "day", "--page", "shipment")
	if aggGranularity != "day" || aggFlags.Page != "shipment" {
		t.Fatalf("flags were not parsed: %q %q", aggGranularity, aggFlags.Page)
	}
	run(t, "--tz", "UTC", "chart", "bar", "--plans", plans, "--actuals", actuals,
		"--preview", "--granularity", "day")

	resetFlags(t, rootCmd)
	if aggGranularity != "hour" || aggFlags.Page != "arrival" || aggFlags.Plans != "" {
		t.Errorf("aggregate flags leaked: granularity=%q page=%q plans=%q",
			aggGranularity, aggFlags.Page, aggFlags.Plans)
	}
	if chartBarFlags.granularity != "hour" || chartBarFlags.records.Actuals != "" {
		t.Errorf("chart bar flags leaked: %+v", chartBarFlags)
	}
	if globalFlags.Format != "" || globalFlags.Timezone != "" {
		t.Errorf("global flags leaked: %+v", globalFlags)
	}

	out := run(t, "--tz", "UTC", "--format", "json", "aggregate", "--plans", plans, "--actuals", actuals)
	var buckets []model.Bucket
	decodeData(t, out, &buckets)
	if len(buckets) != 3 {
		t.Errorf("second run should use hourly buckets again, got %d", len(buckets))
	}
}

func TestChartLineHelpMatchesRenderers(t *testing.T) {
	help := chartLineCmd.Long
	if strings.Contains(help, "dashed") {
		t.Error("line help must not promise a dashed plan series")
	}
	if !strings.Contains(help, "30 minutes") || !strings.Contains(help, "23:59:59") {
		t.Errorf("line help should describe the padded time axis:\n%s", help)
	}
}

func TestChartLineWritesSVG(t *testing.T) {
	plans := writeTemp(t, "plan.jsonl", planJSONL)
	actuals := writeTemp(t, "actual.jsonl", actualJSONL)
	svgPath := filepath.Join(t.TempDir(), "line.svg")

	run(t, "--tz", "UTC", "--quiet", "chart", "line", "--plans", plans, "--actuals", actuals,
		"--svg", svgPath, "--width", "640", "--height", "240")
	data, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatalf("reading svg: %v", err)
	}
	if n := strings.Count(string(data), `class="series"`); n != 2 {
		t.Errorf("expected 2 series paths, got %d", n)
	}
	if !strings.Contains(string(data), `width="640"`) {
		t.Error("svg should use the requested width")
	}
}

func TestChartBarPreview(t *testing.T) {
	plans := writeTemp(t, "plan.jsonl", planJSONL)
	actuals := writeTemp(t, "actual.jsonl", actualJSONL)

	out := run(t, "--tz", "UTC", "chart", "bar", "--plans", plans, "--actuals", actuals, "--preview")
	if !strings.Contains(out, "08:00") || !strings.Contains(out, "█") {
		t.Errorf("preview should draw bars per hour:\n%s", out)
	}
}

func TestLayoutApplyBoard(t *testing.T) {
	script := writeTemp(t, "board.yaml", `steps:
  - page: shipment
  - layout: 2x2
  - add: {graph: shipment-bar, slot: 3}
  - add: {graph: shipment-pie, slot: 0}
  - layout: 1x2
`)
	plans := writeTemp(t, "plan.jsonl", planJSONL)
	actuals := writeTemp(t, "actual.jsonl", actualJSONL)
	html := filepath.Join(t.TempDir(), "board.html")

	out := run(t, "--tz", "UTC", "--format", "json", "layout", "apply", script,
		"--html", html, "--plans", plans, "--actuals", actuals, "--now", "2024-01-15T12:00")
	var b struct {
		Page   string `json:"page"`
		Layout string `json:"layout"`
		Slots  []struct {
			Slot  int    `json:"slot"`
			Graph string `json:"graph"`
		} `json:"slots"`
	}
	decodeData(t, out, &b)
	if b.Page != "shipment" || b.Layout != "1x2" || len(b.Slots) != 2 {
		t.Fatalf("unexpected board: %+v", b)
	}
	if b.Slots[0].Graph != "shipment-pie" || b.Slots[1].Graph != "" {
		t.Errorf("slot 3 graph should be evicted, slot 0 kept: %+v", b.Slots)
	}
	data, err := os.ReadFile(html)
	if err != nil {
		t.Fatalf("reading board html: %v", err)
	}
	if !strings.Contains(string(data), "echart-box") {
		t.Error("board should embed the pie chart")
	}
}

func TestConfigSetAndGet(t *testing.T) {
	dir := t.TempDir()
	orig, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	run(t, "config", "set", "chart_width", "1024")
	out := run(t, "config", "get")
	if !strings.Contains(out, "1024") {
		t.Errorf("config get should show the new width:\n%s", out)
	}
}

package pipeline_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/pipeline"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// jsonl joins lines with newlines and appends a trailing newline.
func jsonl(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// ─── ReadRecords ──────────────────────────────────────────────────────────────

func TestReadBasic(t *testing.T) {
	input := jsonl(
		`{"id":"p1","quantity":10,"timestamp":"2024-01-15T08:00:00"}`,
		`{"id":"p2","quantity":20.5,"timestamp":"2024-01-15T09:30:00","district":"東京"}`,
	)
	recs, err := pipeline.ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "p1" || recs[0].Quantity != 10 {
		t.Errorf("recs[0]: got %+v", recs[0])
	}
	if recs[1].Quantity != 20.5 || recs[1].District != "東京" {
		t.Errorf("recs[1]: got %+v", recs[1])
	}
}

func TestReadAllFields(t *testing.T) {
	input := `{"id":"a1","ref_id":"r","plan_id":"p","item_id":"i","sku_id":"s","hu_id":"h","quantity":3,"timestamp":"2024-01-15T10:00:00","process":"検品","district":"d","customer_id":"c"}`
	recs, err := pipeline.ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.Record{
		ID: "a1", RefID: "r", PlanID: "p", ItemID: "i", SKUID: "s", HUID: "h",
		Quantity: 3, Timestamp: "2024-01-15T10:00:00", Process: "検品",
		District: "d", CustomerID: "c",
	}
	if len(recs) != 1 || recs[0] != want {
		t.Errorf("got %+v, want %+v", recs, want)
	}
}

func TestReadSkipsBlankAndCommentLines(t *testing.T) {
	input := jsonl(
		`// exported 2024-01-15`,
		``,
		`{"id":"p1","quantity":1,"timestamp":"2024-01-15T08:00:00"}`,
		`   `,
		`{"id":"p2","quantity":2,"timestamp":"2024-01-15T09:00:00"}`,
	)
	recs, err := pipeline.ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 records, got %d", len(recs))
	}
}

func TestReadArrayLine(t *testing.T) {
	input := jsonl(
		`[{"id":"a","quantity":1,"timestamp":"2024-01-15T08:00:00"},{"id":"b","quantity":2,"timestamp":"2024-01-15T08:10:00"}]`,
		`{"id":"c","quantity":3,"timestamp":"2024-01-15T09:00:00"}`,
	)
	recs, err := pipeline.ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 || recs[2].ID != "c" {
		t.Errorf("expected 3 records ending in c, got %+v", recs)
	}
}

func TestReadEmptyInput(t *testing.T) {
	recs, err := pipeline.ReadRecords(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty input should not error: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", recs)
	}
}

func TestReadInvalidLinesCollected(t *testing.T) {
	input := jsonl(
		`{"id":"ok1","quantity":1,"timestamp":"2024-01-15T08:00:00"}`,
		`{not json}`,
		`{"id":"bad","quantity":"lots"}`,
		`{"id":"ok2","quantity":2,"timestamp":"2024-01-15T09:00:00"}`,
	)
	recs, err := pipeline.ReadRecords(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for invalid lines")
	}
	var me *util.MultiError
	if !errors.As(err, &me) {
		t.Fatalf("expected *util.MultiError, got %T", err)
	}
	if len(me.Errors) != 2 {
		t.Errorf("expected 2 collected errors, got %d: %v", len(me.Errors), err)
	}
	if !strings.Contains(err.Error(), "line 2") || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name the bad lines: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "ok1" || recs[1].ID != "ok2" {
		t.Errorf("valid records should still be returned, got %+v", recs)
	}
}

func TestReadLargeInput(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&sb, `{"id":"r%d","quantity":%d,"timestamp":"2024-01-15T%02d:00:00"}`+"\n", i, i%7, i%24)
	}
	recs, err := pipeline.ReadRecords(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 5000 {
		t.Errorf("expected 5000 records, got %d", len(recs))
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := pipeline.ReadFile("/nonexistent/records.jsonl")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

// ─── WriteJSONL ───────────────────────────────────────────────────────────────

func TestWriteOneLinePerRecord(t *testing.T) {
	recs := []model.Record{
		{ID: "a", Quantity: 1, Timestamp: "2024-01-15T08:00:00"},
		{ID: "b", Quantity: 2, Timestamp: "2024-01-15T09:00:00"},
		{ID: "c", Quantity: 3, Timestamp: "2024-01-15T10:00:00"},
	}
	var buf bytes.Buffer
	if err := pipeline.WriteJSONL(&buf, recs); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	if lines := nonEmptyLines(buf.String()); len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(lines))
	}
}

func TestWriteKeepsJapaneseUnescaped(t *testing.T) {
	var buf bytes.Buffer
	_ = pipeline.WriteJSONL(&buf, []model.Record{{ID: "a", Process: model.ProcessReceive}})
	if !strings.Contains(buf.String(), `"process":"入荷"`) {
		t.Errorf("expected literal process name, got %s", buf.String())
	}
}

func TestWriteEmptySlice(t *testing.T) {
	var buf bytes.Buffer
	if err := pipeline.WriteJSONL(&buf, nil); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

// ─── Round-trip ───────────────────────────────────────────────────────────────

func TestRoundTrip(t *testing.T) {
	in := []model.Record{
		{ID: "a1", PlanID: "p1", Quantity: 12.25, Timestamp: "2024-01-15T08:15:00", Process: model.ProcessPutaway},
		{ID: "a2", Quantity: 0, Timestamp: "2024-01-15T23:59:00", CustomerID: "C-9"},
	}
	var buf bytes.Buffer
	if err := pipeline.WriteJSONL(&buf, in); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	out, err := pipeline.ReadRecords(&buf)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d records, got %d", len(in), len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("record %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

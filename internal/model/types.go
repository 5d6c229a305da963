// Package model defines the canonical data types used throughout yojitsu.
// These types are the single source of truth for plan/actual records, the
// aggregated buckets and chart models built from them, and the result
// envelope that every command returns.
package model

import (
	"fmt"
	"math"
	"time"
)

// ─── Pages & Records ──────────────────────────────────────────────────────────

// Page identifies one of the two dashboard pages.
type Page string

const (
	PageArrival  Page = "arrival"
	PageShipment Page = "shipment"
)

// Pages lists every page in display order.
var Pages = []Page{PageArrival, PageShipment}

// Valid reports whether p is a known page.
func (p Page) Valid() bool {
	return p == PageArrival || p == PageShipment
}

// ParsePage converts a user-supplied string into a Page.
func ParsePage(s string) (Page, error) {
	p := Page(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown page %q (valid: arrival, shipment)", s)
	}
	return p, nil
}

// RecordKind distinguishes planned quantities from recorded actuals.
type RecordKind string

const (
	KindPlan   RecordKind = "plan"
	KindActual RecordKind = "actual"
)

// Valid reports whether k is a known record kind.
func (k RecordKind) Valid() bool {
	return k == KindPlan || k == KindActual
}

// ParseRecordKind converts a user-supplied string into a RecordKind.
func ParseRecordKind(s string) (RecordKind, error) {
	k := RecordKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown record kind %q (valid: plan, actual)", s)
	}
	return k, nil
}

// Record is a single plan or actual line for an arrival or a shipment.
// Timestamp is kept as the raw ISO-8601 string supplied by the data source;
// the aggregator parses it. Records are never modified after they are read.
type Record struct {
	ID         string  `json:"id"`
	RefID      string  `json:"ref_id,omitempty"`
	PlanID     string  `json:"plan_id,omitempty"`
	ItemID     string  `json:"item_id,omitempty"`
	SKUID      string  `json:"sku_id,omitempty"`
	HUID       string  `json:"hu_id,omitempty"`
	Quantity   float64 `json:"quantity"`
	Timestamp  string  `json:"timestamp"`
	Process    string  `json:"process,omitempty"`
	District   string  `json:"district,omitempty"`
	CustomerID string  `json:"customer_id,omitempty"`
}

// Arrival processes, in workflow order.
const (
	ProcessReceive = "入荷"
	ProcessInspect = "検品"
	ProcessPutaway = "入庫"
)

// ArrivalProcesses lists the arrival processes in workflow order.
var ArrivalProcesses = []string{ProcessReceive, ProcessInspect, ProcessPutaway}

// ─── Aggregation ──────────────────────────────────────────────────────────────

// Granularity is the width of an aggregation bucket.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
)

// ParseGranularity converts a user-supplied string into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityHour, GranularityDay:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("unknown granularity %q (valid: hour, day)", s)
}

// Bucket holds the plan and actual totals for one hour or one day.
// Key is "YYYY-MM-DDTHH:00" for hourly buckets and "YYYY-MM-DD" for daily
// buckets; Start is the parsed beginning of the bucket.
type Bucket struct {
	Key         string    `json:"key"`
	Start       time.Time `json:"start"`
	PlanTotal   float64   `json:"plan_total"`
	ActualTotal float64   `json:"actual_total"`
}

// ─── Chart Models ─────────────────────────────────────────────────────────────

// ChartKind identifies how a chart model is drawn.
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
	ChartPie  ChartKind = "pie"
)

// Point is a single value of a series. Line charts position points by X;
// bar charts group them by Label.
type Point struct {
	X     time.Time `json:"x"`
	Label string    `json:"label"`
	Y     float64   `json:"y"`
}

// Series is one named, colored sequence of points.
type Series struct {
	Name       string  `json:"name"`
	Points     []Point `json:"points"`
	Color      string  `json:"color"`
	LineWidth  float64 `json:"line_width,omitempty"`
	ShowPoints bool    `json:"show_points,omitempty"`
	Dashed     bool    `json:"dashed,omitempty"`
}

// ValuesByLabel sums the finite point values of s per label. Every
// renderer that places points by label reads them through this, so points
// sharing a label are drawn as one summed value everywhere.
func (s Series) ValuesByLabel() map[string]float64 {
	out := make(map[string]float64, len(s.Points))
	for _, p := range s.Points {
		if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			continue
		}
		out[p.Label] += p.Y
	}
	return out
}

// Segment is one wedge of a pie or donut chart.
type Segment struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// ChartConfig carries titles and display switches for a chart.
type ChartConfig struct {
	Title           string   `json:"title"`
	XAxisLabel      string   `json:"x_axis_label,omitempty"`
	YAxisLabel      string   `json:"y_axis_label,omitempty"`
	ShowLegend      bool     `json:"show_legend"`
	ShowGrid        bool     `json:"show_grid"`
	Animation       bool     `json:"animation"`
	HideLabels      bool     `json:"hide_labels,omitempty"`
	ShowPercentages bool     `json:"show_percentages,omitempty"`
	ShowValues      bool     `json:"show_values,omitempty"`
	InnerRadius     float64  `json:"inner_radius,omitempty"`
	StartAngle      *float64 `json:"start_angle,omitempty"`
}

// Overrides are caller-supplied chart settings. Non-empty fields win over
// the builder defaults.
type Overrides struct {
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	XAxisLabel string `json:"x_axis_label,omitempty" yaml:"x_axis_label,omitempty"`
	YAxisLabel string `json:"y_axis_label,omitempty" yaml:"y_axis_label,omitempty"`
}

// ChartModel is a renderer-independent description of a chart.
type ChartModel struct {
	Kind     ChartKind   `json:"kind"`
	Series   []Series    `json:"series,omitempty"`
	Segments []Segment   `json:"segments,omitempty"`
	Config   ChartConfig `json:"config"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries performance metadata for a command result.
type ResultStats struct {
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindRecords  = "records"
	KindBuckets  = "buckets"
	KindGeometry = "geometry"
	KindProgress = "progress"
	KindBoard    = "board"
	KindPatterns = "patterns"
	KindGraphs   = "graphs"
	KindSummary  = "summary"
	KindImports  = "imports"
	KindTable    = "table"
)

// Table is a pre-formatted grid for results that have no dedicated
// renderer.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

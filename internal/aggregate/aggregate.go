// Package aggregate groups plan and actual records into hourly or daily
// buckets. Every operator is a pure function; no side effects, no I/O.
// Data problems are reported as warnings, never as errors.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// Options controls bucketing.
type Options struct {
	Granularity model.Granularity
	// Location is the zone bucket boundaries are computed in. Nil means UTC.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// ─── Aggregate ────────────────────────────────────────────────────────────────

// Aggregate sums plan and actual quantities into buckets keyed by hour or
// day and returns them in ascending key order. Records whose timestamp
// cannot be parsed or whose quantity is negative or not finite are skipped,
// with one warning each. Empty input yields an empty, non-nil slice.
func Aggregate(plans, actuals []model.Record, opts Options) ([]model.Bucket, []string) {
	loc := opts.location()
	buckets := make(map[string]*model.Bucket)
	var warnings []string

	add := func(kind model.RecordKind, recs []model.Record) {
		for _, r := range recs {
			t, err := util.ParseTimestamp(r.Timestamp, loc)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s record %s skipped: %v", kind, recordRef(r), err))
				continue
			}
			if !util.Finite(r.Quantity) || r.Quantity < 0 {
				warnings = append(warnings, fmt.Sprintf("%s record %s skipped: invalid quantity %g",
					kind, recordRef(r), r.Quantity))
				continue
			}
			key, start := BucketKey(t, opts.Granularity)
			b, ok := buckets[key]
			if !ok {
				b = &model.Bucket{Key: key, Start: start}
				buckets[key] = b
			}
			if kind == model.KindPlan {
				b.PlanTotal += r.Quantity
			} else {
				b.ActualTotal += r.Quantity
			}
		}
	}
	add(model.KindPlan, plans)
	add(model.KindActual, actuals)

	sorted := make([]string, 0, len(buckets))
	for k := range buckets {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	out := make([]model.Bucket, 0, len(sorted))
	for _, k := range sorted {
		out = append(out, *buckets[k])
	}
	return out, warnings
}

// BucketKey returns the sortable key and the start instant of the bucket
// containing t. Keys are always zero-padded so lexicographic order equals
// chronological order.
func BucketKey(t time.Time, g model.Granularity) (string, time.Time) {
	switch g {
	case model.GranularityDay:
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day()), start
	default: // hour
		start := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
		return fmt.Sprintf("%04d-%02d-%02dT%02d:00", t.Year(), t.Month(), t.Day(), t.Hour()), start
	}
}

func recordRef(r model.Record) string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("%q", r.Timestamp)
}

// ─── Filter ───────────────────────────────────────────────────────────────────

// FilterOptions describes a record filter predicate. Zero fields match all.
type FilterOptions struct {
	From       time.Time // keep records at or after From
	Before     time.Time // keep records strictly before Before
	District   string
	CustomerID string
	Process    string
	Location   *time.Location
}

// Filter returns the records matching every non-zero criterion in opts.
// Records with unparseable timestamps are dropped only when a time bound is
// set; otherwise they pass through so Aggregate can report them.
func Filter(recs []model.Record, opts FilterOptions) []model.Record {
	timed := !opts.From.IsZero() || !opts.Before.IsZero()
	out := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		if opts.District != "" && r.District != opts.District {
			continue
		}
		if opts.CustomerID != "" && r.CustomerID != opts.CustomerID {
			continue
		}
		if opts.Process != "" && r.Process != opts.Process {
			continue
		}
		if timed {
			t, err := util.ParseTimestamp(r.Timestamp, opts.Location)
			if err != nil {
				continue
			}
			if !opts.From.IsZero() && t.Before(opts.From) {
				continue
			}
			if !opts.Before.IsZero() && !t.Before(opts.Before) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// ─── Totals ───────────────────────────────────────────────────────────────────

// Totals is the sum of every bucket.
type Totals struct {
	Plan   float64 `json:"plan"`
	Actual float64 `json:"actual"`
}

// Sum adds up the plan and actual totals across buckets.
func Sum(buckets []model.Bucket) Totals {
	var t Totals
	for _, b := range buckets {
		t.Plan += b.PlanTotal
		t.Actual += b.ActualTotal
	}
	return t
}

// Cumulative returns buckets whose totals are running sums of the input.
// Keys and order are preserved.
func Cumulative(buckets []model.Bucket) []model.Bucket {
	out := make([]model.Bucket, len(buckets))
	var plan, actual float64
	for i, b := range buckets {
		plan += b.PlanTotal
		actual += b.ActualTotal
		out[i] = model.Bucket{Key: b.Key, Start: b.Start, PlanTotal: round(plan), ActualTotal: round(actual)}
	}
	return out
}

// round trims float accumulation noise to 1e-9.
func round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

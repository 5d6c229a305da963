// Package scale computes value and time ranges for chart axes. Maxima are
// rounded up to "nice" numbers drawn from a small mantissa set so that tick
// labels stay readable. All functions are deterministic and stateless.
package scale

import (
	"math"
	"time"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// DefaultTargetSteps is the number of intervals an axis aims for.
const DefaultTargetSteps = 5

// EmptyMax is the axis maximum used when there is no positive data.
const EmptyMax = 100

// headroom is applied to the data maximum before rounding.
const headroom = 1.05

// TimePadding is added on both sides of a time domain.
const TimePadding = 30 * time.Minute

var (
	niceMantissas = []float64{1, 1.5, 2, 2.5, 4, 5, 6, 8, 10}
	stepMantissas = []float64{1, 1.5, 2, 2.5, 5, 10}
)

// Range is a value axis from Min to Max in increments of Step.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Span returns Max-Min, or 1 when the range is degenerate.
func (r Range) Span() float64 {
	span := r.Max - r.Min
	if span == 0 || !util.Finite(span) {
		return 1
	}
	return span
}

// TimeDomain is a time axis from Start to End.
type TimeDomain struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Span returns End-Start, or one millisecond when the domain is degenerate.
func (d TimeDomain) Span() time.Duration {
	span := d.End.Sub(d.Start)
	if span <= 0 {
		return time.Millisecond
	}
	return span
}

// ─── Nice numbers ─────────────────────────────────────────────────────────────

// RoundUpToNice returns the smallest value m·10ⁿ ≥ x with m drawn from
// {1, 1.5, 2, 2.5, 4, 5, 6, 8, 10}. Non-positive or NaN input yields 0.
func RoundUpToNice(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if math.IsInf(x, 1) {
		return x
	}
	return pickNice(x, niceMantissas)
}

// NiceStep returns a tick interval that divides max into roughly
// targetSteps parts, using the mantissa set {1, 1.5, 2, 2.5, 5, 10}.
// A non-positive max yields 1; a non-positive targetSteps means
// DefaultTargetSteps.
func NiceStep(max float64, targetSteps int) float64 {
	if targetSteps <= 0 {
		targetSteps = DefaultTargetSteps
	}
	if !(max > 0) || math.IsInf(max, 1) {
		return 1
	}
	return pickNice(max/float64(targetSteps), stepMantissas)
}

// mantissaEpsilon absorbs the rounding of x/mag, which can land a hair
// above an exact table entry at small magnitudes.
const mantissaEpsilon = 1e-9

func pickNice(x float64, mantissas []float64) float64 {
	exp := math.Floor(math.Log10(x))
	mag := math.Pow(10, exp)
	norm := x / mag
	for _, m := range mantissas {
		if norm <= m+mantissaEpsilon {
			return m * mag
		}
	}
	return 10 * mag
}

// ─── Value ranges ─────────────────────────────────────────────────────────────

// ValueRange derives the value axis for the given data. The minimum is
// always 0; the maximum is the nice round-up of 1.05× the data maximum, or
// EmptyMax when no value is positive. NaN and infinite values are ignored.
func ValueRange(values []float64) Range {
	dataMax := 0.0
	for _, v := range values {
		if util.Finite(v) && v > dataMax {
			dataMax = v
		}
	}
	max := float64(EmptyMax)
	if dataMax > 0 {
		max = RoundUpToNice(dataMax * headroom)
	}
	return Range{Min: 0, Max: max, Step: NiceStep(max, DefaultTargetSteps)}
}

// ModelRange returns the value axis covering every point of every series,
// and every per-label sum, so label-placed renderers never draw past it.
func ModelRange(m model.ChartModel) Range {
	var values []float64
	for _, s := range m.Series {
		for _, p := range s.Points {
			values = append(values, p.Y)
		}
		for _, v := range s.ValuesByLabel() {
			values = append(values, v)
		}
	}
	return ValueRange(values)
}

// Ticks lists the tick values of r from Min to Max inclusive.
func Ticks(r Range) []float64 {
	if !(r.Step > 0) || !util.Finite(r.Min) || !util.Finite(r.Max) || r.Max < r.Min {
		return nil
	}
	var out []float64
	eps := r.Step * 1e-9
	for i := 0; ; i++ {
		v := r.Min + float64(i)*r.Step
		if v > r.Max+eps {
			break
		}
		out = append(out, v)
	}
	return out
}

// ─── Time domains ─────────────────────────────────────────────────────────────

// TimeRange returns the padded domain covering times. With no times it
// spans the calendar day of now in loc, from 00:00:00 to 23:59:59.
func TimeRange(times []time.Time, now time.Time, loc *time.Location) TimeDomain {
	if loc == nil {
		loc = time.UTC
	}
	if len(times) == 0 {
		n := now.In(loc)
		start := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
		return TimeDomain{Start: start, End: start.Add(24*time.Hour - time.Second)}
	}
	min, max := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return TimeDomain{Start: min.Add(-TimePadding), End: max.Add(TimePadding)}
}

// ModelTimeRange returns the time domain covering every point of every
// series in m.
func ModelTimeRange(m model.ChartModel, now time.Time, loc *time.Location) TimeDomain {
	var times []time.Time
	for _, s := range m.Series {
		for _, p := range s.Points {
			times = append(times, p.X)
		}
	}
	return TimeRange(times, now, loc)
}

// HourTicks lists every whole hour inside d, starting at the first hour at
// or after d.Start.
func HourTicks(d TimeDomain) []time.Time {
	s := d.Start
	first := time.Date(s.Year(), s.Month(), s.Day(), s.Hour(), 0, 0, 0, s.Location())
	if first.Before(s) {
		first = first.Add(time.Hour)
	}
	var out []time.Time
	for t := first; !t.After(d.End); t = t.Add(time.Hour) {
		out = append(out, t)
	}
	return out
}

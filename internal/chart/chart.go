// Package chart provides ASCII terminal previews of chart models.
// Three renderers are available:
//
//   - Bar: grouped horizontal bars, one row per series per category
//   - Plot: multi-series line chart with labeled axes
//   - Pie: one proportional bar per segment plus a stacked total bar
//
// The value axis uses the same nice range as the SVG geometry, so a preview
// and an exported chart agree on scale. Non-finite values are drawn as gaps.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/derickschaefer/yojitsu/internal/geometry"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/scale"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// seriesColors paint series in order. Plan series come first in every
// model, so plan is blue and actual magenta.
var seriesColors = []*color.Color{
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgCyan),
	color.New(color.FgRed),
}

func paint(i int, s string) string {
	return seriesColors[i%len(seriesColors)].Sprint(s)
}

// Preview dispatches to the renderer matching m.Kind.
func Preview(w io.Writer, m model.ChartModel, width int) error {
	switch m.Kind {
	case model.ChartBar:
		return Bar(w, m, BarOptions{Width: width})
	case model.ChartPie:
		return Pie(w, m, PieOptions{Width: width})
	default:
		return Plot(w, m, PlotOptions{Width: width})
	}
}

// ─── Bar ─────────────────────────────────────────────────────────────────────

// BarOptions controls horizontal bar chart rendering.
type BarOptions struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
}

// Bar renders a grouped horizontal bar chart of m to w: for every category
// one bar per series, scaled to the model's nice maximum.
//
// Output example:
//
//	入荷予実推移（1時間単位）  0 – 200
//	08:00  入荷予定  100  ██████████████
//	       入荷実績   80  ███████████
func Bar(w io.Writer, m model.ChartModel, opts BarOptions) error {
	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}
	cats := geometry.Categories(m)
	if len(cats) == 0 {
		fmt.Fprintf(w, "%s  (no data)\n", m.Config.Title)
		return nil
	}

	rng := scale.ModelRange(m)
	values := make([]map[string]float64, len(m.Series))
	catWidth, nameWidth, valWidth := 0, 0, 0
	for i, s := range m.Series {
		values[i] = s.ValuesByLabel()
		nameWidth = max(nameWidth, runewidth.StringWidth(s.Name))
		for _, v := range values[i] {
			valWidth = max(valWidth, len(geometry.FormatNumber(v)))
		}
	}
	for _, c := range cats {
		catWidth = max(catWidth, runewidth.StringWidth(c))
	}

	// Bar area = totalWidth - labels - separators (6 chars)
	barAreaWidth := totalWidth - catWidth - nameWidth - valWidth - 6
	if barAreaWidth < 4 {
		barAreaWidth = 4
	}

	fmt.Fprintf(w, "%s  %s – %s\n", m.Config.Title, geometry.FormatNumber(rng.Min), geometry.FormatNumber(rng.Max))
	for _, c := range cats {
		for i, s := range m.Series {
			label := ""
			if i == 0 {
				label = c
			}
			v, ok := values[i][c]
			valLabel := "."
			bar := ""
			if ok && util.Finite(v) {
				valLabel = geometry.FormatNumber(v)
				bar = strings.Repeat("█", barLength(v, rng, barAreaWidth))
			}
			fmt.Fprintf(w, "%s  %s  %*s  %s\n",
				runewidth.FillRight(label, catWidth),
				runewidth.FillRight(s.Name, nameWidth),
				valWidth, valLabel,
				paint(i, bar),
			)
		}
	}
	return nil
}

// barLength scales v into [0, width] cells. Positive values always get at
// least one cell so they stay visible.
func barLength(v float64, rng scale.Range, width int) int {
	if v <= rng.Min {
		return 0
	}
	n := int(math.Round((v - rng.Min) / rng.Span() * float64(width)))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return n
}

// ─── Plot ─────────────────────────────────────────────────────────────────────

// PlotOptions controls multi-line ASCII plot rendering.
type PlotOptions struct {
	// Width is the total character width of the chart (including Y-axis label).
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Height is the number of data rows in the chart body (not counting axis labels).
	// If 0, defaults to 12.
	Height int
}

// cell is one character of the plot body and the series that drew it.
type cell struct {
	ch     rune
	series int
}

// Plot renders the series of m as an ASCII line chart. Points are placed on
// the shared category axis; the first series is drawn with box-drawing
// connectors and later series with dots.
func Plot(w io.Writer, m model.ChartModel, opts PlotOptions) error {
	width := opts.Width
	if width <= 0 {
		width = termWidth()
	}
	height := opts.Height
	if height <= 0 {
		height = 12
	}

	cats := geometry.Categories(m)
	if len(cats) == 0 {
		fmt.Fprintf(w, "%s  (no data)\n", m.Config.Title)
		return nil
	}
	rng := scale.ModelRange(m)

	ticks := scale.Ticks(rng)
	yLabelWidth := 0
	for _, t := range ticks {
		yLabelWidth = max(yLabelWidth, len(geometry.FormatNumber(t)))
	}
	yAxisWidth := yLabelWidth + 1

	plotWidth := width - yAxisWidth
	if plotWidth < 10 {
		plotWidth = 10
	}

	grid := make([][]cell, height)
	for r := range grid {
		grid[r] = make([]cell, plotWidth)
		for c := range grid[r] {
			grid[r][c] = cell{ch: ' ', series: -1}
		}
	}
	for i := len(m.Series) - 1; i >= 0; i-- {
		cols := sampleCols(m.Series[i], cats, plotWidth)
		drawSeries(grid, cols, rng, i)
	}

	fmt.Fprintf(w, "%s  (%s to %s)\n", m.Config.Title, cats[0], cats[len(cats)-1])

	for row := 0; row < height; row++ {
		label := ""
		for _, t := range ticks {
			if math.Abs(rowForValue(t, rng, height)-float64(row)) < 0.5 {
				label = geometry.FormatNumber(t)
				break
			}
		}
		axisCh := "┤"
		if label == "" {
			axisCh = "│"
		}
		var rowSB strings.Builder
		for _, c := range grid[row] {
			if c.series < 0 {
				rowSB.WriteRune(c.ch)
				continue
			}
			rowSB.WriteString(paint(c.series, string(c.ch)))
		}
		fmt.Fprintf(w, "%*s%s%s\n", yLabelWidth, label, axisCh, rowSB.String())
	}

	fmt.Fprintf(w, "%s└%s\n", strings.Repeat(" ", yLabelWidth), strings.Repeat("─", plotWidth))
	fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", yLabelWidth), xAxisLabels(cats, plotWidth))

	var legend []string
	for i, s := range m.Series {
		legend = append(legend, paint(i, seriesMark(i))+" "+s.Name)
	}
	if len(legend) > 0 {
		fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", yLabelWidth), strings.Join(legend, "  "))
	}
	return nil
}

func seriesMark(i int) string {
	if i == 0 {
		return "─"
	}
	return "•"
}

// ─── Grid building ────────────────────────────────────────────────────────────

// sampleCols spreads the series over n columns. Each category owns an equal
// run of columns; a column holds the category's value or NaN when the
// series has no finite value there.
func sampleCols(s model.Series, cats []string, n int) []float64 {
	byLabel := s.ValuesByLabel()
	cols := make([]float64, n)
	for col := range cols {
		idx := col * len(cats) / n
		if v, ok := byLabel[cats[idx]]; ok {
			cols[col] = v
		} else {
			cols[col] = math.NaN()
		}
	}
	return cols
}

// rowForValue returns the float row index (0=top=max) for a given value.
func rowForValue(v float64, rng scale.Range, height int) float64 {
	return (rng.Max - v) / rng.Span() * float64(height-1)
}

// drawSeries writes one series into grid. Series 0 uses box-drawing
// characters to connect adjacent columns; others mark each column with a
// dot.
func drawSeries(grid [][]cell, cols []float64, rng scale.Range, series int) {
	height := len(grid)
	rowOf := make([]int, len(cols))
	for col, v := range cols {
		if math.IsNaN(v) {
			rowOf[col] = -1 // sentinel: gap
			continue
		}
		r := int(math.Round(rowForValue(v, rng, height)))
		rowOf[col] = min(max(r, 0), height-1)
	}

	for col, r := range rowOf {
		if r < 0 {
			continue
		}
		if series != 0 {
			grid[r][col] = cell{'•', series}
			continue
		}
		prevRow := -1
		if col > 0 {
			prevRow = rowOf[col-1]
		}
		switch {
		case prevRow < 0 || prevRow == r:
			grid[r][col] = cell{'─', series}
		case prevRow > r:
			// rising: connector from below
			grid[r][col] = cell{'╭', series}
			grid[prevRow][col] = cell{'╯', series}
			for fill := r + 1; fill < prevRow; fill++ {
				grid[fill][col] = cell{'│', series}
			}
		default:
			// falling: connector from above
			grid[prevRow][col] = cell{'╮', series}
			grid[r][col] = cell{'╰', series}
			for fill := prevRow + 1; fill < r; fill++ {
				grid[fill][col] = cell{'│', series}
			}
		}
	}
}

// ─── Pie ──────────────────────────────────────────────────────────────────────

// PieOptions controls pie preview rendering.
type PieOptions struct {
	// Width is the total character width. If 0, auto-detects.
	Width int
}

// Pie renders each segment as a bar proportional to its share, followed by
// a stacked bar of all segments.
func Pie(w io.Writer, m model.ChartModel, opts PieOptions) error {
	width := opts.Width
	if width <= 0 {
		width = termWidth()
	}
	l := geometry.Pie(m, geometry.DefaultPie())
	if len(l.Arcs) == 0 {
		fmt.Fprintf(w, "%s  (no data)\n", m.Config.Title)
		return nil
	}

	labelWidth, valWidth := 0, 0
	for _, a := range l.Arcs {
		labelWidth = max(labelWidth, runewidth.StringWidth(a.Label))
		valWidth = max(valWidth, len(geometry.FormatNumber(a.Value)))
	}
	barAreaWidth := width - labelWidth - valWidth - 12
	if barAreaWidth < 10 {
		barAreaWidth = 10
	}

	fmt.Fprintf(w, "%s  total %s\n", m.Config.Title, geometry.FormatNumber(l.Total))
	var stacked strings.Builder
	used := 0
	for i, a := range l.Arcs {
		n := int(math.Round(a.Value / l.Total * float64(barAreaWidth)))
		if i == len(l.Arcs)-1 {
			n = barAreaWidth - used
		}
		n = max(n, 0)
		used += n
		fmt.Fprintf(w, "%s  %*s  %5.1f%%  %s\n",
			runewidth.FillRight(a.Label, labelWidth),
			valWidth, geometry.FormatNumber(a.Value),
			a.Percentage,
			paint(i, strings.Repeat("█", n)),
		)
		stacked.WriteString(paint(i, strings.Repeat("█", n)))
	}
	fmt.Fprintf(w, "%s\n", stacked.String())
	return nil
}

// ─── Axis helpers ─────────────────────────────────────────────────────────────

// xAxisLabels builds a padded string with start, middle, and end category
// labels.
func xAxisLabels(cats []string, plotWidth int) string {
	if len(cats) == 0 {
		return ""
	}
	startLabel := cats[0]
	midLabel := cats[len(cats)/2]
	endLabel := cats[len(cats)-1]

	midPos := plotWidth/2 - len(midLabel)/2
	endPos := plotWidth - len(endLabel)

	buf := []rune(strings.Repeat(" ", plotWidth))
	writeAt := func(pos int, s string) {
		for i, ch := range []rune(s) {
			if pos+i >= 0 && pos+i < len(buf) {
				buf[pos+i] = ch
			}
		}
	}
	writeAt(0, startLabel)
	if len(cats) > 2 {
		writeAt(midPos, midLabel)
	}
	writeAt(endPos, endLabel)
	return string(buf)
}

// ─── Utilities ────────────────────────────────────────────────────────────────

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}

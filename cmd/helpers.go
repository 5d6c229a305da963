package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/yojitsu/internal/app"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/pipeline"
	"github.com/derickschaefer/yojitsu/internal/render"
	"github.com/derickschaefer/yojitsu/internal/store"
	"github.com/derickschaefer/yojitsu/internal/util"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) (string, error) {
	format := cfgFormat
	if globalFlags.Format != "" {
		format = globalFlags.Format
	}
	if format == "" {
		return render.FormatTable, nil
	}
	if !render.ValidFormat(format) {
		return "", fmt.Errorf("unknown format %q (valid: %v)", format, render.Formats)
	}
	return format, nil
}

// outputWriter returns the writer for command output: the --out file when
// set, def otherwise. The returned close function is always safe to call.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// newResult wraps data in the standard envelope.
func newResult(kind, command string, data interface{}, items int, warnings []string, started time.Time) *model.Result {
	return &model.Result{
		Kind:        kind,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        data,
		Warnings:    warnings,
		Stats: model.ResultStats{
			DurationMs: time.Since(started).Milliseconds(),
			Items:      items,
		},
	}
}

// emit renders result in the resolved format to stdout or --out, then
// prints warnings and stats to stderr.
func emit(w io.Writer, deps *app.Deps, result *model.Result) error {
	format, err := resolveFormat(deps.Config.Format)
	if err != nil {
		return err
	}
	out, closeFn, err := outputWriter(w)
	if err != nil {
		return err
	}
	if !deps.Config.Quiet || globalFlags.Out != "" {
		if err := render.Render(out, result, format); err != nil {
			_ = closeFn()
			return err
		}
	}
	if err := closeFn(); err != nil {
		return err
	}
	if !deps.Config.Quiet {
		render.PrintFooter(os.Stderr, result, deps.Config.Verbose)
	}
	return nil
}

// success prints a green status line unless --quiet is set.
func success(w io.Writer, deps *app.Deps, format string, args ...interface{}) {
	if deps != nil && deps.Config.Quiet {
		return
	}
	okColor.Fprintf(w, "✓ "+format+"\n", args...)
}

// notice prints a yellow status line to stderr unless --quiet is set.
func notice(deps *app.Deps, format string, args ...interface{}) {
	if deps != nil && deps.Config.Quiet {
		return
	}
	warnColor.Fprintf(os.Stderr, "⚠  "+format+"\n", args...)
}

// ─── Record loading ───────────────────────────────────────────────────────────

// recordSource names where one kind of records comes from: a JSONL file
// (or "-" for stdin), or the store set when File is empty.
type recordSource struct {
	Page model.Page
	Kind model.RecordKind
	Set  string
	File string
}

// loadRecords reads records from src. Undecodable JSONL lines and a missing
// store set are reported as warnings; an I/O failure is an error.
func loadRecords(deps *app.Deps, src recordSource) ([]model.Record, []string, error) {
	if src.File != "" {
		recs, err := pipeline.ReadFile(src.File)
		return recs, decodeWarnings(err), fatalOnly(err)
	}
	st, err := deps.RequireStore()
	if err != nil {
		return nil, nil, err
	}
	recs, ok, err := st.GetRecords(src.Page, src.Kind, src.Set)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return []model.Record{}, []string{fmt.Sprintf("no %s %s records stored in set %q (use: yojitsu import %s --kind %s)",
			src.Page, src.Kind, setName(src.Set), src.Page, src.Kind)}, nil
	}
	return recs, nil, nil
}

// loadPlanActual loads both kinds for a page.
func loadPlanActual(deps *app.Deps, page model.Page, set, planFile, actualFile string) ([]model.Record, []model.Record, []string, error) {
	plans, w1, err := loadRecords(deps, recordSource{Page: page, Kind: model.KindPlan, Set: set, File: planFile})
	if err != nil {
		return nil, nil, nil, err
	}
	actuals, w2, err := loadRecords(deps, recordSource{Page: page, Kind: model.KindActual, Set: set, File: actualFile})
	if err != nil {
		return nil, nil, nil, err
	}
	return plans, actuals, append(w1, w2...), nil
}

func decodeWarnings(err error) []string {
	var me *util.MultiError
	if !errors.As(err, &me) {
		return nil
	}
	out := make([]string, len(me.Errors))
	for i, e := range me.Errors {
		out[i] = "skipped " + e.Error()
	}
	return out
}

// fatalOnly drops per-line decode errors, which loadRecords reports as
// warnings, and keeps everything else.
func fatalOnly(err error) error {
	var me *util.MultiError
	if errors.As(err, &me) {
		return nil
	}
	return err
}

func setName(s string) string {
	if s == "" {
		return store.DefaultSet
	}
	return s
}

// parseNow resolves a --now flag value; empty means the current time.
func parseNow(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	return util.ParseTimestamp(s, loc)
}

// ─── Table helpers ────────────────────────────────────────────────────────────

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

func humanBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.Bytes(uint64(b))
}

package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/pipeline"
	"github.com/derickschaefer/yojitsu/internal/render"
	"github.com/derickschaefer/yojitsu/internal/store"
)

var (
	importKind string
	importSet  string
)

var importCmd = &cobra.Command{
	Use:   "import <page> [file|-]",
	Short: "Store plan or actual records for a page",
	Long: `Reads JSONL records and stores them as the record set for a page and kind.

Each import replaces the whole set: importing the plan twice keeps only the
second file. Lines that fail to decode are skipped with a warning; every
other line is stored. With no file (or "-") records are read from stdin.

Record line:
  {"id":"A-1","quantity":120,"timestamp":"2024-01-15T08:30:00","process":"入荷"}`,
	Example: `  yojitsu import arrival --kind plan plans.jsonl
  yojitsu import shipment --kind actual - < actuals.jsonl
  yojitsu import arrival --kind plan --set monday monday.jsonl`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		page, err := model.ParsePage(args[0])
		if err != nil {
			return err
		}
		kind, err := model.ParseRecordKind(importKind)
		if err != nil {
			return err
		}
		file := "-"
		if len(args) == 2 {
			file = args[1]
		}
		if file == "-" && !pipeline.StdinIsPipe() {
			return fmt.Errorf("no input: pass a JSONL file or pipe records on stdin")
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		recs, warnings, err := loadRecords(deps, recordSource{Page: page, Kind: kind, File: file})
		if err != nil {
			return err
		}
		st, err := deps.RequireStore()
		if err != nil {
			return err
		}
		source := file
		if source == "-" {
			source = "stdin"
		}
		info, err := st.PutRecords(page, kind, importSet, source, recs)
		if err != nil {
			return err
		}
		slog.Debug("records imported", "key", info.Key, "count", info.Count)

		format, err := resolveFormat(deps.Config.Format)
		if err != nil {
			return err
		}
		if format != render.FormatTable {
			return emit(cmd.OutOrStdout(), deps, newResult(model.KindImports, "import",
				[]store.ImportInfo{info}, 1, warnings, started))
		}
		success(cmd.OutOrStdout(), deps, "Stored %s %s %s records (%s total) in set %q",
			humanize.Comma(int64(info.Count)), page, kind, humanize.Commaf(info.Quantity), info.Set)
		for _, w := range warnings {
			notice(deps, "%s", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importKind, "kind", "", "record kind: plan|actual (required)")
	importCmd.Flags().StringVar(&importSet, "set", store.DefaultSet, "record set name")
	_ = importCmd.MarkFlagRequired("kind")
}

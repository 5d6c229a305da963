package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect imported record sets",
	Long: `Commands for inspecting the record sets held in the local database.

Use 'yojitsu import' to store records.
Use 'yojitsu db stats' for bucket-level storage stats.`,
}

// ─── store list ───────────────────────────────────────────────────────────────

var storeListPage string

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored record sets",
	Example: `  yojitsu store list
  yojitsu store list --page shipment --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		var page model.Page
		if storeListPage != "" {
			p, err := model.ParsePage(storeListPage)
			if err != nil {
				return err
			}
			page = p
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.RequireStore()
		if err != nil {
			return err
		}

		infos, err := st.ListImports(page)
		if err != nil {
			return fmt.Errorf("reading store: %w", err)
		}
		if len(infos) == 0 {
			notice(deps, "No record sets in %s", st.Path())
			notice(deps, "  Use: yojitsu import <page> --kind plan|actual <file>")
			return nil
		}
		return emit(cmd.OutOrStdout(), deps,
			newResult(model.KindImports, "store list", infos, len(infos), nil, started))
	},
}

// ─── store get ────────────────────────────────────────────────────────────────

var (
	storeGetKind string
	storeGetSet  string
)

var storeGetCmd = &cobra.Command{
	Use:   "get <page>",
	Short: "Print the stored records of a page",
	Example: `  yojitsu store get arrival --kind plan
  yojitsu store get shipment --kind actual --format jsonl > actuals.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		page, err := model.ParsePage(args[0])
		if err != nil {
			return err
		}
		kind, err := model.ParseRecordKind(storeGetKind)
		if err != nil {
			return err
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.RequireStore()
		if err != nil {
			return err
		}

		recs, ok, err := st.GetRecords(page, kind, storeGetSet)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no %s %s records in set %q\n\n  Use: yojitsu import %s --kind %s <file>",
				page, kind, setName(storeGetSet), page, kind)
		}
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp < recs[j].Timestamp })
		return emit(cmd.OutOrStdout(), deps,
			newResult(model.KindRecords, "store get", recs, len(recs), nil, started))
	},
}

// ─── store delete ─────────────────────────────────────────────────────────────

var (
	storeDeleteKind string
	storeDeleteSet  string
)

var storeDeleteCmd = &cobra.Command{
	Use:     "delete <page>",
	Short:   "Remove a stored record set",
	Example: `  yojitsu store delete arrival --kind actual --set monday`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := model.ParsePage(args[0])
		if err != nil {
			return err
		}
		kind, err := model.ParseRecordKind(storeDeleteKind)
		if err != nil {
			return err
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.RequireStore()
		if err != nil {
			return err
		}
		if err := st.DeleteRecords(page, kind, storeDeleteSet); err != nil {
			return fmt.Errorf("deleting record set: %w", err)
		}
		success(cmd.OutOrStdout(), deps, "Deleted %s", store.RecordKey(page, kind, storeDeleteSet))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeGetCmd)
	storeCmd.AddCommand(storeDeleteCmd)

	storeListCmd.Flags().StringVar(&storeListPage, "page", "", "only list sets of this page: arrival|shipment")

	storeGetCmd.Flags().StringVar(&storeGetKind, "kind", "", "record kind: plan|actual (required)")
	storeGetCmd.Flags().StringVar(&storeGetSet, "set", store.DefaultSet, "record set name")
	_ = storeGetCmd.MarkFlagRequired("kind")

	storeDeleteCmd.Flags().StringVar(&storeDeleteKind, "kind", "", "record kind: plan|actual (required)")
	storeDeleteCmd.Flags().StringVar(&storeDeleteSet, "set", store.DefaultSet, "record set name")
	_ = storeDeleteCmd.MarkFlagRequired("kind")
}

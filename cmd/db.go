package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and manage the local record store",
	Long: `Commands for inspecting, clearing and compacting the local bbolt database.

The store holds imported record sets. It is an intentional data store, not a
transparent cache: record sets persist until you replace or clear them.`,
}

// ─── db stats ─────────────────────────────────────────────────────────────────

var dbStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show row counts and sizes for each bucket",
	Example: `  yojitsu db stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.RequireStore()
		if err != nil {
			return err
		}

		stats, err := st.Stats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n\n", st.Path())
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "ROWS", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(s.Name, humanize.Comma(int64(s.Count)), humanBytes(s.Bytes))
			}
		})
		return nil
	},
}

// ─── db clear ─────────────────────────────────────────────────────────────────

var (
	dbClearAll    bool
	dbClearBucket string
)

var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete entries from the local store",
	Long: `Delete entries from one or all buckets.

Note: bbolt does not shrink the database file automatically after clearing.
Free pages are reused internally on the next write. To reclaim disk space,
run 'yojitsu db compact' after clearing.`,
	Example: `  yojitsu db clear --all
  yojitsu db clear --bucket imports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !dbClearAll && dbClearBucket == "" {
			return fmt.Errorf("specify --all or --bucket <name>\n\nBuckets: %s", strings.Join(store.AllBuckets, ", "))
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

		if dbClearAll {
			if err := st.ClearAll(); err != nil {
				return fmt.Errorf("clearing all buckets: %w", err)
			}
			success(cmd.OutOrStdout(), deps, "Cleared all buckets")
			fmt.Fprintln(cmd.OutOrStdout(), "  Run 'yojitsu db compact' to reclaim disk space.")
			return nil
		}

		if err := st.ClearBucket(dbClearBucket); err != nil {
			return fmt.Errorf("clearing bucket %q: %w", dbClearBucket, err)
		}
		success(cmd.OutOrStdout(), deps, "Cleared bucket %q", dbClearBucket)
		fmt.Fprintln(cmd.OutOrStdout(), "  Run 'yojitsu db compact' to reclaim disk space.")
		return nil
	},
}

// ─── db compact ───────────────────────────────────────────────────────────────

var dbCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the database file to reclaim freed disk space",
	Long: `Compact rewrites the entire bbolt database to a new file, recovering space
freed by prior 'db clear' operations.

All live data is copied to a temporary file first, then the original is
replaced. The database remains fully usable after compaction completes.`,
	Example: `  yojitsu db compact`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.RequireStore()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Compacting %s ...\n", st.Path())
		before, after, err := st.Compact()
		if err != nil {
			return fmt.Errorf("compaction failed: %w", err)
		}

		success(cmd.OutOrStdout(), deps, "Compaction complete")
		fmt.Fprintf(cmd.OutOrStdout(), "  Before: %s\n", humanBytes(before))
		fmt.Fprintf(cmd.OutOrStdout(), "  After:  %s\n", humanBytes(after))
		if saved := before - after; saved > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  Saved:  %s\n", humanBytes(saved))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "  No space reclaimed (database was already compact).")
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbClearCmd)
	dbCmd.AddCommand(dbCompactCmd)

	dbClearCmd.Flags().BoolVar(&dbClearAll, "all", false, "clear all buckets")
	dbClearCmd.Flags().StringVar(&dbClearBucket, "bucket", "", "clear a specific bucket: "+strings.Join(store.AllBuckets, "|"))
}

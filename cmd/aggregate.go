package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/aggregate"
	"github.com/derickschaefer/yojitsu/internal/analyze"
	"github.com/derickschaefer/yojitsu/internal/app"
	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/store"
	"github.com/derickschaefer/yojitsu/internal/util"
)

// recordFlags are the input flags shared by aggregate, chart and progress.
type recordFlags struct {
	Page     string
	Set      string
	Plans    string
	Actuals  string
	From     string
	Before   string
	District string
	Customer string
	Process  string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.Page, "page", string(model.PageArrival), "dashboard page: arrival|shipment")
	fl.StringVar(&f.Set, "set", store.DefaultSet, "stored record set to read")
	fl.StringVar(&f.Plans, "plans", "", "read plan records from this JSONL file instead of the store")
	fl.StringVar(&f.Actuals, "actuals", "", "read actual records from this JSONL file instead of the store")
	fl.StringVar(&f.From, "from", "", "keep records at or after this time (ISO-8601)")
	fl.StringVar(&f.Before, "before", "", "keep records strictly before this time (ISO-8601)")
	fl.StringVar(&f.District, "district", "", "keep records of this district")
	fl.StringVar(&f.Customer, "customer", "", "keep records of this customer id")
	fl.StringVar(&f.Process, "process", "", "keep records of this process (入荷|検品|入庫)")
}

// load resolves the page and returns its filtered plan and actual records.
func (f *recordFlags) load(deps *app.Deps) (model.Page, []model.Record, []model.Record, []string, error) {
	page, err := model.ParsePage(f.Page)
	if err != nil {
		return "", nil, nil, nil, err
	}
	plans, actuals, warnings, err := loadPlanActual(deps, page, f.Set, f.Plans, f.Actuals)
	if err != nil {
		return "", nil, nil, nil, err
	}
	opts := aggregate.FilterOptions{
		District:   f.District,
		CustomerID: f.Customer,
		Process:    f.Process,
		Location:   deps.Location,
	}
	if f.From != "" {
		if opts.From, err = util.ParseTimestamp(f.From, deps.Location); err != nil {
			return "", nil, nil, nil, err
		}
	}
	if f.Before != "" {
		if opts.Before, err = util.ParseTimestamp(f.Before, deps.Location); err != nil {
			return "", nil, nil, nil, err
		}
	}
	return page, aggregate.Filter(plans, opts), aggregate.Filter(actuals, opts), warnings, nil
}

// buckets loads, filters and aggregates records at granularity g.
func (f *recordFlags) buckets(deps *app.Deps, g model.Granularity) (model.Page, []model.Bucket, []string, error) {
	page, plans, actuals, warnings, err := f.load(deps)
	if err != nil {
		return "", nil, nil, err
	}
	buckets, aggWarnings := aggregate.Aggregate(plans, actuals, aggregate.Options{
		Granularity: g,
		Location:    deps.Location,
	})
	return page, buckets, append(warnings, aggWarnings...), nil
}

// ─── aggregate ────────────────────────────────────────────────────────────────

var (
	aggFlags       recordFlags
	aggGranularity string
	aggSummary     bool
	aggCumulative  bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Sum plan and actual quantities into hourly or daily buckets",
	Long: `Groups the plan and actual records of a page into buckets and prints one
row per bucket. Hourly keys look like 2024-01-15T08:00; daily keys like
2024-01-15. Bucket boundaries follow --tz.

Records with a malformed timestamp or an invalid quantity are skipped and
reported as warnings.`,
	Example: `  yojitsu aggregate --page arrival
  yojitsu aggregate --page shipment --granularity day --format csv
  yojitsu aggregate --plans plan.jsonl --actuals actual.jsonl --summary
  yojitsu aggregate --page arrival --process 検品 --cumulative`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		g, err := model.ParseGranularity(aggGranularity)
		if err != nil {
			return err
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		page, buckets, warnings, err := aggFlags.buckets(deps, g)
		if err != nil {
			return err
		}
		if aggCumulative {
			buckets = aggregate.Cumulative(buckets)
		}
		if aggSummary {
			s := analyze.Summarize(page, buckets)
			return emit(cmd.OutOrStdout(), deps,
				newResult(model.KindSummary, "aggregate --summary", s, len(buckets), warnings, started))
		}
		return emit(cmd.OutOrStdout(), deps,
			newResult(model.KindBuckets, "aggregate", buckets, len(buckets), warnings, started))
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggFlags.register(aggregateCmd)
	aggregateCmd.Flags().StringVar(&aggGranularity, "granularity", string(model.GranularityHour), "bucket width: hour|day")
	aggregateCmd.Flags().BoolVar(&aggSummary, "summary", false, "print totals, achievement and peak bucket instead of rows")
	aggregateCmd.Flags().BoolVar(&aggCumulative, "cumulative", false, "running totals instead of per-bucket totals")
}

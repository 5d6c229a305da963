package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/app"
	"github.com/derickschaefer/yojitsu/internal/export"
	"github.com/derickschaefer/yojitsu/internal/layout"
	"github.com/derickschaefer/yojitsu/internal/model"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Dashboard grid layouts and the graphs that fill them",
	Long: `Each dashboard page (arrival, shipment) is a grid of slots. A layout
pattern fixes the number of slots and their placement; graphs are placed
into slots one per slot.

Layout state lives for one invocation: build it with a YAML script and
'layout apply'.`,
}

// ─── layout patterns ──────────────────────────────────────────────────────────

var layoutPatternsCmd = &cobra.Command{
	Use:     "patterns",
	Short:   "List the layout patterns",
	Example: `  yojitsu layout patterns`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), deps,
			newResult(model.KindPatterns, "layout patterns", layout.Patterns, len(layout.Patterns), nil, started))
	},
}

// ─── layout graphs ────────────────────────────────────────────────────────────

var layoutGraphsPage string

var layoutGraphsCmd = &cobra.Command{
	Use:   "graphs",
	Short: "List the graph types that can be placed",
	Example: `  yojitsu layout graphs
  yojitsu layout graphs --page shipment`,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		graphs := layout.Graphs
		if layoutGraphsPage != "" {
			p, err := model.ParsePage(layoutGraphsPage)
			if err != nil {
				return err
			}
			graphs = layout.GraphsFor(p)
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), deps,
			newResult(model.KindGraphs, "layout graphs", graphs, len(graphs), nil, started))
	},
}

// ─── layout apply ─────────────────────────────────────────────────────────────

var (
	layoutApplyHTML    string
	layoutApplyRecords recordFlags
	layoutApplyNow     string
)

var layoutApplyCmd = &cobra.Command{
	Use:   "apply <script.yaml|->",
	Short: "Replay a layout script and print the resulting board",
	Long: `Replays the steps of a YAML layout script against a fresh pair of pages
(both on the 1x1 layout) and prints the board of the page that is active at
the end.

Script:
  steps:
    - page: arrival
    - layout: top-1
    - add: {graph: arrival-plan-actual-line, slot: 0}
    - add: {graph: arrival-pie, slot: 1}
    - add: {graph: arrival-bar, slot: 2}
    - remove_slot: 2

Changing to a layout with fewer slots removes the graphs in the dropped
slots. Adding to an occupied slot replaces its graph. The first invalid
step stops the replay with an error naming the step.

--html renders the board with every placed graph drawn from the records
selected by the record flags (store sets or --plans/--actuals files).`,
	Example: `  yojitsu layout apply board.yaml
  yojitsu layout apply board.yaml --html board.html --now 2024-01-15T14:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		script, err := readScript(args[0])
		if err != nil {
			return err
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		ls := layout.NewStore()
		res, err := ls.Apply(script)
		if err != nil {
			return err
		}
		board := ls.Board()

		if layoutApplyHTML != "" {
			models, warnings, err := boardModels(deps, board)
			if err != nil {
				return err
			}
			size := export.Size{Width: deps.Config.ChartWidth / 2, Height: deps.Config.ChartHeight}
			if err := writeFile(layoutApplyHTML, func(w *os.File) error {
				return export.WriteBoard(w, board, models, size)
			}); err != nil {
				return err
			}
			for _, w := range warnings {
				notice(deps, "%s", w)
			}
			success(os.Stderr, deps, "Wrote %s (%d graphs)", layoutApplyHTML, len(models))
		}

		var warnings []string
		if len(res.Removed) > 0 {
			warnings = append(warnings, fmt.Sprintf("removed: %v", res.Removed))
		}
		return emit(cmd.OutOrStdout(), deps,
			newResult(model.KindBoard, "layout apply", board, len(board.Slots), warnings, started))
	},
}

func readScript(path string) (layout.Script, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return layout.Script{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	return layout.LoadScript(r)
}

// boardModels builds the chart model of every placed graph on the board,
// keyed by chart id. Each graph reads the records of its own page.
func boardModels(deps *app.Deps, b layout.Board) (map[string]model.ChartModel, []string, error) {
	now, err := parseNow(layoutApplyNow, deps.Location)
	if err != nil {
		return nil, nil, err
	}
	models := make(map[string]model.ChartModel)
	var warnings []string
	for _, s := range b.Slots {
		def, ok := s.Graph.Definition()
		if s.ChartID == "" || !ok {
			continue
		}
		rf := layoutApplyRecords
		rf.Page = string(def.Page)
		built, err := buildChart(deps, def.Kind, &rf, model.GranularityHour, now, model.Overrides{})
		if err != nil {
			return nil, nil, fmt.Errorf("slot %d (%s): %w", s.Slot, s.Graph, err)
		}
		models[s.ChartID] = built.Model
		warnings = append(warnings, built.Warnings...)
	}
	return models, warnings, nil
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.AddCommand(layoutPatternsCmd)
	layoutCmd.AddCommand(layoutGraphsCmd)
	layoutCmd.AddCommand(layoutApplyCmd)

	layoutGraphsCmd.Flags().StringVar(&layoutGraphsPage, "page", "", "only graphs of this page: arrival|shipment")

	layoutApplyRecords.register(layoutApplyCmd)
	layoutApplyCmd.Flags().StringVar(&layoutApplyHTML, "html", "", "write the board with its charts as HTML to this file")
	layoutApplyCmd.Flags().StringVar(&layoutApplyNow, "now", "", "reference time for progress graphs (default: current time)")
}

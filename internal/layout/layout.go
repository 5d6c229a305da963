// Package layout manages the grid layout of each dashboard page: which
// pattern the page uses and which chart sits in which slot.
//
// The six layout patterns and the six graph types are closed sets. Lookups
// on unknown values fall back to safe defaults (one slot, "auto" placement)
// instead of failing.
package layout

import (
	"fmt"

	"github.com/derickschaefer/yojitsu/internal/model"
)

// ─── Layout patterns ──────────────────────────────────────────────────────────

// Type identifies a layout pattern.
type Type string

const (
	Single     Type = "1x1"
	TwoColumns Type = "1x2"
	TwoRows    Type = "2x1"
	Grid2x2    Type = "2x2"
	TopOne     Type = "top-1"
	BottomOne  Type = "bottom-1"
)

// Pattern describes one layout pattern.
type Pattern struct {
	Type         Type   `json:"type" yaml:"type"`
	Label        string `json:"label" yaml:"label"`
	Description  string `json:"description" yaml:"description"`
	Slots        int    `json:"slots" yaml:"slots"`
	GridTemplate string `json:"grid_template" yaml:"grid_template"`
}

// Patterns is the catalog in display order.
var Patterns = []Pattern{
	{Single, "1×1", "1つのグラフを表示", 1, "1fr"},
	{TwoColumns, "1×2", "横に2つのグラフを表示", 2, "1fr / 1fr 1fr"},
	{TwoRows, "2×1", "縦に2つのグラフを表示", 2, "1fr 1fr / 1fr"},
	{Grid2x2, "2×2", "4つのグラフをグリッド表示", 4, "1fr 1fr / 1fr 1fr"},
	{TopOne, "上1下2", "上に1つ、下に2つのグラフを表示", 3, "1fr 1fr / 1fr 1fr"},
	{BottomOne, "上2下1", "上に2つ、下に1つのグラフを表示", 3, "1fr 1fr / 1fr 1fr"},
}

// PatternFor returns the pattern of t and whether t is known.
func PatternFor(t Type) (Pattern, bool) {
	for _, p := range Patterns {
		if p.Type == t {
			return p, true
		}
	}
	return Pattern{}, false
}

// Valid reports whether t is one of the six patterns.
func (t Type) Valid() bool {
	_, ok := PatternFor(t)
	return ok
}

// SlotCount returns the number of slots of t; unknown types have one.
func (t Type) SlotCount() int {
	if p, ok := PatternFor(t); ok {
		return p.Slots
	}
	return 1
}

// GridTemplate returns the CSS grid template of t; unknown types use "1fr".
func (t Type) GridTemplate() string {
	if p, ok := PatternFor(t); ok {
		return p.GridTemplate
	}
	return "1fr"
}

// SlotGridArea returns the CSS grid-area of slot i under t. Only the
// irregular three-slot patterns place slots explicitly; everything else is
// "auto".
func (t Type) SlotGridArea(i int) string {
	areas := map[Type][]string{
		TopOne:    {"1 / 1 / 2 / 3", "2 / 1 / 3 / 2", "2 / 2 / 3 / 3"},
		BottomOne: {"1 / 1 / 2 / 2", "1 / 2 / 2 / 3", "2 / 1 / 3 / 3"},
	}[t]
	if i < 0 || i >= len(areas) {
		return "auto"
	}
	return areas[i]
}

// ParseType converts a user-supplied string into a layout Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q (valid: 1x1, 1x2, 2x1, 2x2, top-1, bottom-1)", ErrUnknownLayout, s)
	}
	return t, nil
}

// ─── Graph types ──────────────────────────────────────────────────────────────

// GraphType identifies a chart that can be placed in a slot.
type GraphType string

const (
	ArrivalPlanActualLine  GraphType = "arrival-plan-actual-line"
	ShipmentPlanActualLine GraphType = "shipment-plan-actual-line"
	ArrivalPie             GraphType = "arrival-pie"
	ShipmentPie            GraphType = "shipment-pie"
	ArrivalBar             GraphType = "arrival-bar"
	ShipmentBar            GraphType = "shipment-bar"
)

// GraphDefinition describes one graph type.
type GraphDefinition struct {
	Type        GraphType       `json:"type" yaml:"type"`
	Label       string          `json:"label" yaml:"label"`
	Description string          `json:"description" yaml:"description"`
	Page        model.Page      `json:"page" yaml:"page"`
	Kind        model.ChartKind `json:"kind" yaml:"kind"`
}

// Graphs is the catalog in display order.
var Graphs = []GraphDefinition{
	{ArrivalPlanActualLine, "入荷予実推移（折れ線）", "時間単位の入荷予定と実績を折れ線グラフで表示", model.PageArrival, model.ChartLine},
	{ArrivalPie, "入荷状況（円グラフ）", "入荷状況を円グラフで表示", model.PageArrival, model.ChartPie},
	{ArrivalBar, "入荷実績（棒グラフ）", "入荷実績を棒グラフで表示", model.PageArrival, model.ChartBar},
	{ShipmentPlanActualLine, "出荷予実推移（折れ線）", "時間単位の出荷予定と実績を折れ線グラフで表示", model.PageShipment, model.ChartLine},
	{ShipmentPie, "出荷状況（円グラフ）", "出荷状況を円グラフで表示", model.PageShipment, model.ChartPie},
	{ShipmentBar, "出荷実績（棒グラフ）", "出荷実績を棒グラフで表示", model.PageShipment, model.ChartBar},
}

// Definition returns the definition of g and whether g is known.
func (g GraphType) Definition() (GraphDefinition, bool) {
	for _, d := range Graphs {
		if d.Type == g {
			return d, true
		}
	}
	return GraphDefinition{}, false
}

// Valid reports whether g is one of the six graph types.
func (g GraphType) Valid() bool {
	_, ok := g.Definition()
	return ok
}

// GraphsFor returns the graph types offered on page p.
func GraphsFor(p model.Page) []GraphDefinition {
	var out []GraphDefinition
	for _, d := range Graphs {
		if d.Page == p {
			out = append(out, d)
		}
	}
	return out
}

// ParseGraphType converts a user-supplied string into a GraphType.
func ParseGraphType(s string) (GraphType, error) {
	g := GraphType(s)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGraph, s)
	}
	return g, nil
}

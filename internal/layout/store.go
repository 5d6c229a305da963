package layout

import (
	"errors"
	"fmt"

	"github.com/derickschaefer/yojitsu/internal/model"
)

// Sentinel errors returned by Store mutations.
var (
	ErrUnknownLayout  = errors.New("unknown layout")
	ErrUnknownGraph   = errors.New("unknown graph type")
	ErrUnknownPage    = errors.New("unknown page")
	ErrSlotOutOfRange = errors.New("slot out of range")
)

// PlacedChart is a chart instance occupying one slot.
type PlacedChart struct {
	ID    string    `json:"id" yaml:"id"`
	Graph GraphType `json:"graph" yaml:"graph"`
	Slot  int       `json:"slot" yaml:"slot"`
}

// PageState is the layout of one page.
type PageState struct {
	Layout Type          `json:"layout" yaml:"layout"`
	Charts []PlacedChart `json:"charts" yaml:"charts"`
}

// Store holds the layout state of every page plus the active page. The
// mutation methods act on the active page.
//
// Invariants: at most one chart per slot, and every chart's slot is below
// the slot count of its page's layout.
//
// A Store is owned by a single view and is not safe for concurrent use.
type Store struct {
	page   model.Page
	states map[model.Page]*PageState
	seq    int
}

// NewStore returns a store with every page on the single-slot layout, no
// charts, and the arrival page active.
func NewStore() *Store {
	s := &Store{page: model.PageArrival, states: make(map[model.Page]*PageState)}
	for _, p := range model.Pages {
		s.states[p] = &PageState{Layout: Single, Charts: []PlacedChart{}}
	}
	return s
}

// SetPage makes p the active page.
func (s *Store) SetPage(p model.Page) error {
	if _, ok := s.states[p]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPage, p)
	}
	s.page = p
	return nil
}

// Page returns the active page.
func (s *Store) Page() model.Page { return s.page }

// State returns a copy of the layout state of page p.
func (s *Store) State(p model.Page) (PageState, bool) {
	st, ok := s.states[p]
	if !ok {
		return PageState{}, false
	}
	out := PageState{Layout: st.Layout, Charts: make([]PlacedChart, len(st.Charts))}
	copy(out.Charts, st.Charts)
	return out, true
}

func (s *Store) current() *PageState { return s.states[s.page] }

// Layout returns the layout type of the active page.
func (s *Store) Layout() Type { return s.current().Layout }

// SlotCount returns the slot count of the active page's layout.
func (s *Store) SlotCount() int { return s.current().Layout.SlotCount() }

// GridTemplate returns the CSS grid template of the active page.
func (s *Store) GridTemplate() string { return s.current().Layout.GridTemplate() }

// SlotGridArea returns the CSS grid-area of slot i on the active page.
func (s *Store) SlotGridArea(i int) string { return s.current().Layout.SlotGridArea(i) }

// SetLayout switches the active page to layout t. Charts whose slot does not
// exist under t are removed; the others keep their slot.
func (s *Store) SetLayout(t Type) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLayout, t)
	}
	st := s.current()
	n := t.SlotCount()
	kept := make([]PlacedChart, 0, len(st.Charts))
	for _, c := range st.Charts {
		if c.Slot < n {
			kept = append(kept, c)
		}
	}
	st.Layout = t
	st.Charts = kept
	return nil
}

// AddGraph places a new chart of type g into slot on the active page,
// replacing whatever occupied that slot. Each call mints a fresh id.
func (s *Store) AddGraph(g GraphType, slot int) (PlacedChart, error) {
	if !g.Valid() {
		return PlacedChart{}, fmt.Errorf("%w: %q", ErrUnknownGraph, g)
	}
	if n := s.SlotCount(); slot < 0 || slot >= n {
		return PlacedChart{}, fmt.Errorf("%w: %d (layout %s has %d slots)", ErrSlotOutOfRange, slot, s.Layout(), n)
	}
	s.seq++
	pc := PlacedChart{ID: fmt.Sprintf("%s-%d", g, s.seq), Graph: g, Slot: slot}

	st := s.current()
	kept := make([]PlacedChart, 0, len(st.Charts)+1)
	for _, c := range st.Charts {
		if c.Slot != slot {
			kept = append(kept, c)
		}
	}
	st.Charts = append(kept, pc)
	return pc, nil
}

// RemoveGraph removes the chart with the given id from the active page and
// reports whether one was removed.
func (s *Store) RemoveGraph(id string) bool {
	st := s.current()
	for i, c := range st.Charts {
		if c.ID == id {
			st.Charts = append(st.Charts[:i:i], st.Charts[i+1:]...)
			return true
		}
	}
	return false
}

// GraphAtSlot returns the chart in slot i of the active page, if any.
func (s *Store) GraphAtSlot(i int) (PlacedChart, bool) {
	for _, c := range s.current().Charts {
		if c.Slot == i {
			return c, true
		}
	}
	return PlacedChart{}, false
}

// Graphs returns the charts of the active page in insertion order.
func (s *Store) Graphs() []PlacedChart {
	st, _ := s.State(s.page)
	return st.Charts
}

// ─── Board ────────────────────────────────────────────────────────────────────

// SlotView is one row of the rendered board.
type SlotView struct {
	Page     model.Page `json:"page"`
	Slot     int        `json:"slot"`
	GridArea string     `json:"grid_area"`
	ChartID  string     `json:"chart_id,omitempty"`
	Graph    GraphType  `json:"graph,omitempty"`
	Label    string     `json:"label,omitempty"`
}

// Board describes the active page as the renderer lays it out.
type Board struct {
	Page         model.Page `json:"page"`
	Layout       Type       `json:"layout"`
	GridTemplate string     `json:"grid_template"`
	Slots        []SlotView `json:"slots"`
}

// Board returns the grid of the active page, one entry per slot in slot
// order, with empty slots left blank.
func (s *Store) Board() Board {
	st := s.current()
	b := Board{Page: s.page, Layout: st.Layout, GridTemplate: st.Layout.GridTemplate()}
	for i := 0; i < st.Layout.SlotCount(); i++ {
		v := SlotView{Page: s.page, Slot: i, GridArea: st.Layout.SlotGridArea(i)}
		if c, ok := s.GraphAtSlot(i); ok {
			v.ChartID, v.Graph = c.ID, c.Graph
			if d, ok := c.Graph.Definition(); ok {
				v.Label = d.Label
			}
		}
		b.Slots = append(b.Slots, v)
	}
	return b
}

package layout

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/yojitsu/internal/model"
)

// Script is a replayable sequence of layout actions, typically loaded from
// YAML:
//
//	steps:
//	  - page: shipment
//	  - layout: 2x2
//	  - add: {graph: shipment-bar, slot: 3}
//	  - remove_slot: 3
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one action. Exactly one field must be set.
type Step struct {
	Page       string   `yaml:"page,omitempty"`
	Layout     string   `yaml:"layout,omitempty"`
	Add        *AddStep `yaml:"add,omitempty"`
	Remove     string   `yaml:"remove,omitempty"`
	RemoveSlot *int     `yaml:"remove_slot,omitempty"`
}

// AddStep places a graph in a slot.
type AddStep struct {
	Graph string `yaml:"graph"`
	Slot  int    `yaml:"slot"`
}

// ApplyResult reports what a script did.
type ApplyResult struct {
	Applied int           `json:"applied"`
	Added   []PlacedChart `json:"added,omitempty"`
	Removed []string      `json:"removed,omitempty"`
}

// LoadScript decodes a YAML script from r. Unknown keys are rejected.
func LoadScript(r io.Reader) (Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Script{}, nil
		}
		return Script{}, fmt.Errorf("parsing layout script: %w", err)
	}
	for i, st := range s.Steps {
		if n := st.actions(); n != 1 {
			return Script{}, fmt.Errorf("step %d: expected exactly one action, got %d", i+1, n)
		}
	}
	return s, nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{st.Page != "", st.Layout != "", st.Add != nil, st.Remove != "", st.RemoveSlot != nil} {
		if set {
			n++
		}
	}
	return n
}

// Apply replays script against the store, stopping at the first failing
// step. Steps before the failure stay applied.
func (s *Store) Apply(script Script) (ApplyResult, error) {
	var res ApplyResult
	for i, st := range script.Steps {
		if err := s.applyStep(st, &res); err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}
		res.Applied++
	}
	return res, nil
}

func (s *Store) applyStep(st Step, res *ApplyResult) error {
	switch {
	case st.Page != "":
		p, err := model.ParsePage(st.Page)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownPage, st.Page)
		}
		return s.SetPage(p)
	case st.Layout != "":
		t, err := ParseType(st.Layout)
		if err != nil {
			return err
		}
		return s.SetLayout(t)
	case st.Add != nil:
		g, err := ParseGraphType(st.Add.Graph)
		if err != nil {
			return err
		}
		pc, err := s.AddGraph(g, st.Add.Slot)
		if err != nil {
			return err
		}
		res.Added = append(res.Added, pc)
	case st.Remove != "":
		if s.RemoveGraph(st.Remove) {
			res.Removed = append(res.Removed, st.Remove)
		}
	case st.RemoveSlot != nil:
		if pc, ok := s.GraphAtSlot(*st.RemoveSlot); ok {
			s.RemoveGraph(pc.ID)
			res.Removed = append(res.Removed, pc.ID)
		}
	default:
		return errors.New("empty step")
	}
	return nil
}

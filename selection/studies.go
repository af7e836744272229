package selection

import (
	"fmt"

	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/accumulator"
)

// Labels used in study results.
const (
	LabelInitial = "initial"
	LabelAll     = "N"
)

// NMinusOne holds, for each selection of a study, the events passing every
// other selection of the study.
type NMinusOne struct {
	names   []string
	initial int
	all     int
	counts  []int
	masks   [][]bool
	allMask []bool
}

// NMinusOne runs an N-1 study over names, or over every selection when no
// names are given.
func (s *Set) NMinusOne(names ...string) (*NMinusOne, error) {
	names, cols, err := s.study(names)
	if err != nil {
		return nil, err
	}

	res := &NMinusOne{
		names:   names,
		initial: s.n,
		counts:  make([]int, len(names)),
		masks:   make([][]bool, len(names)),
	}
	for i := range names {
		mask := make([]bool, s.n)
		s.storage.Require(conditions(cols, i), mask)
		res.masks[i] = mask
		res.counts[i] = count(mask)
	}
	res.allMask = make([]bool, s.n)
	s.storage.Require(conditions(cols, -1), res.allMask)
	res.all = count(res.allMask)

	s.logger.Debug("n-1 study", "selections", len(names), "pass", res.all)
	return res, nil
}

// Names returns the selections of the study in order.
func (r *NMinusOne) Names() []string { return r.names }

// Initial returns the number of events before any selection.
func (r *NMinusOne) Initial() int { return r.initial }

// All returns the number of events passing every selection.
func (r *NMinusOne) All() int { return r.all }

// Without returns the number of events passing every selection except name.
func (r *NMinusOne) Without(name string) (int, bool) {
	for i, n := range r.names {
		if n == name {
			return r.counts[i], true
		}
	}
	return 0, false
}

// Mask returns the event mask passing every selection except name. The slice
// must not be modified.
func (r *NMinusOne) Mask(name string) ([]bool, bool) {
	for i, n := range r.names {
		if n == name {
			return r.masks[i], true
		}
	}
	return nil, false
}

// AllMask returns the mask of events passing every selection.
func (r *NMinusOne) AllMask() []bool { return r.allMask }

// Labels returns "initial", "N - <name>" for every selection, then "N".
func (r *NMinusOne) Labels() []string {
	out := make([]string, 0, len(r.names)+2)
	out = append(out, LabelInitial)
	for _, n := range r.names {
		out = append(out, minusLabel(n))
	}
	return append(out, LabelAll)
}

// ToMap returns the counts keyed by Labels, ready to be merged across chunks.
func (r *NMinusOne) ToMap() *accumulator.Map {
	m := accumulator.NewMap().Set(LabelInitial, accumulator.Int(r.initial))
	for i, n := range r.names {
		m.Set(minusLabel(n), accumulator.Int(r.counts[i]))
	}
	return m.Set(LabelAll, accumulator.Int(r.all))
}

func minusLabel(name string) string { return "N - " + name }

// Cutflow holds the event counts of a cutflow study: each selection applied
// alone and the selections applied cumulatively in order.
type Cutflow struct {
	names      []string
	initial    int
	onecut     []int
	cumulative []int
	masks      [][]bool
}

// Cutflow runs a cutflow over names, or over every selection in insertion
// order when no names are given.
func (s *Set) Cutflow(names ...string) (*Cutflow, error) {
	names, cols, err := s.study(names)
	if err != nil {
		return nil, err
	}

	res := &Cutflow{
		names:      names,
		initial:    s.n,
		onecut:     make([]int, len(names)),
		cumulative: make([]int, len(names)),
		masks:      make([][]bool, len(names)),
	}
	for i, col := range cols {
		one := make([]bool, s.n)
		s.storage.Require([]Condition{{Column: col, Value: true}}, one)
		res.onecut[i] = count(one)

		cum := make([]bool, s.n)
		s.storage.Require(conditions(cols[:i+1], -1), cum)
		res.cumulative[i] = count(cum)
		res.masks[i] = cum
	}

	s.logger.Debug("cutflow study", "selections", len(names))
	return res, nil
}

// Names returns the selections of the study in order.
func (c *Cutflow) Names() []string { return c.names }

// Initial returns the number of events before any selection.
func (c *Cutflow) Initial() int { return c.initial }

// OneCut returns the number of events passing each selection alone.
func (c *Cutflow) OneCut() []int { return c.onecut }

// Cumulative returns the number of events passing the first i+1 selections.
func (c *Cutflow) Cumulative() []int { return c.cumulative }

// Mask returns the events passing the first i+1 selections.
func (c *Cutflow) Mask(i int) []bool { return c.masks[i] }

// ToMap returns the counts as {"initial", "onecut": {...}, "cutflow": {...}}.
func (c *Cutflow) ToMap() *accumulator.Map {
	m := accumulator.NewMap().Set(LabelInitial, accumulator.Int(c.initial))
	one := m.Child("onecut")
	cum := m.Child("cutflow")
	for i, n := range c.names {
		one.Set(n, accumulator.Int(c.onecut[i]))
		cum.Set(n, accumulator.Int(c.cumulative[i]))
	}
	return m
}

func (s *Set) study(names []string) ([]string, []int, error) {
	if len(names) == 0 {
		names = s.Names()
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return nil, nil, fmt.Errorf("%w: selection %q listed twice", coffea.ErrInvalidArgument, n)
		}
		seen[n] = struct{}{}
	}
	cols, err := s.columns(names)
	if err != nil {
		return nil, nil, err
	}
	return names, cols, nil
}

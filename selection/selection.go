package selection

import (
	"maps"
	"slices"

	"github.com/jbrewster7/coffea"
)

// Set is a collection of named per-event boolean masks over a fixed number
// of events.
//
// Set is owned by a single chunk of processing and is not safe for
// concurrent use.
type Set struct {
	n       int
	names   []string
	index   map[string]int
	storage Storage
	logger  *coffea.Logger
}

// New creates an empty Set for n events.
func New(n int, optFns ...Option) *Set {
	o := applyOptions(optFns)
	return &Set{
		n:       n,
		index:   make(map[string]int),
		storage: o.storage(n),
		logger:  o.logger,
	}
}

// Len returns the number of events.
func (s *Set) Len() int { return s.n }

// Names returns the selection names in insertion order.
func (s *Set) Names() []string { return slices.Clone(s.names) }

// Add stores mask under name. On error the set is unchanged.
func (s *Set) Add(name string, mask []bool) error {
	if _, ok := s.index[name]; ok {
		return &coffea.DuplicateNameError{Kind: "selection", Name: name}
	}
	if len(mask) != s.n {
		return &coffea.LengthMismatchError{Name: name, Expected: s.n, Actual: len(mask)}
	}

	s.index[name] = s.storage.Columns()
	s.names = append(s.names, name)
	s.storage.Append(mask)

	s.logger.Debug("selection added", "name", name, "pass", count(mask))
	return nil
}

// All returns the events passing every named selection. With no names every
// event passes.
func (s *Set) All(names ...string) ([]bool, error) {
	conds := make(map[string]bool, len(names))
	for _, name := range names {
		conds[name] = true
	}
	return s.Require(conds)
}

// Require returns the events for which every listed selection equals its
// requested value. Selections not listed are unconstrained.
func (s *Set) Require(conds map[string]bool) ([]bool, error) {
	keys := slices.Sorted(maps.Keys(conds))
	cs := make([]Condition, len(keys))
	for i, name := range keys {
		col, err := s.column(name)
		if err != nil {
			return nil, err
		}
		cs[i] = Condition{Column: col, Value: conds[name]}
	}

	dst := make([]bool, s.n)
	s.storage.Require(cs, dst)
	return dst, nil
}

// Any returns the events passing at least one named selection. With no names
// no event passes.
func (s *Set) Any(names ...string) ([]bool, error) {
	cols, err := s.columns(names)
	if err != nil {
		return nil, err
	}
	dst := make([]bool, s.n)
	s.storage.Any(cols, dst)
	return dst, nil
}

func (s *Set) column(name string) (int, error) {
	col, ok := s.index[name]
	if !ok {
		return 0, &coffea.UnknownSelectionError{Name: name}
	}
	return col, nil
}

func (s *Set) columns(names []string) ([]int, error) {
	cols := make([]int, 0, len(names))
	for _, name := range names {
		col, err := s.column(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(cols, col) {
			cols = append(cols, col)
		}
	}
	return cols, nil
}

// conditions requires every column in cols except skip to be true.
func conditions(cols []int, skip int) []Condition {
	out := make([]Condition, 0, len(cols))
	for i, c := range cols {
		if i != skip {
			out = append(out, Condition{Column: c, Value: true})
		}
	}
	return out
}

func count(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}

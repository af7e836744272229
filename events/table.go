package events

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jbrewster7/coffea"
)

// ErrUnknownColumn is returned when a table has no column of the requested
// name and kind.
var ErrUnknownColumn = errors.New("unknown column")

// Metadata identifies where a chunk of events came from. Dataset is the key
// under which a chunk's output is filed.
type Metadata struct {
	Dataset    string
	Filename   string
	EntryStart int64
	EntryStop  int64
}

func (m Metadata) String() string {
	return fmt.Sprintf("%s:%s[%d:%d]", m.Dataset, m.Filename, m.EntryStart, m.EntryStop)
}

// Kind is the element type of a column.
type Kind uint8

const (
	KindFloat Kind = 0
	KindBool  Kind = 1
)

// Table is a set of equal-length named columns, one entry per event.
type Table struct {
	Metadata Metadata

	n      int
	order  []string
	kinds  map[string]Kind
	floats map[string][]float64
	bools  map[string][]bool
}

// NewTable creates an empty table of n events.
func NewTable(n int, md Metadata) *Table {
	return &Table{
		Metadata: md,
		n:        n,
		kinds:    make(map[string]Kind),
		floats:   make(map[string][]float64),
		bools:    make(map[string][]bool),
	}
}

// Len returns the number of events.
func (t *Table) Len() int { return t.n }

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string { return slices.Clone(t.order) }

// Kind returns the kind of the named column.
func (t *Table) Kind(name string) (Kind, bool) {
	k, ok := t.kinds[name]
	return k, ok
}

func (t *Table) check(name string, n int) error {
	if _, ok := t.kinds[name]; ok {
		return &coffea.DuplicateNameError{Kind: "column", Name: name}
	}
	if n != t.n {
		return &coffea.LengthMismatchError{Name: name, Expected: t.n, Actual: n}
	}
	return nil
}

// AddFloat adds a numeric column. The table keeps col without copying.
func (t *Table) AddFloat(name string, col []float64) error {
	if err := t.check(name, len(col)); err != nil {
		return err
	}
	t.order = append(t.order, name)
	t.kinds[name] = KindFloat
	t.floats[name] = col
	return nil
}

// AddBool adds a boolean column. The table keeps col without copying.
func (t *Table) AddBool(name string, col []bool) error {
	if err := t.check(name, len(col)); err != nil {
		return err
	}
	t.order = append(t.order, name)
	t.kinds[name] = KindBool
	t.bools[name] = col
	return nil
}

// Float returns the named numeric column.
func (t *Table) Float(name string) ([]float64, error) {
	col, ok := t.floats[name]
	if !ok {
		return nil, fmt.Errorf("%w: float column %q", ErrUnknownColumn, name)
	}
	return col, nil
}

// Bool returns the named boolean column.
func (t *Table) Bool(name string) ([]bool, error) {
	col, ok := t.bools[name]
	if !ok {
		return nil, fmt.Errorf("%w: bool column %q", ErrUnknownColumn, name)
	}
	return col, nil
}

// Slice returns the events [start, stop) as a new table sharing column
// storage with t. EntryStart and EntryStop are offset accordingly.
func (t *Table) Slice(start, stop int) (*Table, error) {
	if start < 0 || stop > t.n || start > stop {
		return nil, fmt.Errorf("%w: slice [%d:%d] of %d events", coffea.ErrInvalidArgument, start, stop, t.n)
	}
	md := t.Metadata
	md.EntryStart = t.Metadata.EntryStart + int64(start)
	md.EntryStop = t.Metadata.EntryStart + int64(stop)

	out := NewTable(stop-start, md)
	for _, name := range t.order {
		switch t.kinds[name] {
		case KindFloat:
			_ = out.AddFloat(name, t.floats[name][start:stop])
		case KindBool:
			_ = out.AddBool(name, t.bools[name][start:stop])
		}
	}
	return out, nil
}

// Filter returns a new table holding the events where mask is true.
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.n {
		return nil, &coffea.LengthMismatchError{Name: "mask", Expected: t.n, Actual: len(mask)}
	}
	out := NewTable(countTrue(mask), t.Metadata)
	for _, name := range t.order {
		switch t.kinds[name] {
		case KindFloat:
			_ = out.AddFloat(name, Where(t.floats[name], mask))
		case KindBool:
			_ = out.AddBool(name, Where(t.bools[name], mask))
		}
	}
	return out, nil
}

// Where returns the elements of col where mask is true. col and mask must
// have the same length.
func Where[T any](col []T, mask []bool) []T {
	out := make([]T, 0, countTrue(mask))
	for i, keep := range mask {
		if keep {
			out = append(out, col[i])
		}
	}
	return out
}

func countTrue(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}

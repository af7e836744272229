package hist

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/jbrewster7/coffea"
)

// Axis describes one dimension of a histogram.
type Axis interface {
	Name() string
	Label() string
}

// Binning is a numeric axis. Bin 0 is the underflow, bins 1..NBins() are the
// in-range bins and NBins()+1 is the overflow.
type Binning interface {
	Axis

	// NBins returns the number of in-range bins.
	NBins() int

	// Edges returns the NBins()+1 bin edges.
	Edges() []float64

	// Index returns the bin of x including flow bins. NaN goes to overflow.
	Index(x float64) int
}

// Regular is a numeric axis of equal-width bins on [Lo, Hi).
type Regular struct {
	name  string
	label string
	bins  int
	lo    float64
	hi    float64
}

// NewRegular creates a regular axis with bins bins on [lo, hi).
func NewRegular(name, label string, bins int, lo, hi float64) (*Regular, error) {
	if bins <= 0 || !(hi > lo) {
		return nil, fmt.Errorf("%w: regular axis %q needs bins > 0 and hi > lo", coffea.ErrInvalidArgument, name)
	}
	return &Regular{name: name, label: label, bins: bins, lo: lo, hi: hi}, nil
}

func (a *Regular) Name() string  { return a.name }
func (a *Regular) Label() string { return a.label }
func (a *Regular) NBins() int    { return a.bins }

func (a *Regular) Edges() []float64 {
	out := make([]float64, a.bins+1)
	width := (a.hi - a.lo) / float64(a.bins)
	for i := range out {
		out[i] = a.lo + float64(i)*width
	}
	out[a.bins] = a.hi
	return out
}

func (a *Regular) Index(x float64) int {
	switch {
	case math.IsNaN(x) || x >= a.hi:
		return a.bins + 1
	case x < a.lo:
		return 0
	}
	i := int(float64(a.bins) * (x - a.lo) / (a.hi - a.lo))
	return 1 + min(i, a.bins-1)
}

// Variable is a numeric axis with explicit, strictly increasing edges.
type Variable struct {
	name  string
	label string
	edges []float64
}

// NewVariable creates a variable-width axis. At least two edges are needed.
func NewVariable(name, label string, edges []float64) (*Variable, error) {
	if len(edges) < 2 {
		return nil, fmt.Errorf("%w: variable axis %q needs at least two edges", coffea.ErrInvalidArgument, name)
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, fmt.Errorf("%w: variable axis %q edges must increase", coffea.ErrInvalidArgument, name)
		}
	}
	return &Variable{name: name, label: label, edges: slices.Clone(edges)}, nil
}

func (a *Variable) Name() string     { return a.name }
func (a *Variable) Label() string    { return a.label }
func (a *Variable) NBins() int       { return len(a.edges) - 1 }
func (a *Variable) Edges() []float64 { return slices.Clone(a.edges) }

func (a *Variable) Index(x float64) int {
	if math.IsNaN(x) {
		return a.NBins() + 1
	}
	// Number of edges <= x.
	return sort.Search(len(a.edges), func(i int) bool { return a.edges[i] > x })
}

// StrCategory is a growable axis of string labels, such as dataset or
// analysis region. Labels appear as they are filled.
type StrCategory struct {
	name  string
	label string
}

// NewStrCategory creates a category axis.
func NewStrCategory(name, label string) *StrCategory {
	return &StrCategory{name: name, label: label}
}

func (a *StrCategory) Name() string  { return a.name }
func (a *StrCategory) Label() string { return a.label }

func sameBinning(a, b Binning) bool {
	if a.Name() != b.Name() {
		return false
	}
	switch a.(type) {
	case *Regular:
		if _, ok := b.(*Regular); !ok {
			return false
		}
	case *Variable:
		if _, ok := b.(*Variable); !ok {
			return false
		}
	}
	return slices.Equal(a.Edges(), b.Edges())
}

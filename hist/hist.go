package hist

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/accumulator"
)

// block holds the weighted bin contents for one combination of category
// labels, flattened row-major over the numeric axes including flow bins.
type block struct {
	labels []string
	sumw   []float64
	sumw2  []float64
}

func (b *block) clone() *block {
	return &block{labels: b.labels, sumw: slices.Clone(b.sumw), sumw2: slices.Clone(b.sumw2)}
}

// blockKey encodes labels as length-prefixed parts, so no label content can
// make two combinations share a key.
func blockKey(labels []string) string {
	var b []byte
	for _, l := range labels {
		b = strconv.AppendInt(b, int64(len(l)), 10)
		b = append(b, ':')
		b = append(b, l...)
	}
	return string(b)
}

// Hist is a weighted histogram over category axes and numeric axes.
//
// Every bin stores the sum of weights and the sum of squared weights.
// Numeric axes carry underflow and overflow bins. Histograms with the same
// axes combine by adding bin contents, matching category bins by label.
type Hist struct {
	label   string
	cats    []*StrCategory
	binning []Binning
	blocks  map[string]*block
	size    int
}

// New creates an empty histogram. Axes may be *StrCategory, *Regular or
// *Variable and must have distinct names.
func New(label string, axes ...Axis) (*Hist, error) {
	h := &Hist{label: label, blocks: make(map[string]*block), size: 1}
	seen := make(map[string]struct{}, len(axes))
	for _, ax := range axes {
		if _, ok := seen[ax.Name()]; ok {
			return nil, &coffea.DuplicateNameError{Kind: "axis", Name: ax.Name()}
		}
		seen[ax.Name()] = struct{}{}

		switch a := ax.(type) {
		case *StrCategory:
			h.cats = append(h.cats, a)
		case Binning:
			h.binning = append(h.binning, a)
			h.size *= a.NBins() + 2
		default:
			return nil, fmt.Errorf("%w: unsupported axis type %T", coffea.ErrInvalidArgument, ax)
		}
	}
	return h, nil
}

// Label returns the histogram label.
func (h *Hist) Label() string { return h.label }

// Axes returns the category axes followed by the numeric axes.
func (h *Hist) Axes() []Axis {
	out := make([]Axis, 0, len(h.cats)+len(h.binning))
	for _, c := range h.cats {
		out = append(out, c)
	}
	for _, b := range h.binning {
		out = append(out, b)
	}
	return out
}

// Fill adds one entry per event. cats gives the label of every category
// axis for the whole fill; values gives the per-event coordinate on every
// numeric axis. weight may be nil for unit weights.
func (h *Hist) Fill(cats map[string]string, values map[string][]float64, weight []float64) error {
	labels, err := h.labelsOf(cats)
	if err != nil {
		return err
	}
	key := blockKey(labels)

	cols := make([][]float64, len(h.binning))
	n := -1
	for i, ax := range h.binning {
		col, ok := values[ax.Name()]
		if !ok {
			return fmt.Errorf("%w: no values for axis %q", coffea.ErrInvalidArgument, ax.Name())
		}
		if n < 0 {
			n = len(col)
		} else if len(col) != n {
			return &coffea.LengthMismatchError{Name: ax.Name(), Expected: n, Actual: len(col)}
		}
		cols[i] = col
	}
	for name := range values {
		if !slices.ContainsFunc(h.binning, func(b Binning) bool { return b.Name() == name }) {
			return fmt.Errorf("%w: histogram has no numeric axis %q", coffea.ErrInvalidArgument, name)
		}
	}
	if n < 0 {
		// No numeric axes: one entry per weight, or a single entry.
		n = 1
		if weight != nil {
			n = len(weight)
		}
	}
	if weight != nil && len(weight) != n {
		return &coffea.LengthMismatchError{Name: "weight", Expected: n, Actual: len(weight)}
	}

	b := h.blocks[key]
	if b == nil {
		b = &block{labels: labels, sumw: make([]float64, h.size), sumw2: make([]float64, h.size)}
		h.blocks[key] = b
	}
	for i := range n {
		idx := 0
		for j, ax := range h.binning {
			idx = idx*(ax.NBins()+2) + ax.Index(cols[j][i])
		}
		w := 1.0
		if weight != nil {
			w = weight[i]
		}
		b.sumw[idx] += w
		b.sumw2[idx] += w * w
	}
	return nil
}

func (h *Hist) labelsOf(cats map[string]string) ([]string, error) {
	if len(cats) != len(h.cats) {
		return nil, fmt.Errorf("%w: expected %d category labels, got %d", coffea.ErrInvalidArgument, len(h.cats), len(cats))
	}
	parts := make([]string, len(h.cats))
	for i, c := range h.cats {
		v, ok := cats[c.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: no label for category axis %q", coffea.ErrInvalidArgument, c.Name())
		}
		parts[i] = v
	}
	return parts, nil
}

// Categories returns the sorted labels filled on the named category axis.
func (h *Hist) Categories(axis string) []string {
	idx := slices.IndexFunc(h.cats, func(c *StrCategory) bool { return c.Name() == axis })
	if idx < 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, b := range h.blocks {
		seen[b.labels[idx]] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Values returns the sums of weights for one combination of category labels,
// flattened row-major over the numeric axes. Without flow the under- and
// overflow bins are dropped. A combination never filled yields zeros.
func (h *Hist) Values(cats map[string]string, flow bool) ([]float64, error) {
	return h.view(cats, flow, func(b *block) []float64 { return b.sumw })
}

// Variances returns the sums of squared weights, laid out like Values.
func (h *Hist) Variances(cats map[string]string, flow bool) ([]float64, error) {
	return h.view(cats, flow, func(b *block) []float64 { return b.sumw2 })
}

func (h *Hist) view(cats map[string]string, flow bool, pick func(*block) []float64) ([]float64, error) {
	labels, err := h.labelsOf(cats)
	if err != nil {
		return nil, err
	}
	data := make([]float64, h.size)
	if b, ok := h.blocks[blockKey(labels)]; ok {
		copy(data, pick(b))
	}
	if flow {
		return data, nil
	}

	var out []float64
	var walk func(axis, offset int)
	walk = func(axis, offset int) {
		if axis == len(h.binning) {
			out = append(out, data[offset])
			return
		}
		ext := h.binning[axis].NBins() + 2
		for i := 1; i < ext-1; i++ {
			walk(axis+1, offset*ext+i)
		}
	}
	walk(0, 0)
	return out, nil
}

// Sum returns the total sum of weights over every bin. Without flow the
// under- and overflow bins are excluded.
func (h *Hist) Sum(flow bool) float64 {
	var total float64
	for _, b := range h.blocks {
		vals, _ := h.view(h.labelMap(b.labels), flow, func(b *block) []float64 { return b.sumw })
		for _, v := range vals {
			total += v
		}
	}
	return total
}

func (h *Hist) labelMap(labels []string) map[string]string {
	out := make(map[string]string, len(h.cats))
	for i, v := range labels {
		out[h.cats[i].Name()] = v
	}
	return out
}

// Clone returns a deep copy of h.
func (h *Hist) Clone() *Hist {
	out := &Hist{
		label:   h.label,
		cats:    h.cats,
		binning: h.binning,
		blocks:  make(map[string]*block, len(h.blocks)),
		size:    h.size,
	}
	for k, b := range h.blocks {
		out.blocks[k] = b.clone()
	}
	return out
}

// Compatible reports whether h and other have the same axes.
func (h *Hist) Compatible(other *Hist) error {
	if len(h.cats) != len(other.cats) || len(h.binning) != len(other.binning) {
		return fmt.Errorf("axis count differs")
	}
	for i := range h.cats {
		if h.cats[i].Name() != other.cats[i].Name() {
			return fmt.Errorf("category axis %q differs from %q", h.cats[i].Name(), other.cats[i].Name())
		}
	}
	for i := range h.binning {
		if !sameBinning(h.binning[i], other.binning[i]) {
			return fmt.Errorf("axis %q binning differs", h.binning[i].Name())
		}
	}
	return nil
}

// Shape implements accumulator.Accumulatable.
func (*Hist) Shape() accumulator.Shape { return accumulator.ShapeAdditive }

// Add implements accumulator.Additive. It returns a new histogram and leaves
// both operands unchanged.
func (h *Hist) Add(other accumulator.Accumulatable) (accumulator.Accumulatable, error) {
	o, ok := other.(*Hist)
	if !ok {
		return nil, coffea.NewIncompatibleTypesError(h, other, nil)
	}
	if err := h.Compatible(o); err != nil {
		return nil, coffea.NewIncompatibleTypesError(h, other, err)
	}

	out := h.Clone()
	for k, b := range o.blocks {
		dst, ok := out.blocks[k]
		if !ok {
			out.blocks[k] = b.clone()
			continue
		}
		for i := range dst.sumw {
			dst.sumw[i] += b.sumw[i]
			dst.sumw2[i] += b.sumw2[i]
		}
	}
	return out, nil
}

package lookup

import (
	"fmt"
	"slices"
	"sort"

	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/codec"
	"github.com/jbrewster7/coffea/hist"
)

// Dense is an N-dimensional binned lookup table, such as a scale-factor map
// in muon pt and eta. Coordinates outside the edges are clamped to the first
// or last bin.
type Dense struct {
	edges  [][]float64
	values []float64
}

// NewDense creates a table over the given per-dimension edges. values is
// flattened row-major and must hold one entry per bin.
func NewDense(values []float64, edges ...[]float64) (*Dense, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: lookup table needs at least one dimension", coffea.ErrInvalidArgument)
	}
	size := 1
	for d, e := range edges {
		if len(e) < 2 {
			return nil, fmt.Errorf("%w: dimension %d needs at least two edges", coffea.ErrInvalidArgument, d)
		}
		for i := 1; i < len(e); i++ {
			if !(e[i] > e[i-1]) {
				return nil, fmt.Errorf("%w: dimension %d edges must increase", coffea.ErrInvalidArgument, d)
			}
		}
		size *= len(e) - 1
	}
	if len(values) != size {
		return nil, &coffea.LengthMismatchError{Name: "lookup values", Expected: size, Actual: len(values)}
	}

	d := &Dense{edges: make([][]float64, len(edges)), values: slices.Clone(values)}
	for i, e := range edges {
		d.edges[i] = slices.Clone(e)
	}
	return d, nil
}

// FromHist builds a table from the in-range bin contents of one category
// combination of h.
func FromHist(h *hist.Hist, cats map[string]string) (*Dense, error) {
	values, err := h.Values(cats, false)
	if err != nil {
		return nil, err
	}
	var edges [][]float64
	for _, ax := range h.Axes() {
		if b, ok := ax.(hist.Binning); ok {
			edges = append(edges, b.Edges())
		}
	}
	return NewDense(values, edges...)
}

// Dims returns the number of dimensions.
func (d *Dense) Dims() int { return len(d.edges) }

// At returns the value at one coordinate per dimension.
func (d *Dense) At(coords ...float64) float64 {
	idx := 0
	for dim, e := range d.edges {
		idx = idx*(len(e)-1) + bin(e, coords[dim])
	}
	return d.values[idx]
}

// Evaluate returns the table value for every event. It takes one feature
// slice per dimension, all of the same length.
func (d *Dense) Evaluate(features ...[]float64) ([]float64, error) {
	if len(features) != len(d.edges) {
		return nil, fmt.Errorf("%w: lookup table has %d dimensions, got %d features", coffea.ErrInvalidArgument, len(d.edges), len(features))
	}
	n := len(features[0])
	for i, f := range features[1:] {
		if len(f) != n {
			return nil, &coffea.LengthMismatchError{Name: fmt.Sprintf("feature %d", i+1), Expected: n, Actual: len(f)}
		}
	}

	out := make([]float64, n)
	coords := make([]float64, len(features))
	for i := range out {
		for dim, f := range features {
			coords[dim] = f[i]
		}
		out[i] = d.At(coords...)
	}
	return out, nil
}

// bin returns the clamped in-range bin of x. NaN maps to the last bin.
func bin(edges []float64, x float64) int {
	i := sort.Search(len(edges), func(i int) bool { return edges[i] > x }) - 1
	return max(0, min(i, len(edges)-2))
}

type denseJSON struct {
	Edges  [][]float64 `json:"edges"`
	Values []float64   `json:"values"`
}

// Encode serializes d as {"edges": [[...], ...], "values": [...]} with c, or
// codec.Default when c is nil.
func Encode(c codec.Codec, d *Dense) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(denseJSON{Edges: d.edges, Values: d.values})
}

// Decode reads a table written by Encode with c, or codec.Default when c is
// nil.
func Decode(c codec.Codec, data []byte) (*Dense, error) {
	if c == nil {
		c = codec.Default
	}
	var in denseJSON
	if err := c.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode lookup table: %w", err)
	}
	d, err := NewDense(in.Values, in.Edges...)
	if err != nil {
		return nil, fmt.Errorf("decode lookup table: %w", err)
	}
	return d, nil
}

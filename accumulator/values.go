package accumulator

import (
	"fmt"
	"slices"

	"github.com/jbrewster7/coffea"
)

// Int is an additive integer counter.
type Int int64

// Shape implements Accumulatable.
func (Int) Shape() Shape { return ShapeAdditive }

// Add implements Additive.
func (v Int) Add(other Accumulatable) (Accumulatable, error) {
	o, ok := other.(Int)
	if !ok {
		return nil, coffea.NewIncompatibleTypesError(v, other, nil)
	}
	return v + o, nil
}

// Float is an additive float64 sum.
type Float float64

// Shape implements Accumulatable.
func (Float) Shape() Shape { return ShapeAdditive }

// Add implements Additive.
func (v Float) Add(other Accumulatable) (Accumulatable, error) {
	o, ok := other.(Float)
	if !ok {
		return nil, coffea.NewIncompatibleTypesError(v, other, nil)
	}
	return v + o, nil
}

// Floats is a fixed-length vector summed elementwise, e.g. per-bin counts.
type Floats []float64

// Shape implements Accumulatable.
func (Floats) Shape() Shape { return ShapeAdditive }

// Add implements Additive. Both operands must have the same length.
func (v Floats) Add(other Accumulatable) (Accumulatable, error) {
	o, ok := other.(Floats)
	if !ok {
		return nil, coffea.NewIncompatibleTypesError(v, other, nil)
	}
	if len(o) != len(v) {
		return nil, coffea.NewIncompatibleTypesError(v, other,
			fmt.Errorf("%w: lengths %d and %d", coffea.ErrLengthMismatch, len(v), len(o)))
	}
	out := slices.Clone(v)
	for i := range out {
		out[i] += o[i]
	}
	return out, nil
}

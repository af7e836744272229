package accumulator

import (
	"errors"
	"fmt"
	"iter"

	"github.com/jbrewster7/coffea"
)

// ErrNoInput is returned when folding an empty sequence of values.
var ErrNoInput = errors.New("accumulate: no input values")

// Shape is the closed set of accumulator shapes.
type Shape uint8

const (
	// ShapeAdditive marks leaves that implement Additive.
	ShapeAdditive Shape = iota + 1
	// ShapeSet marks *Set values.
	ShapeSet
	// ShapeMap marks *Map values.
	ShapeMap
)

func (s Shape) String() string {
	switch s {
	case ShapeAdditive:
		return "additive"
	case ShapeSet:
		return "set"
	case ShapeMap:
		return "map"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

// Accumulatable is a value produced by processing one unit of input that
// can be combined with values produced by other units.
type Accumulatable interface {
	Shape() Shape
}

// Additive is a leaf value with a binary, addition-like combine.
//
// Add must not modify the receiver or other and must return
// IncompatibleTypesError when other is not a value it can add.
type Additive interface {
	Accumulatable
	Add(other Accumulatable) (Accumulatable, error)
}

// Combine merges two values of the same shape into a new value.
//
// Maps are merged key-wise (recursively for shared keys), sets by union, and
// additive leaves through their Add method. Neither operand is modified.
func Combine(a, b Accumulatable) (Accumulatable, error) {
	return combine(a, b, "")
}

func combine(a, b Accumulatable, path string) (Accumulatable, error) {
	if a == nil || b == nil {
		return nil, incompatible(a, b, path, fmt.Errorf("%w: nil value", coffea.ErrInvalidArgument))
	}
	if a.Shape() != b.Shape() {
		return nil, incompatible(a, b, path, fmt.Errorf("shape %s vs %s", a.Shape(), b.Shape()))
	}

	switch a.Shape() {
	case ShapeMap:
		ma, okA := a.(*Map)
		mb, okB := b.(*Map)
		if !okA || !okB {
			return nil, incompatible(a, b, path, nil)
		}
		return ma.merge(mb, path)
	case ShapeSet:
		sa, okA := a.(*Set)
		sb, okB := b.(*Set)
		if !okA || !okB {
			return nil, incompatible(a, b, path, nil)
		}
		return sa.Union(sb), nil
	case ShapeAdditive:
		add, ok := a.(Additive)
		if !ok {
			return nil, incompatible(a, b, path, errors.New("value does not implement Add"))
		}
		out, err := add.Add(b)
		if err != nil {
			var ite *coffea.IncompatibleTypesError
			if errors.As(err, &ite) && ite.Path == "" {
				ite.Path = path
			}
			return nil, err
		}
		return out, nil
	default:
		return nil, incompatible(a, b, path, fmt.Errorf("unknown shape %s", a.Shape()))
	}
}

func incompatible(a, b any, path string, cause error) error {
	e := coffea.NewIncompatibleTypesError(a, b, cause)
	e.Path = path
	return e
}

// Accumulate folds values left to right with Combine.
//
// A single value is returned unchanged. An empty input returns ErrNoInput.
func Accumulate(values ...Accumulatable) (Accumulatable, error) {
	if len(values) == 0 {
		return nil, ErrNoInput
	}
	out := values[0]
	for i, v := range values[1:] {
		next, err := Combine(out, v)
		if err != nil {
			return nil, fmt.Errorf("accumulate value %d: %w", i+1, err)
		}
		out = next
	}
	return out, nil
}

// AccumulateSeq folds a stream of values. It returns ErrNoInput if seq
// yields nothing.
func AccumulateSeq(seq iter.Seq[Accumulatable]) (Accumulatable, error) {
	var out Accumulatable
	i := 0
	for v := range seq {
		if out == nil {
			out = v
			i++
			continue
		}
		next, err := Combine(out, v)
		if err != nil {
			return nil, fmt.Errorf("accumulate value %d: %w", i, err)
		}
		out = next
		i++
	}
	if out == nil {
		return nil, ErrNoInput
	}
	return out, nil
}

// Reduce combines values pairwise as a balanced tree. For additive leaves
// the result equals Accumulate up to floating-point rounding.
func Reduce(values []Accumulatable) (Accumulatable, error) {
	if len(values) == 0 {
		return nil, ErrNoInput
	}
	level := values
	for len(level) > 1 {
		next := make([]Accumulatable, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			v, err := Combine(level[i], level[i+1])
			if err != nil {
				return nil, err
			}
			next = append(next, v)
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0], nil
}

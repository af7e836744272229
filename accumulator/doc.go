// Package accumulator implements mergeable per-chunk outputs.
//
// Every value has one of three shapes:
//
//   - additive leaves (Int, Float, Floats, histograms, weight statistics, or
//     any type implementing Additive), combined with Add
//   - *Set, combined by union
//   - *Map, combined key-wise; keys present in one operand pass through
//
// Combine never modifies its operands, so partial outputs from concurrently
// processed chunks can be merged in any order or as a reduction tree:
//
//	out := accumulator.NewMap()
//	out.Child("DYJetsToLL").Set("sumw", accumulator.Float(42.0))
//
//	total, err := accumulator.Accumulate(outA, outB, outC)
//
// Folding an empty sequence returns ErrNoInput.
package accumulator

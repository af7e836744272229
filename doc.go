// Package coffea provides the shared error types, logging and metrics hooks
// of a columnar event-analysis toolkit.
//
// The toolkit is organised around mergeable per-chunk outputs: every chunk of
// events is processed independently and its output, a tree of accumulator
// values, is folded into a single result.
//
// # Quick Start
//
//	w := weights.New(n)
//	_ = w.Add("genWeight", genWeight, nil, nil)
//	_ = w.Add("pileup", pu, puUp, puDown)
//
//	sel := selection.New(n)
//	_ = sel.Add("twoMuons", twoMuons)
//	_ = sel.Add("oppositeCharge", os)
//
//	mask, _ := sel.All("twoMuons", "oppositeCharge")
//	nominal, _ := w.Weight("")
//
//	out := accumulator.NewMap()
//	out.Set("sumw", accumulator.Float(sum(nominal)))
//
//	total, _ := accumulator.Accumulate(outA, outB, outC)
//
// # Packages
//
//   - weights: named multiplicative event weights with systematic variations
//   - selection: named boolean masks stored bit-packed
//   - accumulator: mergeable values (additive leaves, sets, maps)
//   - hist: weighted histograms usable as accumulator leaves
//   - lookup: binned scale-factor tables usable as weight evaluators
//   - events: columnar event tables and their binary file format
//   - processor: chunked execution of a Processor over a fileset
//   - output: persisted, compressed accumulator outputs
//   - blobstore: local, in-memory, MinIO and S3 storage for events and outputs
//   - resource: limits on concurrent chunks, cache memory and I/O
//
// # Errors
//
// All packages report failures with the typed errors of this package, which
// match their sentinel values with errors.Is:
//
//	if errors.Is(err, coffea.ErrDuplicateName) { ... }
package coffea

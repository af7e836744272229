// Package testutil provides deterministic random data for tests and
// benchmarks.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(seed)
//	pt := rng.Exponential(n, 30)      // falling pt spectrum
//	eta := rng.UniformRange(n, -2.5, 2.5)
//	pass := rng.Masks(n, 0.3)         // ~30% true
package testutil

package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float64 in a loop).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// UniformRange returns n values in range [minVal, maxVal).
func (r *RNG) UniformRange(n int, minVal, maxVal float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, n)
	span := maxVal - minVal
	for i := range out {
		out[i] = minVal + r.rand.Float64()*span
	}
	return out
}

// Gaussian returns n values drawn from N(mean, sigma²).
func (r *RNG) Gaussian(n int, mean, sigma float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + r.rand.NormFloat64()*sigma
	}
	return out
}

// Exponential returns n values drawn from an exponential distribution with
// the given mean, the usual shape of a transverse momentum spectrum.
func (r *RNG) Exponential(n int, mean float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, n)
	for i := range out {
		out[i] = r.rand.ExpFloat64() * mean
	}
	return out
}

// Masks returns n booleans, each true with probability rate.
func (r *RNG) Masks(n int, rate float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, n)
	for i := range out {
		out[i] = r.rand.Float64() < rate
	}
	return out
}

// Charges returns n values of +1 or -1 with equal probability.
func (r *RNG) Charges(n int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
		if r.rand.Intn(2) == 0 {
			out[i] = -1
		}
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s, so s=1.5 puts most samples in the first few values.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Categories assigns n events to labels with a Zipfian skew.
func (r *RNG) Categories(n int, labels []string, s float64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, n)
	for i := range out {
		out[i] = labels[r.zipfLocked(len(labels), s)]
	}
	return out
}

// InvariantMass returns the invariant mass of two massless particles given
// their pt, eta and phi.
func InvariantMass(pt1, eta1, phi1, pt2, eta2, phi2 float64) float64 {
	m2 := 2 * pt1 * pt2 * (math.Cosh(eta1-eta2) - math.Cos(phi1-phi2))
	return math.Sqrt(math.Max(m2, 0))
}

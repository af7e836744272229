// Package weights manages named multiplicative event weights and their
// systematic variations for one chunk of events.
//
// Each weight is a per-event vector registered once under a name. The total
// nominal weight is the elementwise product of all registered vectors, and a
// variation such as "pileupUp" swaps exactly one vector for its varied form.
// Statistics about every registered weight are recorded so they can be merged
// across chunks with the accumulator package.
package weights

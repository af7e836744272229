// Package selection stores named per-event boolean masks and evaluates
// conjunctions, disjunctions, N-1 and cutflow studies over them.
//
// The masks live in a pluggable Storage. Packed (the default) stores one
// word per event for every 64 selections, Bitmap and Roaring store one
// compressed bitmap per selection, and Bools keeps plain slices. All four
// give identical results.
package selection

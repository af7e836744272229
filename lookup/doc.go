// Package lookup provides binned lookup tables used as per-event weight
// evaluators.
package lookup

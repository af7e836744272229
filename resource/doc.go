// Package resource bounds the memory, chunk concurrency and blob store
// throughput of a processing run.
package resource

// Package events holds columnar event data: a Table of named per-event
// columns, a compact compressed file format for storing tables in a blob
// store, and an in-memory source.
package events

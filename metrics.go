package coffea

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    chunkCounter   *prometheus.CounterVec
//	    chunkHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordChunk(dataset string, events int, d time.Duration, err error) {
//	    p.chunkCounter.WithLabelValues(dataset).Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordChunk is called after each chunk has been processed.
	// events is the number of events in the chunk, err is nil if successful.
	RecordChunk(dataset string, events int, duration time.Duration, err error)

	// RecordMerge is called after a partial output has been folded into the
	// running result.
	RecordMerge(duration time.Duration, err error)

	// RecordSave is called after an output has been persisted.
	RecordSave(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordChunk(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMerge(time.Duration, error)              {}
func (NoopMetricsCollector) RecordSave(int, time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ChunkCount      atomic.Int64
	ChunkErrors     atomic.Int64
	ChunkEvents     atomic.Int64
	ChunkTotalNanos atomic.Int64
	MergeCount      atomic.Int64
	MergeErrors     atomic.Int64
	MergeTotalNanos atomic.Int64
	SaveCount       atomic.Int64
	SaveErrors      atomic.Int64
	SaveBytes       atomic.Int64
}

// RecordChunk implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunk(_ string, events int, duration time.Duration, err error) {
	b.ChunkCount.Add(1)
	b.ChunkTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ChunkErrors.Add(1)
		return
	}
	b.ChunkEvents.Add(int64(events))
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(duration time.Duration, err error) {
	b.MergeCount.Add(1)
	b.MergeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ChunkCount:     b.ChunkCount.Load(),
		ChunkErrors:    b.ChunkErrors.Load(),
		ChunkEvents:    b.ChunkEvents.Load(),
		ChunkAvgNanos:  avg(b.ChunkTotalNanos.Load(), b.ChunkCount.Load()),
		MergeCount:     b.MergeCount.Load(),
		MergeErrors:    b.MergeErrors.Load(),
		MergeAvgNanos:  avg(b.MergeTotalNanos.Load(), b.MergeCount.Load()),
		SaveCount:      b.SaveCount.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		SaveTotalBytes: b.SaveBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ChunkCount     int64
	ChunkErrors    int64
	ChunkEvents    int64
	ChunkAvgNanos  int64
	MergeCount     int64
	MergeErrors    int64
	MergeAvgNanos  int64
	SaveCount      int64
	SaveErrors     int64
	SaveTotalBytes int64
}

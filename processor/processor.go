package processor

import (
	"context"
	"fmt"
	"slices"

	"github.com/jbrewster7/coffea/accumulator"
	"github.com/jbrewster7/coffea/events"
)

// Processor is the user analysis. Process is called once per chunk and may
// run concurrently on different chunks; it must not share mutable state
// between calls. Postprocess runs once on the merged output.
type Processor interface {
	Process(ctx context.Context, events *events.Table) (accumulator.Accumulatable, error)
	Postprocess(ctx context.Context, acc accumulator.Accumulatable) (accumulator.Accumulatable, error)
}

// Func adapts a per-chunk function to Processor with an identity
// Postprocess.
type Func func(ctx context.Context, events *events.Table) (accumulator.Accumulatable, error)

// Process implements Processor.
func (f Func) Process(ctx context.Context, events *events.Table) (accumulator.Accumulatable, error) {
	return f(ctx, events)
}

// Postprocess implements Processor.
func (Func) Postprocess(_ context.Context, acc accumulator.Accumulatable) (accumulator.Accumulatable, error) {
	return acc, nil
}

// Fileset maps dataset names to the files holding their events.
type Fileset map[string][]string

// Datasets returns the dataset names in sorted order.
func (fs Fileset) Datasets() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Chunk is a contiguous entry range [Start, Stop) of one file.
type Chunk struct {
	Dataset string
	File    string
	Start   int64
	Stop    int64
}

// Len returns the number of events in the chunk.
func (c Chunk) Len() int64 { return c.Stop - c.Start }

func (c Chunk) String() string {
	return fmt.Sprintf("%s:%s[%d:%d]", c.Dataset, c.File, c.Start, c.Stop)
}

// Split cuts a file of n entries into chunks of at most size entries. The
// last chunk holds the remainder.
func Split(dataset, file string, n, size int64) []Chunk {
	if size <= 0 {
		size = n
	}
	var out []Chunk
	for start := int64(0); start < n; start += size {
		out = append(out, Chunk{
			Dataset: dataset,
			File:    file,
			Start:   start,
			Stop:    min(start+size, n),
		})
	}
	return out
}

package processor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jbrewster7/coffea/accumulator"
)

// Runner splits a Fileset into chunks, runs a Processor over them with an
// Executor and merges the outputs.
type Runner struct {
	source Source
	opts   options
}

// NewRunner creates a Runner reading events from source.
func NewRunner(source Source, optFns ...Option) *Runner {
	return &Runner{source: source, opts: applyOptions(optFns)}
}

// Chunks lists the chunks of fs: datasets in sorted order, files in the
// given order, entry ranges of at most the configured chunk size.
func (r *Runner) Chunks(ctx context.Context, fs Fileset) ([]Chunk, error) {
	var chunks []Chunk
	for _, dataset := range fs.Datasets() {
		for _, file := range fs[dataset] {
			n, err := r.source.Entries(ctx, file)
			if err != nil {
				if r.opts.skipBad && ctx.Err() == nil {
					r.opts.logger.WarnContext(ctx, "skipping unreadable file",
						"dataset", dataset,
						"file", file,
						"error", err,
					)
					continue
				}
				return nil, fmt.Errorf("entries of %s: %w", file, err)
			}
			chunks = append(chunks, Split(dataset, file, n, r.opts.chunkSize)...)
		}
	}
	return chunks, nil
}

// Run processes every chunk of fs with proc and returns the postprocessed,
// merged output.
//
// Each chunk's table carries its dataset in Metadata.Dataset. It returns
// accumulator.ErrNoInput when no chunk produced output.
func (r *Runner) Run(ctx context.Context, fs Fileset, proc Processor) (accumulator.Accumulatable, error) {
	chunks, err := r.Chunks(ctx, fs)
	if err != nil {
		return nil, err
	}

	var failed atomic.Int64
	task := func(ctx context.Context, c Chunk) (accumulator.Accumulatable, error) {
		if err := r.opts.rc.AcquireChunk(ctx); err != nil {
			return nil, err
		}
		defer r.opts.rc.ReleaseChunk()

		start := time.Now()
		out, err := r.process(ctx, c, proc)
		elapsed := time.Since(start)

		r.opts.metrics.RecordChunk(c.Dataset, int(c.Len()), elapsed, err)
		r.opts.logger.WithChunk(c.File, int(c.Start), int(c.Stop)).LogChunk(ctx, c.Dataset, int(c.Len()), elapsed, err)
		if err != nil {
			if r.opts.skipBad && ctx.Err() == nil {
				failed.Add(1)
				return nil, nil
			}
			return nil, fmt.Errorf("chunk %s: %w", c, err)
		}
		return out, nil
	}

	merge := func(a, b accumulator.Accumulatable) (accumulator.Accumulatable, error) {
		start := time.Now()
		out, err := accumulator.Combine(a, b)
		r.opts.metrics.RecordMerge(time.Since(start), err)
		if err != nil {
			r.opts.logger.LogMerge(ctx, 2, err)
		}
		return out, err
	}

	total, err := r.opts.executor.Execute(ctx, chunks, task, merge)
	r.opts.logger.LogRun(ctx, len(chunks), int(failed.Load()))
	if err != nil {
		return nil, err
	}
	if total == nil {
		return nil, fmt.Errorf("run over %d chunks: %w", len(chunks), accumulator.ErrNoInput)
	}
	return proc.Postprocess(ctx, total)
}

func (r *Runner) process(ctx context.Context, c Chunk, proc Processor) (accumulator.Accumulatable, error) {
	table, err := r.source.Read(ctx, c.File, c.Start, c.Stop)
	if err != nil {
		return nil, err
	}
	table.Metadata.Dataset = c.Dataset
	return proc.Process(ctx, table)
}

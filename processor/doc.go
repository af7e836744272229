// Package processor runs an analysis over a fileset.
//
// A Runner splits every file of a Fileset into chunks of at most
// WithChunkSize events, hands each chunk's table to a Processor, and folds
// the per-chunk outputs with accumulator.Combine. Executors decide where
// chunks run:
//
//   - IterativeExecutor: sequentially on the calling goroutine
//   - PoolExecutor: on a bounded goroutine pool
//
// # Usage
//
//	runner := processor.NewRunner(processor.NewBlobSource(store, rc),
//	    processor.WithExecutor(processor.NewPoolExecutor(processor.WithWorkers(8))),
//	    processor.WithChunkSize(50_000),
//	)
//	out, err := runner.Run(ctx, processor.Fileset{
//	    "DY": {"dy_0.cfev", "dy_1.cfev"},
//	}, analysis)
package processor

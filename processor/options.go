package processor

import (
	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/resource"
)

// DefaultChunkSize is the default number of events per chunk.
const DefaultChunkSize = 100_000

type options struct {
	executor  Executor
	chunkSize int64
	skipBad   bool
	logger    *coffea.Logger
	metrics   coffea.MetricsCollector
	rc        *resource.Controller
}

// Option configures a Runner.
type Option func(*options)

// WithExecutor sets the executor. Default: IterativeExecutor.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithChunkSize sets the maximum number of events per chunk.
func WithChunkSize(n int64) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithSkipBadChunks makes the runner log and skip chunks whose read or
// processing fails instead of aborting the run.
func WithSkipBadChunks(skip bool) Option {
	return func(o *options) {
		o.skipBad = skip
	}
}

// WithLogger configures structured logging of chunks, merges and runs.
func WithLogger(logger *coffea.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsCollector configures the collector notified per chunk and merge.
func WithMetricsCollector(mc coffea.MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithResourceController bounds the number of chunks in flight with rc's
// chunk slots.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		executor:  IterativeExecutor{},
		chunkSize: DefaultChunkSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.executor == nil {
		o.executor = IterativeExecutor{}
	}
	if o.logger == nil {
		o.logger = coffea.NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = coffea.NoopMetricsCollector{}
	}
	return o
}

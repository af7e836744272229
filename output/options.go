package output

import (
	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/codec"
	"github.com/jbrewster7/coffea/compress"
	"github.com/jbrewster7/coffea/resource"
)

type options struct {
	codec       codec.Codec
	compression compress.Type
	blockSize   int
	logger      *coffea.Logger
	metrics     coffea.MetricsCollector
	rc          *resource.Controller
}

// Option configures Save, Load and Write.
type Option func(*options)

// WithCodec sets the codec used to encode the accumulator tree.
// Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithCompression sets the block compression. Default: compress.LZ4.
func WithCompression(t compress.Type) Option {
	return func(o *options) {
		o.compression = t
	}
}

// WithBlockSize sets the uncompressed size of each compressed block.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithLogger configures structured logging of saves and loads.
func WithLogger(logger *coffea.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsCollector configures the collector notified after each save.
func WithMetricsCollector(mc coffea.MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithResourceController throttles output I/O with rc's I/O limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:       codec.Default,
		compression: compress.LZ4,
		blockSize:   compress.DefaultBlockSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.codec == nil {
		o.codec = codec.Default
	}
	if o.logger == nil {
		o.logger = coffea.NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = coffea.NoopMetricsCollector{}
	}
	return o
}

package weights

import "github.com/jbrewster7/coffea"

type options struct {
	logger *coffea.Logger
}

// Option configures a Weights.
type Option func(*options)

// WithLogger configures structured logging of registered weights.
// Pass nil to disable logging.
func WithLogger(logger *coffea.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func applyOptions(optFns []Option) options {
	o := options{}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = coffea.NoopLogger()
	}
	return o
}

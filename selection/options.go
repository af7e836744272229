package selection

import "github.com/jbrewster7/coffea"

type options struct {
	storage StorageFactory
	logger  *coffea.Logger
}

// Option configures a Set.
type Option func(*options)

// WithStorage selects the storage strategy. The default is Packed.
func WithStorage(f StorageFactory) Option {
	return func(o *options) {
		o.storage = f
	}
}

// WithLogger configures structured logging of added selections.
func WithLogger(logger *coffea.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		storage: Packed,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.storage == nil {
		o.storage = Packed
	}
	if o.logger == nil {
		o.logger = coffea.NoopLogger()
	}
	return o
}

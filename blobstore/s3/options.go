package s3

type options struct {
	prefix             string
	region             string
	endpoint           string
	partSize           int64
	multipartThreshold int
}

// Option configures a Store.
type Option func(*options)

// WithPrefix sets the key prefix used by New.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithRegion overrides the region of the default AWS configuration.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithEndpoint points the client at an S3-compatible endpoint and enables
// path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithPartSize sets the multipart upload part size in bytes.
func WithPartSize(size int64) Option {
	return func(o *options) {
		o.partSize = size
	}
}

// WithMultipartThreshold sets the blob size above which Put uses multipart
// uploads.
func WithMultipartThreshold(n int) Option {
	return func(o *options) {
		o.multipartThreshold = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{multipartThreshold: DefaultMultipartThreshold}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

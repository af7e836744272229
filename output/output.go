package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jbrewster7/coffea/accumulator"
	"github.com/jbrewster7/coffea/blobstore"
	"github.com/jbrewster7/coffea/codec"
	"github.com/jbrewster7/coffea/compress"
	"github.com/jbrewster7/coffea/resource"
)

const (
	magic   = "CFOA"
	version = 1

	// magic + version + compression + codec name length
	fixedHeaderSize = len(magic) + 3
)

var (
	// ErrInvalidFormat is returned when a blob is not a saved output.
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrUnsupportedVersion is returned for outputs written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported output version")
)

// Header describes a saved output.
type Header struct {
	Version     uint8
	Compression compress.Type
	Codec       string
}

// Write encodes acc to w: a header naming the compression and codec, then
// the compressed accumulator tree. Writes go through the resource
// controller's I/O limit when one is configured.
func Write(ctx context.Context, w io.Writer, acc accumulator.Accumulatable, optFns ...Option) (int64, error) {
	o := applyOptions(optFns)

	payload, err := accumulator.Marshal(o.codec, acc)
	if err != nil {
		return 0, err
	}

	name := o.codec.Name()
	if len(name) > 255 {
		return 0, fmt.Errorf("codec name %q too long", name)
	}

	rw := resource.NewRateLimitedWriter(ctx, w, o.rc)
	header := make([]byte, 0, fixedHeaderSize+len(name))
	header = append(header, magic...)
	header = append(header, version, byte(o.compression), byte(len(name)))
	header = append(header, name...)
	if _, err := rw.Write(header); err != nil {
		return 0, err
	}

	cw := compress.NewWriter(rw, o.compression, o.blockSize)
	if _, err := cw.Write(payload); err != nil {
		return 0, err
	}
	if err := cw.Close(); err != nil {
		return 0, err
	}
	return int64(len(header)) + cw.BytesWritten(), nil
}

// ReadHeader parses the header of a saved output and returns it together
// with the header length.
func ReadHeader(data []byte) (Header, int, error) {
	if len(data) < fixedHeaderSize || string(data[:len(magic)]) != magic {
		return Header{}, 0, ErrInvalidFormat
	}
	h := Header{
		Version:     data[4],
		Compression: compress.Type(data[5]),
	}
	if h.Version != version {
		return Header{}, 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if !h.Compression.Valid() {
		return Header{}, 0, fmt.Errorf("%w: unknown compression %d", ErrInvalidFormat, data[5])
	}
	n := fixedHeaderSize + int(data[6])
	if len(data) < n {
		return Header{}, 0, fmt.Errorf("%w: truncated header", ErrInvalidFormat)
	}
	h.Codec = string(data[fixedHeaderSize:n])
	return h, n, nil
}

// Decode reverses Write. The codec is taken from the header.
func Decode(data []byte) (accumulator.Accumulatable, error) {
	h, n, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrInvalidFormat, h.Codec)
	}
	payload, err := compress.Decompress(data[n:], h.Compression)
	if err != nil {
		return nil, err
	}
	acc, err := accumulator.Unmarshal(c, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return acc, nil
}

// Save persists acc under name in store.
func Save(ctx context.Context, store blobstore.BlobStore, name string, acc accumulator.Accumulatable, optFns ...Option) (err error) {
	o := applyOptions(optFns)
	start := time.Now()
	var size int
	defer func() {
		o.metrics.RecordSave(size, time.Since(start), err)
		o.logger.LogSave(ctx, name, size, err)
	}()

	var buf bytes.Buffer
	if _, err = Write(ctx, &buf, acc, optFns...); err != nil {
		return fmt.Errorf("encode output %q: %w", name, err)
	}
	size = buf.Len()
	if err = store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("put output %q: %w", name, err)
	}
	return nil
}

// Load reads an output saved with Save.
func Load(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (acc accumulator.Accumulatable, err error) {
	o := applyOptions(optFns)
	defer func() {
		o.logger.LogLoad(ctx, name, err)
	}()

	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get output %q: %w", name, err)
	}
	if err = o.rc.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	acc, err = Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode output %q: %w", name, err)
	}
	return acc, nil
}

// Stat returns the header of a saved output without decoding the tree.
func Stat(ctx context.Context, store blobstore.BlobStore, name string) (Header, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return Header{}, err
	}
	h, _, err := ReadHeader(data)
	return h, err
}

package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jbrewster7/coffea/internal/conv"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies the block compression algorithm. Its value is persisted
// in file headers.
type Type uint8

const (
	// None stores blocks uncompressed.
	None Type = 0
	// LZ4 is fast block compression, the default for saved outputs.
	LZ4 Type = 1
	// ZSTD trades speed for a better ratio, suited to archived event chunks.
	ZSTD Type = 2
)

// DefaultBlockSize is the uncompressed size of one block.
const DefaultBlockSize = 256 * 1024

// ErrCorrupt indicates a truncated or malformed block stream.
var ErrCorrupt = errors.New("corrupt compressed data")

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compress.Type(%d)", uint8(t))
	}
}

// ParseType returns the Type named s ("none", "lz4" or "zstd").
func ParseType(s string) (Type, error) {
	for _, t := range []Type{None, LZ4, ZSTD} {
		if t.String() == s {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown compression %q", s)
}

// Valid reports whether t is a known algorithm.
func (t Type) Valid() bool { return t <= ZSTD }

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Each block is [uncompressed u32][compressed u32][data]. A compressed size
// of 0 means the data is stored raw.
const blockHeaderSize = 8

// encodeBlock compresses one block, falling back to raw storage when
// compression saves less than 10%.
func encodeBlock(data []byte, t Type) ([]byte, error) {
	var compressed []byte
	switch t {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	}

	rawSize, err := conv.IntToUint32(len(data))
	if err != nil {
		return nil, fmt.Errorf("block size: %w", err)
	}
	out := make([]byte, blockHeaderSize, blockHeaderSize+len(data))
	binary.LittleEndian.PutUint32(out[0:], rawSize)
	if t == None || len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return append(out, data...), nil
	}
	// compressed is smaller than data here, so it fits as well.
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	return append(out, compressed...), nil
}

// decodeBlock decodes the block at the start of data and returns it with the
// number of bytes consumed.
func decodeBlock(data []byte, t Type) ([]byte, int, error) {
	if len(data) < blockHeaderSize {
		return nil, 0, fmt.Errorf("%w: block header truncated", ErrCorrupt)
	}
	rawSize := binary.LittleEndian.Uint32(data[0:])
	packedSize := binary.LittleEndian.Uint32(data[4:])

	if packedSize == 0 {
		end := blockHeaderSize + int(rawSize)
		if len(data) < end {
			return nil, 0, fmt.Errorf("%w: raw block truncated", ErrCorrupt)
		}
		return data[blockHeaderSize:end], end, nil
	}

	end := blockHeaderSize + int(packedSize)
	if len(data) < end {
		return nil, 0, fmt.Errorf("%w: compressed block truncated", ErrCorrupt)
	}
	packed := data[blockHeaderSize:end]
	result := make([]byte, rawSize)

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(packed, result)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if uint32(n) != rawSize {
			return nil, 0, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return result, end, nil
	case ZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		decoded, err := dec.DecodeAll(packed, result[:0])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != rawSize {
			return nil, 0, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, end, nil
	default:
		return nil, 0, fmt.Errorf("%w: compressed block with compression %s", ErrCorrupt, t)
	}
}

// Writer splits a byte stream into blocks and writes each block compressed
// to an underlying writer. Call Close to flush the last block.
type Writer struct {
	w         io.Writer
	t         Type
	blockSize int
	buffer    *bytes.Buffer
	written   int64
}

// NewWriter creates a Writer. A blockSize <= 0 uses DefaultBlockSize.
func NewWriter(w io.Writer, t Type, blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Writer{
		w:         w,
		t:         t,
		blockSize: blockSize,
		buffer:    bytes.NewBuffer(make([]byte, 0, min(blockSize, 64*1024))),
	}
}

// Write buffers p, flushing full blocks as needed.
func (c *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := c.blockSize - c.buffer.Len()
		if space <= 0 {
			if err := c.flushBlock(); err != nil {
				return total, err
			}
			space = c.blockSize
		}

		n, _ := c.buffer.Write(p[:min(len(p), space)])
		total += n
		p = p[n:]
	}
	return total, nil
}

func (c *Writer) flushBlock() error {
	if c.buffer.Len() == 0 {
		return nil
	}
	block, err := encodeBlock(c.buffer.Bytes(), c.t)
	if err != nil {
		return err
	}
	n, err := c.w.Write(block)
	c.written += int64(n)
	if err != nil {
		return err
	}
	c.buffer.Reset()
	return nil
}

// Close flushes the buffered block. It does not close the underlying writer.
func (c *Writer) Close() error {
	return c.flushBlock()
}

// BytesWritten returns the total encoded bytes written.
func (c *Writer) BytesWritten() int64 {
	return c.written
}

// Reader decodes a block stream held in memory one block at a time.
type Reader struct {
	data   []byte
	offset int
	t      Type
}

// NewReader creates a Reader over data.
func NewReader(data []byte, t Type) *Reader {
	return &Reader{data: data, t: t}
}

// ReadBlock returns the next decoded block, or io.EOF after the last one.
func (c *Reader) ReadBlock() ([]byte, error) {
	if c.offset == len(c.data) {
		return nil, io.EOF
	}
	block, n, err := decodeBlock(c.data[c.offset:], c.t)
	if err != nil {
		return nil, err
	}
	c.offset += n
	return block, nil
}

// Compress encodes data as a block stream.
func Compress(data []byte, t Type) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown compression %s", t)
	}
	var buf bytes.Buffer
	w := NewWriter(&buf, t, DefaultBlockSize)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decodes a block stream produced by Compress or Writer.
func Decompress(data []byte, t Type) ([]byte, error) {
	r := NewReader(data, t)
	var out []byte
	for {
		block, err := r.ReadBlock()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
}

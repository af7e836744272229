package events

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/jbrewster7/coffea/compress"
	"github.com/jbrewster7/coffea/internal/conv"
)

// File layout:
//
//	magic "CFEV" | version u8 | compression u8 | block stream
//
// The decompressed payload is
//
//	dataset str | filename str | entryStart i64 | entryStop i64 | n u64 | ncols u32
//	ncols x (kind u8 | name str | data)
//
// where str is a u32 length followed by bytes, float data is n little-endian
// float64 and bool data is ceil(n/8) bytes with event i at bit i%8 of byte i/8.
const (
	magic   = "CFEV"
	version = 1
)

// ErrInvalidFormat is returned when decoding data that is not an event file.
var ErrInvalidFormat = errors.New("invalid event file")

// Encode writes t to w using compression c.
func Encode(w io.Writer, t *Table, c compress.Type) error {
	payload, err := appendStr(nil, t.Metadata.Dataset)
	if err != nil {
		return err
	}
	if payload, err = appendStr(payload, t.Metadata.Filename); err != nil {
		return err
	}
	payload = binary.LittleEndian.AppendUint64(payload, uint64(t.Metadata.EntryStart))
	payload = binary.LittleEndian.AppendUint64(payload, uint64(t.Metadata.EntryStop))
	payload = binary.LittleEndian.AppendUint64(payload, uint64(t.n))
	ncols, err := conv.IntToUint32(len(t.order))
	if err != nil {
		return fmt.Errorf("column count: %w", err)
	}
	payload = binary.LittleEndian.AppendUint32(payload, ncols)

	for _, name := range t.order {
		kind := t.kinds[name]
		payload = append(payload, byte(kind))
		if payload, err = appendStr(payload, name); err != nil {
			return err
		}
		switch kind {
		case KindFloat:
			for _, x := range t.floats[name] {
				payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(x))
			}
		case KindBool:
			packed := make([]byte, (t.n+7)/8)
			for i, v := range t.bools[name] {
				if v {
					packed[i/8] |= 1 << (i % 8)
				}
			}
			payload = append(payload, packed...)
		}
	}

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{version, byte(c)}); err != nil {
		return err
	}
	cw := compress.NewWriter(w, c, 0)
	if _, err := cw.Write(payload); err != nil {
		return err
	}
	return cw.Close()
}

// Marshal returns the encoding of t.
func Marshal(t *Table, c compress.Type) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses an event file.
func Decode(data []byte) (*Table, error) {
	if len(data) < len(magic)+2 || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	if v := data[len(magic)]; v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, v)
	}
	c := compress.Type(data[len(magic)+1])
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidFormat, uint8(c))
	}

	payload, err := compress.Decompress(data[len(magic)+2:], c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	r := &reader{buf: payload}
	var md Metadata
	md.Dataset = r.str()
	md.Filename = r.str()
	md.EntryStart = int64(r.u64())
	md.EntryStop = int64(r.u64())
	n := r.u64()
	ncols := r.u32()
	if r.err != nil {
		return nil, r.err
	}
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d events", ErrInvalidFormat, n)
	}

	t := NewTable(int(n), md)
	for range ncols {
		kind := Kind(r.u8())
		name := r.str()
		switch kind {
		case KindFloat:
			raw := r.bytes(int(n) * 8)
			if r.err != nil {
				return nil, r.err
			}
			col := make([]float64, n)
			for i := range col {
				col[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
			}
			err = t.AddFloat(name, col)
		case KindBool:
			raw := r.bytes((int(n) + 7) / 8)
			if r.err != nil {
				return nil, r.err
			}
			col := make([]bool, n)
			for i := range col {
				col[i] = raw[i/8]&(1<<(i%8)) != 0
			}
			err = t.AddBool(name, col)
		default:
			return nil, fmt.Errorf("%w: unknown column kind %d", ErrInvalidFormat, kind)
		}
		if r.err != nil {
			return nil, r.err
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
	}
	return t, nil
}

func appendStr(b []byte, s string) ([]byte, error) {
	n, err := conv.IntToUint32(len(s))
	if err != nil {
		return nil, fmt.Errorf("string length: %w", err)
	}
	b = binary.LittleEndian.AppendUint32(b, n)
	return append(b, s...), nil
}

// reader consumes a payload, recording the first error.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("%w: payload truncated", ErrInvalidFormat)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) str() string {
	n, err := conv.Uint32ToInt(r.u32())
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return string(r.bytes(n))
}

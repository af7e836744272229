package events

import (
	"bytes"
	"context"
	"testing"

	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable(5, Metadata{Dataset: "DY", Filename: "dy.cfev", EntryStart: 100, EntryStop: 105})
	require.NoError(t, tbl.AddFloat("pt", []float64{10, 20, 30, 40, 50}))
	require.NoError(t, tbl.AddBool("tight", []bool{true, false, true, true, false}))
	require.NoError(t, tbl.AddFloat("eta", []float64{0.1, -0.2, 1.5, -2.4, 2.0}))
	return tbl
}

func TestTable_Columns(t *testing.T) {
	tbl := newTable(t)
	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, []string{"pt", "tight", "eta"}, tbl.Columns())

	pt, err := tbl.Float("pt")
	require.NoError(t, err)
	assert.Equal(t, 30.0, pt[2])

	_, err = tbl.Float("tight")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = tbl.Bool("nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	kind, ok := tbl.Kind("tight")
	require.True(t, ok)
	assert.Equal(t, KindBool, kind)

	assert.ErrorIs(t, tbl.AddFloat("pt", make([]float64, 5)), coffea.ErrDuplicateName)
	assert.ErrorIs(t, tbl.AddBool("short", make([]bool, 4)), coffea.ErrLengthMismatch)
}

func TestTable_Slice(t *testing.T) {
	tbl := newTable(t)

	s, err := tbl.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, int64(101), s.Metadata.EntryStart)
	assert.Equal(t, int64(103), s.Metadata.EntryStop)
	pt, _ := s.Float("pt")
	assert.Equal(t, []float64{20, 30}, pt)

	_, err = tbl.Slice(3, 6)
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)
}

func TestTable_Filter(t *testing.T) {
	tbl := newTable(t)
	tight, _ := tbl.Bool("tight")

	f, err := tbl.Filter(tight)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
	eta, _ := f.Float("eta")
	assert.Equal(t, []float64{0.1, 1.5, -2.4}, eta)

	_, err = tbl.Filter([]bool{true})
	assert.ErrorIs(t, err, coffea.ErrLengthMismatch)

	assert.Equal(t, []int{2, 3}, Where([]int{1, 2, 3}, []bool{false, true, true}))
}

func TestFormat_RoundTrip(t *testing.T) {
	tbl := newTable(t)
	for _, c := range []compress.Type{compress.None, compress.LZ4, compress.ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := Marshal(tbl, c)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tbl.Metadata, got.Metadata)
			assert.Equal(t, tbl.Columns(), got.Columns())
			for _, name := range []string{"pt", "eta"} {
				want, _ := tbl.Float(name)
				have, _ := got.Float(name)
				assert.Equal(t, want, have, name)
			}
			wantB, _ := tbl.Bool("tight")
			haveB, _ := got.Bool("tight")
			assert.Equal(t, wantB, haveB)
		})
	}
}

func TestFormat_Empty(t *testing.T) {
	tbl := NewTable(0, Metadata{Dataset: "empty"})
	require.NoError(t, tbl.AddFloat("pt", nil))

	data, err := Marshal(tbl, compress.LZ4)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, []string{"pt"}, got.Columns())
}

func TestDecode_Invalid(t *testing.T) {
	data, err := Marshal(newTable(t), compress.None)
	require.NoError(t, err)

	tests := map[string][]byte{
		"short":       []byte("CF"),
		"magic":       append([]byte("XXXX"), data[4:]...),
		"version":     append([]byte("CFEV\x07"), data[5:]...),
		"compression": append([]byte("CFEV\x01\x09"), data[6:]...),
		"truncated":   data[:len(data)-3],
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(in)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}

	assert.True(t, bytes.HasPrefix(data, []byte("CFEV")))
}

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	tbl := newTable(t)
	tbl.Metadata.EntryStart = 0
	src.Add("dy.cfev", tbl)

	n, err := src.Entries(ctx, "dy.cfev")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	chunk, err := src.Read(ctx, "dy.cfev", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, chunk.Len())
	assert.Equal(t, int64(2), chunk.Metadata.EntryStart)
	assert.Equal(t, "dy.cfev", chunk.Metadata.Filename)

	_, err = src.Entries(ctx, "missing")
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Read(cancelled, "dy.cfev", 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

package hist

import (
	"fmt"
	"math"
	"testing"

	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/accumulator"
	"github.com/jbrewster7/coffea/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegular_Index(t *testing.T) {
	ax, err := NewRegular("x", "", 4, 0, 2)
	require.NoError(t, err)

	tests := []struct {
		x    float64
		want int
	}{
		{-0.1, 0},
		{0, 1},
		{0.49, 1},
		{0.5, 2},
		{1.99, 4},
		{2, 5},
		{math.Inf(1), 5},
		{math.Inf(-1), 0},
		{math.NaN(), 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ax.Index(tt.x), "x=%v", tt.x)
	}
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, ax.Edges())

	_, err = NewRegular("bad", "", 0, 0, 1)
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)
	_, err = NewRegular("bad", "", 3, 1, 1)
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)
}

func TestVariable_Index(t *testing.T) {
	ax, err := NewVariable("pt", "", []float64{20, 30, 50, 100})
	require.NoError(t, err)
	assert.Equal(t, 3, ax.NBins())

	assert.Equal(t, 0, ax.Index(10))
	assert.Equal(t, 1, ax.Index(20))
	assert.Equal(t, 2, ax.Index(49.9))
	assert.Equal(t, 3, ax.Index(50))
	assert.Equal(t, 4, ax.Index(100))
	assert.Equal(t, 4, ax.Index(math.NaN()))

	_, err = NewVariable("bad", "", []float64{1, 1})
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)
	_, err = NewVariable("bad", "", []float64{1})
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)
}

func newMassHist(t *testing.T) *Hist {
	t.Helper()
	mass, err := NewRegular("mass", "m [GeV]", 3, 0, 3)
	require.NoError(t, err)
	h, err := New("Events", NewStrCategory("dataset", "Dataset"), mass)
	require.NoError(t, err)
	return h
}

func TestHist_Fill(t *testing.T) {
	h := newMassHist(t)
	dy := map[string]string{"dataset": "DY"}

	require.NoError(t, h.Fill(dy, map[string][]float64{"mass": {0.5, 1.5, 1.7, 5, -1}}, []float64{1, 2, 3, 4, 5}))

	vals, err := h.Values(dy, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5, 0}, vals)

	flow, err := h.Values(dy, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 1, 5, 0, 4}, flow)

	vars, err := h.Variances(dy, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 13, 0}, vars)

	assert.Equal(t, 6.0, h.Sum(false))
	assert.Equal(t, 15.0, h.Sum(true))

	// Unit weights.
	require.NoError(t, h.Fill(map[string]string{"dataset": "TT"}, map[string][]float64{"mass": {2.5, 2.5}}, nil))
	tt, err := h.Values(map[string]string{"dataset": "TT"}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2}, tt)

	assert.Equal(t, []string{"DY", "TT"}, h.Categories("dataset"))
	assert.Nil(t, h.Categories("nope"))

	unfilled, err := h.Values(map[string]string{"dataset": "WW"}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, unfilled)
}

func TestHist_Fill2D(t *testing.T) {
	x, err := NewRegular("x", "", 2, 0, 2)
	require.NoError(t, err)
	y, err := NewVariable("y", "", []float64{0, 1, 10})
	require.NoError(t, err)
	h, err := New("", x, y)
	require.NoError(t, err)

	require.NoError(t, h.Fill(nil, map[string][]float64{
		"x": {0.5, 1.5, 1.5},
		"y": {0.5, 5, 5},
	}, nil))

	vals, err := h.Values(nil, false)
	require.NoError(t, err)
	// Row-major over (x, y).
	assert.Equal(t, []float64{1, 0, 0, 2}, vals)
}

func TestHist_FillErrors(t *testing.T) {
	h := newMassHist(t)
	dy := map[string]string{"dataset": "DY"}

	err := h.Fill(nil, map[string][]float64{"mass": {1}}, nil)
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)

	err = h.Fill(dy, map[string][]float64{}, nil)
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)

	err = h.Fill(dy, map[string][]float64{"mass": {1}, "pt": {1}}, nil)
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)

	err = h.Fill(dy, map[string][]float64{"mass": {1, 2}}, []float64{1})
	assert.ErrorIs(t, err, coffea.ErrLengthMismatch)

	_, err = New("", NewStrCategory("a", ""), NewStrCategory("a", ""))
	assert.ErrorIs(t, err, coffea.ErrDuplicateName)
}

func TestHist_Add(t *testing.T) {
	a := newMassHist(t)
	require.NoError(t, a.Fill(map[string]string{"dataset": "DY"}, map[string][]float64{"mass": {0.5}}, []float64{2}))
	b := newMassHist(t)
	require.NoError(t, b.Fill(map[string]string{"dataset": "DY"}, map[string][]float64{"mass": {0.5, 2.5}}, []float64{3, 1}))
	require.NoError(t, b.Fill(map[string]string{"dataset": "TT"}, map[string][]float64{"mass": {1.5}}, nil))

	out, err := accumulator.Combine(a, b)
	require.NoError(t, err)
	sum := out.(*Hist)

	dy, err := sum.Values(map[string]string{"dataset": "DY"}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0, 1}, dy)
	dyVar, err := sum.Variances(map[string]string{"dataset": "DY"}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{13, 0, 1}, dyVar)
	assert.Equal(t, []string{"DY", "TT"}, sum.Categories("dataset"))

	// Operands are untouched.
	orig, err := a.Values(map[string]string{"dataset": "DY"}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0, 0}, orig)
	assert.Equal(t, []string{"DY"}, a.Categories("dataset"))
}

func TestHist_AddIncompatible(t *testing.T) {
	a := newMassHist(t)
	other, err := NewRegular("mass", "", 4, 0, 3)
	require.NoError(t, err)
	b, err := New("Events", NewStrCategory("dataset", ""), other)
	require.NoError(t, err)

	_, err = a.Add(b)
	assert.ErrorIs(t, err, coffea.ErrIncompatibleTypes)

	_, err = a.Add(accumulator.Int(1))
	assert.ErrorIs(t, err, coffea.ErrIncompatibleTypes)
}

func TestHist_PersistRoundTrip(t *testing.T) {
	h := newMassHist(t)
	require.NoError(t, h.Fill(map[string]string{"dataset": "DY"}, map[string][]float64{"mass": {0.5, 1.5, 9}}, []float64{0.5, 1, 2}))
	require.NoError(t, h.Fill(map[string]string{"dataset": "TT"}, map[string][]float64{"mass": {2.5}}, nil))

	tree := accumulator.NewMap().Set("mass", h)
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := accumulator.Marshal(c, tree)
			require.NoError(t, err)
			out, err := accumulator.Unmarshal(c, data)
			require.NoError(t, err)

			v, ok := out.(*accumulator.Map).Get("mass")
			require.True(t, ok)
			got := v.(*Hist)
			require.NoError(t, got.Compatible(h))
			assert.Equal(t, h.Categories("dataset"), got.Categories("dataset"))
			for _, ds := range []string{"DY", "TT"} {
				want, _ := h.Values(map[string]string{"dataset": ds}, true)
				have, _ := got.Values(map[string]string{"dataset": ds}, true)
				assert.Equal(t, want, have, ds)
			}
		})
	}
}

func TestHist_LabelsWithSeparators(t *testing.T) {
	h, err := New("Events", NewStrCategory("a", ""), NewStrCategory("b", ""))
	require.NoError(t, err)
	require.NoError(t, h.Fill(map[string]string{"a": "x\x1fy", "b": "z"}, nil, nil))
	require.NoError(t, h.Fill(map[string]string{"a": "x", "b": "y\x1fz"}, nil, nil))

	v, err := h.Values(map[string]string{"a": "x", "b": "y\x1fz"}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)
	assert.Equal(t, []string{"x", "x\x1fy"}, h.Categories("a"))
	assert.Equal(t, []string{"y\x1fz", "z"}, h.Categories("b"))
	assert.InDelta(t, 2, h.Sum(false), 1e-12)

	data, err := Encode(codec.GoJSON{}, h)
	require.NoError(t, err)
	got, err := Decode(codec.GoJSON{}, data)
	require.NoError(t, err)
	v, err = got.Values(map[string]string{"a": "x\x1fy", "b": "z"}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)
}

// recordingCodec remembers the dynamic type of every value it marshals.
type recordingCodec struct {
	codec.GoJSON
	types []string
}

func (r *recordingCodec) Marshal(v any) ([]byte, error) {
	r.types = append(r.types, fmt.Sprintf("%T", v))
	return r.GoJSON.Marshal(v)
}

func TestHist_EncodesThroughCodec(t *testing.T) {
	h := newMassHist(t)
	require.NoError(t, h.Fill(map[string]string{"dataset": "DY"}, map[string][]float64{"mass": {1.5}}, nil))

	rec := &recordingCodec{}
	data, err := accumulator.Marshal(rec, accumulator.NewMap().Set("mass", h))
	require.NoError(t, err)
	assert.Contains(t, rec.types, "hist.histJSON")
	assert.NotContains(t, rec.types, "*hist.Hist")

	out, err := accumulator.Unmarshal(rec, data)
	require.NoError(t, err)
	v, _ := out.(*accumulator.Map).Get("mass")
	vals, err := v.(*Hist).Values(map[string]string{"dataset": "DY"}, false)
	require.NoError(t, err)
	want, _ := h.Values(map[string]string{"dataset": "DY"}, false)
	assert.Equal(t, want, vals)
}

func TestDecode_DuplicateBlock(t *testing.T) {
	_, err := Decode(codec.JSON{}, []byte(`{"label":"n","axes":[{"kind":"category","name":"c"}],
		"blocks":[{"categories":["a"],"sumw":[1],"sumw2":[1]},{"categories":["a"],"sumw":[1],"sumw2":[1]}]}`))
	assert.Error(t, err)
}

package weights

import (
	"fmt"
	"math"

	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/accumulator"
	"github.com/jbrewster7/coffea/codec"
)

func init() {
	accumulator.RegisterCodec("weight_statistics", accumulator.LeafCodec[Statistics]{
		Encode: encodeStatistics,
		Decode: decodeStatistics,
	})
}

// Statistics summarises every event weight ever added under one name.
//
// Two Statistics combine by adding sums and counts and taking the extremes
// of MinW and MaxW, so they can be merged across chunks like any other
// accumulator leaf.
type Statistics struct {
	SumW  float64
	SumW2 float64
	MinW  float64
	MaxW  float64
	N     int64
}

// statisticsJSON is the persisted form. MinW/MaxW are null when no events
// were seen, since JSON cannot represent the infinite identity values.
type statisticsJSON struct {
	SumW  float64  `json:"sumw"`
	SumW2 float64  `json:"sumw2"`
	MinW  *float64 `json:"minw"`
	MaxW  *float64 `json:"maxw"`
	N     int64    `json:"n"`
}

// NewStatistics computes the statistics of w. An empty w yields the
// identity element (MinW=+Inf, MaxW=-Inf).
func NewStatistics(w []float64) Statistics {
	s := Statistics{MinW: math.Inf(1), MaxW: math.Inf(-1)}
	for _, x := range w {
		s.SumW += x
		s.SumW2 += x * x
		s.MinW = math.Min(s.MinW, x)
		s.MaxW = math.Max(s.MaxW, x)
	}
	s.N = int64(len(w))
	return s
}

// Merge returns the combination of s and other.
func (s Statistics) Merge(other Statistics) Statistics {
	return Statistics{
		SumW:  s.SumW + other.SumW,
		SumW2: s.SumW2 + other.SumW2,
		MinW:  math.Min(s.MinW, other.MinW),
		MaxW:  math.Max(s.MaxW, other.MaxW),
		N:     s.N + other.N,
	}
}

// Shape implements accumulator.Accumulatable.
func (Statistics) Shape() accumulator.Shape { return accumulator.ShapeAdditive }

// Add implements accumulator.Additive.
func (s Statistics) Add(other accumulator.Accumulatable) (accumulator.Accumulatable, error) {
	o, ok := other.(Statistics)
	if !ok {
		return nil, coffea.NewIncompatibleTypesError(s, other, nil)
	}
	return s.Merge(o), nil
}

// Mean returns SumW/N, or 0 when no events were seen.
func (s Statistics) Mean() float64 {
	if s.N == 0 {
		return 0
	}
	return s.SumW / float64(s.N)
}

// Variance returns the population variance of the weights.
func (s Statistics) Variance() float64 {
	if s.N == 0 {
		return 0
	}
	mean := s.Mean()
	return math.Max(s.SumW2/float64(s.N)-mean*mean, 0)
}

func encodeStatistics(c codec.Codec, s Statistics) ([]byte, error) {
	out := statisticsJSON{SumW: s.SumW, SumW2: s.SumW2, N: s.N}
	if s.N > 0 {
		out.MinW, out.MaxW = &s.MinW, &s.MaxW
	}
	return c.Marshal(out)
}

func decodeStatistics(c codec.Codec, data []byte) (Statistics, error) {
	var in statisticsJSON
	if err := c.Unmarshal(data, &in); err != nil {
		return Statistics{}, err
	}
	s := Statistics{SumW: in.SumW, SumW2: in.SumW2, MinW: math.Inf(1), MaxW: math.Inf(-1), N: in.N}
	if in.MinW != nil {
		s.MinW = *in.MinW
	}
	if in.MaxW != nil {
		s.MaxW = *in.MaxW
	}
	return s, nil
}

func (s Statistics) String() string {
	return fmt.Sprintf("sumw: %g, sumw2: %g, min/max: %g/%g, n: %d", s.SumW, s.SumW2, s.MinW, s.MaxW, s.N)
}

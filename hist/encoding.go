package hist

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jbrewster7/coffea/accumulator"
	"github.com/jbrewster7/coffea/codec"
)

func init() {
	accumulator.RegisterCodec("hist", accumulator.LeafCodec[*Hist]{Encode: Encode, Decode: Decode})
}

const (
	kindRegular  = "regular"
	kindVariable = "variable"
	kindCategory = "category"
)

type axisJSON struct {
	Kind  string    `json:"kind"`
	Name  string    `json:"name"`
	Label string    `json:"label,omitempty"`
	Bins  int       `json:"bins,omitempty"`
	Lo    float64   `json:"lo,omitempty"`
	Hi    float64   `json:"hi,omitempty"`
	Edges []float64 `json:"edges,omitempty"`
}

type blockJSON struct {
	Categories []string  `json:"categories,omitempty"`
	SumW       []float64 `json:"sumw"`
	SumW2      []float64 `json:"sumw2"`
}

type histJSON struct {
	Label  string      `json:"label"`
	Axes   []axisJSON  `json:"axes"`
	Blocks []blockJSON `json:"blocks"`
}

// Encode serializes h with c, or codec.Default when c is nil.
func Encode(c codec.Codec, h *Hist) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	out, err := h.wire()
	if err != nil {
		return nil, err
	}
	return c.Marshal(out)
}

// Decode reverses Encode.
func Decode(c codec.Codec, data []byte) (*Hist, error) {
	if c == nil {
		c = codec.Default
	}
	var in histJSON
	if err := c.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	return fromWire(in)
}

func (h *Hist) wire() (histJSON, error) {
	out := histJSON{Label: h.label}
	for _, ax := range h.Axes() {
		aj := axisJSON{Name: ax.Name(), Label: ax.Label()}
		switch a := ax.(type) {
		case *StrCategory:
			aj.Kind = kindCategory
		case *Regular:
			aj.Kind, aj.Bins, aj.Lo, aj.Hi = kindRegular, a.bins, a.lo, a.hi
		case *Variable:
			aj.Kind, aj.Edges = kindVariable, a.edges
		default:
			return histJSON{}, fmt.Errorf("hist: cannot encode axis type %T", ax)
		}
		out.Axes = append(out.Axes, aj)
	}

	for _, k := range slices.Sorted(maps.Keys(h.blocks)) {
		b := h.blocks[k]
		out.Blocks = append(out.Blocks, blockJSON{Categories: b.labels, SumW: b.sumw, SumW2: b.sumw2})
	}
	return out, nil
}

func fromWire(in histJSON) (*Hist, error) {
	axes := make([]Axis, 0, len(in.Axes))
	for _, aj := range in.Axes {
		var (
			ax  Axis
			err error
		)
		switch aj.Kind {
		case kindCategory:
			ax = NewStrCategory(aj.Name, aj.Label)
		case kindRegular:
			ax, err = NewRegular(aj.Name, aj.Label, aj.Bins, aj.Lo, aj.Hi)
		case kindVariable:
			ax, err = NewVariable(aj.Name, aj.Label, aj.Edges)
		default:
			err = fmt.Errorf("hist: unknown axis kind %q", aj.Kind)
		}
		if err != nil {
			return nil, err
		}
		axes = append(axes, ax)
	}

	decoded, err := New(in.Label, axes...)
	if err != nil {
		return nil, err
	}
	for _, bj := range in.Blocks {
		if len(bj.SumW) != decoded.size || len(bj.SumW2) != decoded.size {
			return nil, fmt.Errorf("hist: block has %d bins, want %d", len(bj.SumW), decoded.size)
		}
		if len(bj.Categories) != len(decoded.cats) {
			return nil, fmt.Errorf("hist: block has %d category labels, want %d", len(bj.Categories), len(decoded.cats))
		}
		key := blockKey(bj.Categories)
		if _, dup := decoded.blocks[key]; dup {
			return nil, fmt.Errorf("hist: duplicate block %q", bj.Categories)
		}
		decoded.blocks[key] = &block{labels: bj.Categories, sumw: bj.SumW, sumw2: bj.SumW2}
	}
	return decoded, nil
}

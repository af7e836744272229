package accumulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/jbrewster7/coffea/codec"
)

// ErrCorrupt is returned by Unmarshal when the encoded tree is malformed.
var ErrCorrupt = errors.New("corrupt accumulator tree")

// LeafCodec converts a leaf type to and from bytes with the codec chosen by
// the caller of Marshal and Unmarshal. Leaves with unexported state encode a
// wire struct through c so the codec does the work.
type LeafCodec[T Additive] struct {
	Encode func(c codec.Codec, v T) ([]byte, error)
	Decode func(c codec.Codec, data []byte) (T, error)
}

// leafCodec is the type-erased form of a LeafCodec.
type leafCodec struct {
	name   string
	encode func(c codec.Codec, v Accumulatable) ([]byte, error)
	decode func(c codec.Codec, data []byte) (Accumulatable, error)
}

var (
	leafMu     sync.RWMutex
	leafByName = map[string]leafCodec{}
	leafByType = map[reflect.Type]string{}
)

// Register makes the additive leaf type T persistable under name. T is
// passed to the codec as is, so it must round-trip through it.
//
// Leaf implementations should typically call this from an init() function.
func Register[T Additive](name string) {
	RegisterCodec(name, LeafCodec[T]{
		Encode: func(c codec.Codec, v T) ([]byte, error) { return c.Marshal(v) },
		Decode: func(c codec.Codec, data []byte) (T, error) {
			var v T
			err := c.Unmarshal(data, &v)
			return v, err
		},
	})
}

// RegisterCodec makes T persistable under name with explicit conversions.
func RegisterCodec[T Additive](name string, lc LeafCodec[T]) {
	leafMu.Lock()
	defer leafMu.Unlock()
	leafByName[name] = leafCodec{
		name: name,
		encode: func(c codec.Codec, v Accumulatable) ([]byte, error) {
			return lc.Encode(c, v.(T))
		},
		decode: func(c codec.Codec, data []byte) (Accumulatable, error) {
			v, err := lc.Decode(c, data)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}
	leafByType[reflect.TypeFor[T]()] = name
}

func init() {
	Register[Int]("int")
	Register[Float]("float")
	Register[Floats]("floats")
}

// node is the persisted form of an accumulator tree.
type node struct {
	Type   string          `json:"type"`
	Keys   []string        `json:"keys,omitempty"`
	Values []*node         `json:"values,omitempty"`
	Items  []string        `json:"items,omitempty"`
	Leaf   json.RawMessage `json:"leaf,omitempty"`
}

const (
	nodeMap = "map"
	nodeSet = "set"
)

// Marshal encodes an accumulator tree with c. Every leaf type must have been
// registered with Register.
func Marshal(c codec.Codec, v Accumulatable) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	n, err := toNode(c, v)
	if err != nil {
		return nil, err
	}
	return c.Marshal(n)
}

// Unmarshal decodes a tree produced by Marshal with the same codec.
func Unmarshal(c codec.Codec, data []byte) (Accumulatable, error) {
	if c == nil {
		c = codec.Default
	}
	var n node
	if err := c.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	v, err := fromNode(c, &n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return v, nil
}

func toNode(c codec.Codec, v Accumulatable) (*node, error) {
	switch t := v.(type) {
	case *Map:
		n := &node{Type: nodeMap, Keys: t.Keys(), Values: make([]*node, 0, t.Len())}
		for _, k := range t.keys {
			child, err := toNode(c, t.values[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			n.Values = append(n.Values, child)
		}
		return n, nil
	case *Set:
		return &node{Type: nodeSet, Items: t.Items()}, nil
	}

	leafMu.RLock()
	name, ok := leafByType[reflect.TypeOf(v)]
	lc := leafByName[name]
	leafMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unregistered accumulator type %T", v)
	}
	data, err := lc.encode(c, v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return &node{Type: name, Leaf: data}, nil
}

func fromNode(c codec.Codec, n *node) (Accumulatable, error) {
	if n == nil {
		return nil, errors.New("null node")
	}
	switch n.Type {
	case nodeMap:
		if len(n.Keys) != len(n.Values) {
			return nil, fmt.Errorf("map node has %d keys, %d values", len(n.Keys), len(n.Values))
		}
		m := NewMap()
		for i, k := range n.Keys {
			v, err := fromNode(c, n.Values[i])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, v)
		}
		return m, nil
	case nodeSet:
		return NewSet(n.Items...), nil
	}

	leafMu.RLock()
	lc, ok := leafByName[n.Type]
	leafMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown accumulator type %q", n.Type)
	}
	v, err := lc.decode(c, n.Leaf)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", n.Type, err)
	}
	return v, nil
}

package accumulator

import (
	"iter"
	"slices"
)

// Map is an insertion-ordered mapping from string keys to accumulator values.
//
// The zero value is an empty Map ready to use. Map is not safe for concurrent
// mutation. Combine never modifies a Map;
// values are shared, not copied, between operands and the result, so leaves
// placed in a Map must not be mutated afterwards.
type Map struct {
	keys   []string
	values map[string]Accumulatable
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]Accumulatable)}
}

// Shape implements Accumulatable.
func (m *Map) Shape() Shape { return ShapeMap }

// Set stores v under key, keeping the key's original position if it exists.
// It returns m to allow chaining.
func (m *Map) Set(key string, v Accumulatable) *Map {
	if m.values == nil {
		m.values = make(map[string]Accumulatable)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Accumulatable, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Child returns the nested Map stored under key, creating it if absent.
// It returns nil if key holds a value of another shape.
func (m *Map) Child(key string) *Map {
	if v, ok := m.values[key]; ok {
		child, _ := v.(*Map)
		return child
	}
	child := NewMap()
	m.Set(key, child)
	return child
}

// Len returns the number of keys.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string { return slices.Clone(m.keys) }

// All iterates over key/value pairs in insertion order.
func (m *Map) All() iter.Seq2[string, Accumulatable] {
	return func(yield func(string, Accumulatable) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

func (m *Map) merge(other *Map, path string) (*Map, error) {
	out := &Map{
		keys:   make([]string, 0, len(m.keys)+len(other.keys)),
		values: make(map[string]Accumulatable, len(m.keys)+len(other.keys)),
	}
	for _, k := range m.keys {
		a := m.values[k]
		b, ok := other.values[k]
		if !ok {
			out.Set(k, a)
			continue
		}
		v, err := combine(a, b, joinPath(path, k))
		if err != nil {
			return nil, err
		}
		out.Set(k, v)
	}
	for _, k := range other.keys {
		if _, ok := m.values[k]; !ok {
			out.Set(k, other.values[k])
		}
	}
	return out, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "/" + key
}

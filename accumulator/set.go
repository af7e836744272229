package accumulator

import (
	"maps"
	"slices"
)

// Set is a set of strings whose combine is union. The zero value is an empty
// Set ready to use.
type Set struct {
	items map[string]struct{}
}

// NewSet creates a Set holding items.
func NewSet(items ...string) *Set {
	s := &Set{items: make(map[string]struct{}, len(items))}
	for _, it := range items {
		s.items[it] = struct{}{}
	}
	return s
}

// Shape implements Accumulatable.
func (s *Set) Shape() Shape { return ShapeSet }

// Insert adds item to the set.
func (s *Set) Insert(item string) {
	if s.items == nil {
		s.items = make(map[string]struct{})
	}
	s.items[item] = struct{}{}
}

// Contains reports whether item is in the set.
func (s *Set) Contains(item string) bool {
	_, ok := s.items[item]
	return ok
}

// Len returns the number of items.
func (s *Set) Len() int { return len(s.items) }

// Items returns the items in sorted order.
func (s *Set) Items() []string {
	return slices.Sorted(maps.Keys(s.items))
}

// Union returns a new Set holding the items of s and other.
func (s *Set) Union(other *Set) *Set {
	out := &Set{items: make(map[string]struct{}, len(s.items)+len(other.items))}
	maps.Copy(out.items, s.items)
	maps.Copy(out.items, other.items)
	return out
}

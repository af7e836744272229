package selection

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/jbrewster7/coffea/internal/bitmap"
)

// Condition requires column Column to equal Value.
type Condition struct {
	Column int
	Value  bool
}

// Storage holds the boolean selection columns of one Set.
//
// Columns are appended in order and addressed by index. Callers guarantee
// that masks and destinations have length Len(), that column indices are in
// range, and that conditions name distinct columns.
type Storage interface {
	// Len returns the number of events.
	Len() int

	// Columns returns the number of appended columns.
	Columns() int

	// Append stores mask as the next column.
	Append(mask []bool)

	// Require writes into dst whether each event satisfies every condition.
	// No conditions selects every event.
	Require(conds []Condition, dst []bool)

	// Any writes into dst whether each event passes at least one of cols.
	// No columns selects no event.
	Any(cols []int, dst []bool)
}

// StorageFactory creates an empty Storage for n events.
type StorageFactory func(n int) Storage

// Predefined storage strategies for WithStorage.
var (
	Packed  StorageFactory = func(n int) Storage { return NewPackedStorage(n) }
	Bitmap  StorageFactory = func(n int) Storage { return NewBitmapStorage(n) }
	Roaring StorageFactory = func(n int) Storage { return NewRoaringStorage(n) }
	Bools   StorageFactory = func(n int) Storage { return NewBoolStorage(n) }
)

// PackedStorage is event-major: each event holds one uint64 word per group
// of 64 columns. A query compiles to one (mask, value) pair per group, so an
// event is tested with a single compare for every 64 selections.
type PackedStorage struct {
	n      int
	cols   int
	groups [][]uint64
}

// NewPackedStorage creates an empty PackedStorage for n events.
func NewPackedStorage(n int) *PackedStorage {
	return &PackedStorage{n: n}
}

func (s *PackedStorage) Len() int     { return s.n }
func (s *PackedStorage) Columns() int { return s.cols }

func (s *PackedStorage) Append(mask []bool) {
	g, bit := s.cols/64, uint64(1)<<(s.cols%64)
	if g == len(s.groups) {
		s.groups = append(s.groups, make([]uint64, s.n))
	}
	words := s.groups[g]
	for i, v := range mask {
		if v {
			words[i] |= bit
		}
	}
	s.cols++
}

// compiled is one group's share of a query.
type compiled struct {
	words []uint64
	mask  uint64
	value uint64
}

func (s *PackedStorage) compile(conds []Condition) []compiled {
	var out []compiled
	byGroup := make(map[int]int)
	for _, c := range conds {
		g, bit := c.Column/64, uint64(1)<<(c.Column%64)
		idx, ok := byGroup[g]
		if !ok {
			idx = len(out)
			byGroup[g] = idx
			out = append(out, compiled{words: s.groups[g]})
		}
		out[idx].mask |= bit
		if c.Value {
			out[idx].value |= bit
		}
	}
	return out
}

func (s *PackedStorage) Require(conds []Condition, dst []bool) {
	q := s.compile(conds)
	for i := range dst {
		ok := true
		for _, c := range q {
			if c.words[i]&c.mask != c.value {
				ok = false
				break
			}
		}
		dst[i] = ok
	}
}

func (s *PackedStorage) Any(cols []int, dst []bool) {
	conds := make([]Condition, len(cols))
	for i, c := range cols {
		conds[i] = Condition{Column: c}
	}
	q := s.compile(conds)
	for i := range dst {
		hit := false
		for _, c := range q {
			if c.words[i]&c.mask != 0 {
				hit = true
				break
			}
		}
		dst[i] = hit
	}
}

// BitmapStorage is selection-major: each column is a block bitmap with
// active-block tracking, so sparse masks skip empty blocks during queries.
type BitmapStorage struct {
	n    int
	cols []*bitmap.Bitmap
	pool *bitmap.Pool
}

// NewBitmapStorage creates an empty BitmapStorage for n events.
func NewBitmapStorage(n int) *BitmapStorage {
	return &BitmapStorage{n: n, pool: bitmap.NewPool(uint32(n))}
}

func (s *BitmapStorage) Len() int     { return s.n }
func (s *BitmapStorage) Columns() int { return len(s.cols) }

func (s *BitmapStorage) Append(mask []bool) {
	s.cols = append(s.cols, bitmap.FromBools(mask))
}

func (s *BitmapStorage) Require(conds []Condition, dst []bool) {
	acc := s.pool.Get()
	defer s.pool.Put(acc)

	acc.AddRange(0, uint32(s.n))
	for _, c := range conds {
		if c.Value {
			acc.And(s.cols[c.Column])
		} else {
			acc.AndNot(s.cols[c.Column])
		}
		if acc.IsEmpty() {
			break
		}
	}
	acc.FillBools(dst)
}

func (s *BitmapStorage) Any(cols []int, dst []bool) {
	acc := s.pool.Get()
	defer s.pool.Put(acc)

	for _, c := range cols {
		acc.Or(s.cols[c])
	}
	acc.FillBools(dst)
}

// RoaringStorage keeps each column as a roaring bitmap, which is compact
// for very sparse or run-heavy masks.
type RoaringStorage struct {
	n    int
	cols []*roaring.Bitmap
}

// NewRoaringStorage creates an empty RoaringStorage for n events.
func NewRoaringStorage(n int) *RoaringStorage {
	return &RoaringStorage{n: n}
}

func (s *RoaringStorage) Len() int     { return s.n }
func (s *RoaringStorage) Columns() int { return len(s.cols) }

func (s *RoaringStorage) Append(mask []bool) {
	rb := roaring.New()
	for i, v := range mask {
		if v {
			rb.Add(uint32(i))
		}
	}
	rb.RunOptimize()
	s.cols = append(s.cols, rb)
}

func (s *RoaringStorage) Require(conds []Condition, dst []bool) {
	acc := roaring.New()
	acc.AddRange(0, uint64(s.n))
	for _, c := range conds {
		if c.Value {
			acc.And(s.cols[c.Column])
		} else {
			acc.AndNot(s.cols[c.Column])
		}
		if acc.IsEmpty() {
			break
		}
	}
	fillFromRoaring(acc, dst)
}

func (s *RoaringStorage) Any(cols []int, dst []bool) {
	bms := make([]*roaring.Bitmap, len(cols))
	for i, c := range cols {
		bms[i] = s.cols[c]
	}
	fillFromRoaring(roaring.FastOr(bms...), dst)
}

func fillFromRoaring(rb *roaring.Bitmap, dst []bool) {
	clear(dst)
	it := rb.Iterator()
	for it.HasNext() {
		dst[it.Next()] = true
	}
}

// BoolStorage stores plain []bool columns.
type BoolStorage struct {
	n    int
	cols [][]bool
}

// NewBoolStorage creates an empty BoolStorage for n events.
func NewBoolStorage(n int) *BoolStorage {
	return &BoolStorage{n: n}
}

func (s *BoolStorage) Len() int     { return s.n }
func (s *BoolStorage) Columns() int { return len(s.cols) }

func (s *BoolStorage) Append(mask []bool) {
	col := make([]bool, len(mask))
	copy(col, mask)
	s.cols = append(s.cols, col)
}

func (s *BoolStorage) Require(conds []Condition, dst []bool) {
	for i := range dst {
		ok := true
		for _, c := range conds {
			if s.cols[c.Column][i] != c.Value {
				ok = false
				break
			}
		}
		dst[i] = ok
	}
}

func (s *BoolStorage) Any(cols []int, dst []bool) {
	for i := range dst {
		hit := false
		for _, c := range cols {
			if s.cols[c][i] {
				hit = true
				break
			}
		}
		dst[i] = hit
	}
}

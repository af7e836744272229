package bitmap

import (
	"math/bits"
	"sync"
)

// BlockSize is the number of uint64 words per block (512 bits = 64 bytes).
const BlockSize = 8

// WordBits is the number of bits per word.
const WordBits = 64

// BlockBits is the number of bits per block.
const BlockBits = BlockSize * WordBits

// BlocksPerMaskWord is the number of blocks tracked per active mask word.
const BlocksPerMaskWord = 64

// Bitmap is a fixed-universe packed bitmap with active-block tracking.
//
// Bit i corresponds to event i. The universe is fixed at construction; Add
// and AddRange ignore positions outside it.
type Bitmap struct {
	// words is the backing storage, organised as blocks of BlockSize words.
	words []uint64

	// activeBlocks has bit b set when block b has at least one bit set.
	activeBlocks []uint64

	universe uint32

	// cardinality is cached; -1 means it needs recalculation.
	cardinality int

	pooled bool
}

// New creates an empty Bitmap over the events [0, universe).
func New(universe uint32) *Bitmap {
	numWords := (universe + WordBits - 1) / WordBits
	numWords = ((numWords + BlockSize - 1) / BlockSize) * BlockSize
	numBlocks := int(numWords / BlockSize)
	numMaskWords := (numBlocks + BlocksPerMaskWord - 1) / BlocksPerMaskWord

	return &Bitmap{
		words:        make([]uint64, numWords),
		activeBlocks: make([]uint64, numMaskWords),
		universe:     universe,
	}
}

// FromBools builds a Bitmap with bit i set where mask[i] is true.
func FromBools(mask []bool) *Bitmap {
	b := New(uint32(len(mask)))
	for i, v := range mask {
		if v {
			b.words[i/WordBits] |= uint64(1) << (uint(i) % WordBits)
		}
	}
	b.rebuildActive()
	b.cardinality = -1
	return b
}

func (b *Bitmap) rebuildActive() {
	for m := range b.activeBlocks {
		b.activeBlocks[m] = 0
	}
	for blk := 0; blk*BlockSize < len(b.words); blk++ {
		start := blk * BlockSize
		if !isZero(b.words[start : start+BlockSize]) {
			b.setBlockActive(blk)
		}
	}
}

func (b *Bitmap) setBlockActive(blockIdx int) {
	b.activeBlocks[blockIdx/BlocksPerMaskWord] |= uint64(1) << (blockIdx % BlocksPerMaskWord)
}

func (b *Bitmap) clearBlockActive(blockIdx int) {
	b.activeBlocks[blockIdx/BlocksPerMaskWord] &^= uint64(1) << (blockIdx % BlocksPerMaskWord)
}

func (b *Bitmap) clearBlock(blockIdx int) {
	start := blockIdx * BlockSize
	for i := start; i < start+BlockSize; i++ {
		b.words[i] = 0
	}
}

// Universe returns the number of addressable events.
func (b *Bitmap) Universe() uint32 {
	return b.universe
}

// Clear resets the bitmap to empty, touching only active blocks.
func (b *Bitmap) Clear() {
	for maskIdx, mask := range b.activeBlocks {
		for mask != 0 {
			bit := bits.TrailingZeros64(mask)
			b.clearBlock(maskIdx*BlocksPerMaskWord + bit)
			mask &= mask - 1
		}
		b.activeBlocks[maskIdx] = 0
	}
	b.cardinality = 0
}

// Add sets a single bit. Returns true if the bit was newly set.
func (b *Bitmap) Add(id uint32) bool {
	if id >= b.universe {
		return false
	}
	wordIdx := id / WordBits
	mask := uint64(1) << (id % WordBits)
	if b.words[wordIdx]&mask != 0 {
		return false
	}
	b.words[wordIdx] |= mask
	b.setBlockActive(int(wordIdx / BlockSize))
	if b.cardinality >= 0 {
		b.cardinality++
	}
	return true
}

// AddRange sets all bits in [start, end).
func (b *Bitmap) AddRange(start, end uint32) {
	if end > b.universe {
		end = b.universe
	}
	if start >= end {
		return
	}

	startWord := start / WordBits
	endWord := (end - 1) / WordBits
	startBit := start % WordBits
	endBit := (end - 1) % WordBits

	if startWord == endWord {
		b.words[startWord] |= (^uint64(0) >> (63 - endBit + startBit)) << startBit
	} else {
		b.words[startWord] |= ^uint64(0) << startBit
		for w := startWord + 1; w < endWord; w++ {
			b.words[w] = ^uint64(0)
		}
		b.words[endWord] |= ^uint64(0) >> (63 - endBit)
	}

	for blk := int(startWord / BlockSize); blk <= int(endWord/BlockSize); blk++ {
		b.setBlockActive(blk)
	}
	b.cardinality = -1
}

// Contains reports whether bit id is set.
func (b *Bitmap) Contains(id uint32) bool {
	if id >= b.universe {
		return false
	}
	return b.words[id/WordBits]&(uint64(1)<<(id%WordBits)) != 0
}

// IsEmpty reports whether no bit is set.
func (b *Bitmap) IsEmpty() bool {
	for _, mask := range b.activeBlocks {
		if mask != 0 {
			return false
		}
	}
	return true
}

// Cardinality returns the number of set bits, counting active blocks only.
func (b *Bitmap) Cardinality() int {
	if b.cardinality >= 0 {
		return b.cardinality
	}
	count := 0
	for maskIdx, mask := range b.activeBlocks {
		for mask != 0 {
			bit := bits.TrailingZeros64(mask)
			start := (maskIdx*BlocksPerMaskWord + bit) * BlockSize
			count += popcountWords(b.words[start : start+BlockSize])
			mask &= mask - 1
		}
	}
	b.cardinality = count
	return count
}

// And performs in-place intersection: b = b AND other.
// Blocks inactive in other are zeroed without reading other's words.
func (b *Bitmap) And(other *Bitmap) {
	numMaskWords := min(len(b.activeBlocks), len(other.activeBlocks))

	for maskIdx := 0; maskIdx < numMaskWords; maskIdx++ {
		both := b.activeBlocks[maskIdx] & other.activeBlocks[maskIdx]
		dead := b.activeBlocks[maskIdx] &^ other.activeBlocks[maskIdx]

		for dead != 0 {
			bit := bits.TrailingZeros64(dead)
			b.clearBlock(maskIdx*BlocksPerMaskWord + bit)
			dead &= dead - 1
		}

		for both != 0 {
			bit := bits.TrailingZeros64(both)
			blockIdx := maskIdx*BlocksPerMaskWord + bit
			start := blockIdx * BlockSize
			andWords(b.words[start:start+BlockSize], other.words[start:start+BlockSize])
			if isZero(b.words[start : start+BlockSize]) {
				b.clearBlockActive(blockIdx)
			}
			both &= both - 1
		}

		b.activeBlocks[maskIdx] &= other.activeBlocks[maskIdx]
	}

	for maskIdx := numMaskWords; maskIdx < len(b.activeBlocks); maskIdx++ {
		mask := b.activeBlocks[maskIdx]
		for mask != 0 {
			bit := bits.TrailingZeros64(mask)
			b.clearBlock(maskIdx*BlocksPerMaskWord + bit)
			mask &= mask - 1
		}
		b.activeBlocks[maskIdx] = 0
	}

	b.cardinality = -1
}

// AndNot performs in-place difference: b = b AND NOT other.
func (b *Bitmap) AndNot(other *Bitmap) {
	numMaskWords := min(len(b.activeBlocks), len(other.activeBlocks))

	for maskIdx := 0; maskIdx < numMaskWords; maskIdx++ {
		both := b.activeBlocks[maskIdx] & other.activeBlocks[maskIdx]
		for both != 0 {
			bit := bits.TrailingZeros64(both)
			blockIdx := maskIdx*BlocksPerMaskWord + bit
			start := blockIdx * BlockSize
			andNotWords(b.words[start:start+BlockSize], other.words[start:start+BlockSize])
			if isZero(b.words[start : start+BlockSize]) {
				b.clearBlockActive(blockIdx)
			}
			both &= both - 1
		}
	}

	b.cardinality = -1
}

// Or performs in-place union: b = b OR other.
func (b *Bitmap) Or(other *Bitmap) {
	numMaskWords := min(len(b.activeBlocks), len(other.activeBlocks))

	for maskIdx := 0; maskIdx < numMaskWords; maskIdx++ {
		incoming := other.activeBlocks[maskIdx]
		for incoming != 0 {
			bit := bits.TrailingZeros64(incoming)
			start := (maskIdx*BlocksPerMaskWord + bit) * BlockSize
			orWords(b.words[start:start+BlockSize], other.words[start:start+BlockSize])
			incoming &= incoming - 1
		}
		b.activeBlocks[maskIdx] |= other.activeBlocks[maskIdx]
	}

	b.cardinality = -1
}

// ForEach calls fn for every set bit in ascending order.
// Returns early if fn returns false.
func (b *Bitmap) ForEach(fn func(uint32) bool) {
	for maskIdx, mask := range b.activeBlocks {
		for mask != 0 {
			bit := bits.TrailingZeros64(mask)
			start := (maskIdx*BlocksPerMaskWord + bit) * BlockSize
			base := uint32(start * WordBits)

			for w := start; w < start+BlockSize; w++ {
				word := b.words[w]
				for word != 0 {
					if !fn(base + uint32(bits.TrailingZeros64(word))) {
						return
					}
					word &= word - 1
				}
				base += WordBits
			}
			mask &= mask - 1
		}
	}
}

// FillBools writes the bitmap into dst, which must have length Universe().
// Inactive blocks are written as false without reading their words.
func (b *Bitmap) FillBools(dst []bool) []bool {
	clear(dst)
	b.ForEach(func(id uint32) bool {
		dst[id] = true
		return true
	})
	return dst
}

// CopyFrom overwrites b with the contents of src. Both must share a universe.
func (b *Bitmap) CopyFrom(src *Bitmap) {
	copy(b.words, src.words)
	copy(b.activeBlocks, src.activeBlocks)
	b.cardinality = src.cardinality
}

// Clone creates an independent copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	cloned := &Bitmap{
		words:        make([]uint64, len(b.words)),
		activeBlocks: make([]uint64, len(b.activeBlocks)),
		universe:     b.universe,
		cardinality:  b.cardinality,
	}
	copy(cloned.words, b.words)
	copy(cloned.activeBlocks, b.activeBlocks)
	return cloned
}

// ActiveBlockCount returns the number of non-empty blocks.
func (b *Bitmap) ActiveBlockCount() int {
	count := 0
	for _, mask := range b.activeBlocks {
		count += bits.OnesCount64(mask)
	}
	return count
}

// SizeInBytes returns the memory held by the bitmap's word storage.
func (b *Bitmap) SizeInBytes() int {
	return 8 * (len(b.words) + len(b.activeBlocks))
}

// Pool is a pool of reusable scratch bitmaps sharing one universe. Thread-safe.
type Pool struct {
	pool     sync.Pool
	universe uint32
}

// NewPool creates a new pool.
func NewPool(universe uint32) *Pool {
	return &Pool{
		universe: universe,
		pool: sync.Pool{
			New: func() any {
				b := New(universe)
				b.pooled = true
				return b
			},
		},
	}
}

// Get retrieves an empty bitmap from the pool.
func (p *Pool) Get() *Bitmap {
	return p.pool.Get().(*Bitmap)
}

// Put returns a bitmap to the pool. Bitmaps not created by a pool are ignored.
func (p *Pool) Put(b *Bitmap) {
	if b == nil || !b.pooled {
		return
	}
	b.Clear()
	p.pool.Put(b)
}

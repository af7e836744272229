// Package bitmap provides the packed per-event boolean columns used by
// selection storage.
//
// # Layout
//
// A Bitmap stores one bit per event in contiguous 64-bit words, grouped in
// blocks of 8 words (512 events, one cache line):
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│  Block 0 (64B)  │  Block 1 (64B)  │  Block 2 (64B)  │ ...           │
//	│  8 × uint64     │  8 × uint64     │  8 × uint64     │               │
//	│  events [0,511] │ events[512,1023]│events[1024,1535]│               │
//	└─────────────────────────────────────────────────────────────────────┘
//
// A second level, the active block mask, has bit i set when block i holds
// any set bit:
//
//	┌────────────────────────────────────────────────────────────────┐
//	│  Word 0: blocks 0-63  │  Word 1: blocks 64-127  │ ...          │
//	└────────────────────────────────────────────────────────────────┘
//
// AND and ANDNOT therefore touch only blocks active in the receiver, and
// tight selections (most events rejected early) get cheaper as the
// selection chain grows.
//
// # Example Usage
//
//	pool := bitmap.NewPool(uint32(n))
//
//	qb := pool.Get()
//	defer pool.Put(qb)
//
//	qb.AddRange(0, uint32(n)) // start from "all events pass"
//	qb.And(twoMuons)
//	qb.AndNot(vetoed)
//
//	mask := qb.FillBools(make([]bool, n))
package bitmap

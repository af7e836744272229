// Package output saves and loads accumulator trees.
//
// A saved output is a single blob:
//
//	magic "CFOA" | version u8 | compression u8 | codec name length u8 | codec name
//	compressed block stream of the encoded accumulator tree
//
// The codec and compression are recorded in the header, so Load needs no
// options to decode what Save wrote.
//
//	err := output.Save(ctx, store, "dimuon.cfoa", result,
//	    output.WithCompression(compress.ZSTD),
//	)
//	result, err := output.Load(ctx, store, "dimuon.cfoa")
package output

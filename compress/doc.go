// Package compress implements the block compression used by event chunk
// files and saved outputs.
//
// A stream is a sequence of blocks, each with an 8-byte header holding the
// uncompressed and compressed sizes. Blocks that do not shrink are stored
// raw, so decoding never depends on the data being compressible.
package compress

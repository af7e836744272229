// Package conv provides checked integer conversions for the length fields
// of the event and block formats.
//
// These functions return an error wrapping ErrOverflow instead of silently
// truncating, which matters when decoding untrusted input.
package conv

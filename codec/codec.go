// Package codec centralizes the encoding of persisted accumulator outputs.
//
// Saved outputs record the codec name in their header, so a file written with
// one codec is always decoded with the same one. Codecs other than the
// built-in ones must be registered before their outputs can be loaded.
package codec

import (
	"fmt"
	"sync"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

var (
	mu       sync.RWMutex
	registry = map[string]Codec{
		JSON{}.Name():   JSON{},
		GoJSON{}.Name(): GoJSON{},
	}
)

// Register makes c available to ByName under c.Name(), replacing any codec
// previously registered under that name. Names longer than 255 bytes cannot
// be stored in an output header and are rejected.
func Register(c Codec) error {
	name := c.Name()
	if name == "" || len(name) > 255 {
		return fmt.Errorf("invalid codec name %q", name)
	}
	mu.Lock()
	registry[name] = c
	mu.Unlock()
	return nil
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

package events

import (
	"context"
	"fmt"
	"sync"
)

// MemorySource serves tables held in memory, keyed by file name.
// It is safe for concurrent use.
type MemorySource struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{tables: make(map[string]*Table)}
}

// Add registers t under file.
func (s *MemorySource) Add(file string, t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[file] = t
}

func (s *MemorySource) get(file string) (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[file]
	if !ok {
		return nil, fmt.Errorf("events: no file %q", file)
	}
	return t, nil
}

// Entries returns the number of events in file.
func (s *MemorySource) Entries(ctx context.Context, file string) (int64, error) {
	t, err := s.get(file)
	if err != nil {
		return 0, err
	}
	return int64(t.Len()), nil
}

// Read returns the events [start, stop) of file.
func (s *MemorySource) Read(ctx context.Context, file string, start, stop int64) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.get(file)
	if err != nil {
		return nil, err
	}
	out, err := t.Slice(int(start), int(stop))
	if err != nil {
		return nil, err
	}
	out.Metadata.Filename = file
	return out, nil
}

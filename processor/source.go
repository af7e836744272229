package processor

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jbrewster7/coffea/blobstore"
	"github.com/jbrewster7/coffea/compress"
	"github.com/jbrewster7/coffea/events"
	"github.com/jbrewster7/coffea/resource"
	"golang.org/x/sync/singleflight"
)

// Source loads chunks of events. Implementations must be safe for
// concurrent use.
type Source interface {
	// Entries returns the number of events in file.
	Entries(ctx context.Context, file string) (int64, error)
	// Read returns the events [start, stop) of file.
	Read(ctx context.Context, file string, start, stop int64) (*events.Table, error)
}

var _ Source = (*events.MemorySource)(nil)

// DefaultDecodedTables is the number of decoded files a BlobSource keeps.
const DefaultDecodedTables = 4

// BlobSource reads event files encoded with events.Encode from a blob store.
// The most recently decoded files are kept so that consecutive chunks of one
// file decode it once.
type BlobSource struct {
	store blobstore.BlobStore
	rc    *resource.Controller
	group singleflight.Group

	mu      sync.Mutex
	keep    int
	order   []string
	decoded map[string]*events.Table
}

// NewBlobSource creates a BlobSource over store. Reads are throttled by rc's
// I/O limit when rc is non-nil.
func NewBlobSource(store blobstore.BlobStore, rc *resource.Controller) *BlobSource {
	return &BlobSource{
		store:   store,
		rc:      rc,
		keep:    DefaultDecodedTables,
		decoded: make(map[string]*events.Table),
	}
}

// Put encodes t and stores it under file.
func (s *BlobSource) Put(ctx context.Context, file string, t *events.Table, c compress.Type) error {
	data, err := events.Marshal(t, c)
	if err != nil {
		return err
	}
	if err := s.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	s.forget(file)
	return s.store.Put(ctx, file, data)
}

// Entries implements Source.
func (s *BlobSource) Entries(ctx context.Context, file string) (int64, error) {
	t, err := s.load(ctx, file)
	if err != nil {
		return 0, err
	}
	return int64(t.Len()), nil
}

// Read implements Source.
func (s *BlobSource) Read(ctx context.Context, file string, start, stop int64) (*events.Table, error) {
	t, err := s.load(ctx, file)
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

func (s *BlobSource) load(ctx context.Context, file string) (*events.Table, error) {
	s.mu.Lock()
	t, ok := s.decoded[file]
	s.mu.Unlock()
	if ok {
		return t, nil
	}

	v, err, _ := s.group.Do(file, func() (any, error) {
		data, err := s.store.Get(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		if err := s.rc.AcquireIO(ctx, len(data)); err != nil {
			return nil, err
		}
		t, err := events.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", file, err)
		}
		s.remember(file, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*events.Table), nil
}

func (s *BlobSource) remember(file string, t *events.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decoded[file]; !ok {
		s.order = append(s.order, file)
	}
	s.decoded[file] = t
	for len(s.order) > s.keep {
		delete(s.decoded, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *BlobSource) forget(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decoded[file]; !ok {
		return
	}
	delete(s.decoded, file)
	s.order = slices.DeleteFunc(s.order, func(f string) bool { return f == file })
}

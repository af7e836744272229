package blobstore

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/jbrewster7/coffea/resource"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultPrefetchConcurrency bounds the parallel fetches of Prefetch.
const DefaultPrefetchConcurrency = 8

// CachingStore wraps a BlobStore with an LRU cache of whole blobs, bounded
// by a byte capacity. Concurrent misses for the same name share one fetch.
//
// If a resource.Controller is given, cached bytes are accounted against its
// memory limit; a blob the controller refuses is returned but not cached.
type CachingStore struct {
	inner BlobStore
	rc    *resource.Controller
	group singleflight.Group

	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List
	fetches   map[string]*fetch

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	name string
	data []byte
}

// fetch is an in-flight miss. A Put or Delete of the same name marks it
// stale so its result is not cached.
type fetch struct {
	stale bool
}

// NewCachingStore creates a CachingStore holding at most capacity bytes.
func NewCachingStore(inner BlobStore, capacity int64, rc *resource.Controller) *CachingStore {
	return &CachingStore{
		inner:     inner,
		rc:        rc,
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		fetches:   make(map[string]*fetch),
	}
}

// Get implements BlobStore. The returned slice is owned by the caller.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if data, ok := s.lookup(name); ok {
		s.hits.Add(1)
		return slices.Clone(data), nil
	}
	s.misses.Add(1)

	v, err, _ := s.group.Do(name, func() (any, error) {
		f := s.beginFetch(name)
		data, err := s.inner.Get(ctx, name)
		s.endFetch(name, f, data, err)
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]byte)), nil
}

// Put writes through to the inner store and drops any cached copy. Misses
// in flight during the write return their data but do not cache it.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	defer s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete implements BlobStore.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	defer s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List implements BlobStore. Listings are never cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Prefetch loads the named blobs into the cache in parallel. It stops at the
// first error.
func (s *CachingStore) Prefetch(ctx context.Context, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultPrefetchConcurrency)
	for _, name := range names {
		if _, ok := s.lookup(name); ok {
			continue
		}
		g.Go(func() error {
			_, err := s.Get(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// Stats returns the cache hit and miss counts.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Size returns the current size of the cache in bytes.
func (s *CachingStore) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *CachingStore) lookup(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[name]; ok {
		s.evictList.MoveToFront(e)
		return e.Value.(*cacheEntry).data, true
	}
	return nil, false
}

func (s *CachingStore) beginFetch(name string) *fetch {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &fetch{}
	s.fetches[name] = f
	return f
}

func (s *CachingStore) endFetch(name string, f *fetch, data []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetches[name] == f {
		delete(s.fetches, name)
	}
	if err != nil || f.stale {
		return
	}
	s.insertLocked(name, data)
}

func (s *CachingStore) insertLocked(name string, data []byte) {
	if e, ok := s.items[name]; ok {
		s.removeElement(e)
	}
	itemSize := int64(len(data))
	if itemSize > s.capacity {
		return
	}

	// Evict locally first so released memory is available to the controller.
	for s.size+itemSize > s.capacity {
		e := s.evictList.Back()
		if e == nil {
			break
		}
		s.removeElement(e)
	}
	if !s.rc.TryAcquireMemory(itemSize) {
		return
	}

	s.items[name] = s.evictList.PushFront(&cacheEntry{name: name, data: data})
	s.size += itemSize
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	if f, ok := s.fetches[name]; ok {
		f.stale = true
	}
	if e, ok := s.items[name]; ok {
		s.removeElement(e)
	}
	s.mu.Unlock()
	// Later misses start a new fetch instead of joining a stale one.
	s.group.Forget(name)
}

func (s *CachingStore) removeElement(e *list.Element) {
	s.evictList.Remove(e)
	ent := e.Value.(*cacheEntry)
	delete(s.items, ent.name)
	itemSize := int64(len(ent.data))
	s.size -= itemSize
	s.rc.ReleaseMemory(itemSize)
}

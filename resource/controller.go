package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits for a processing run.
type Config struct {
	// MemoryLimitBytes is the hard limit for tracked memory (decoded event
	// chunks, cached blobs). If 0, usage is only tracked.
	MemoryLimitBytes int64

	// MaxConcurrentChunks is the number of chunks that may be processed at
	// the same time. If 0, defaults to 1.
	MaxConcurrentChunks int64

	// IOLimitBytesPerSec caps blob store throughput. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller bounds memory, chunk concurrency and blob I/O shared by all
// workers of a run. A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	chunkSem *semaphore.Weighted
	active   atomic.Int64

	ioLimiter *rate.Limiter
	ioBytes   atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentChunks <= 0 {
		cfg.MaxConcurrentChunks = 1
	}

	c := &Controller{
		cfg:      cfg,
		chunkSem: semaphore.NewWeighted(cfg.MaxConcurrentChunks),
	}
	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireMemory reserves bytes. With a hard limit it blocks until enough
// memory is released or ctx is done.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}
	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves bytes without blocking and reports success.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved memory in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireChunk reserves a chunk processing slot, blocking while all slots
// are busy.
func (c *Controller) AcquireChunk(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.chunkSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.active.Add(1)
	return nil
}

// TryAcquireChunk reserves a chunk slot without blocking.
func (c *Controller) TryAcquireChunk() bool {
	if c == nil {
		return true
	}
	if !c.chunkSem.TryAcquire(1) {
		return false
	}
	c.active.Add(1)
	return true
}

// ReleaseChunk releases a chunk slot.
func (c *Controller) ReleaseChunk() {
	if c == nil {
		return
	}
	c.active.Add(-1)
	c.chunkSem.Release(1)
}

// ActiveChunks returns the number of held chunk slots.
func (c *Controller) ActiveChunks() int64 {
	if c == nil {
		return 0
	}
	return c.active.Load()
}

// AcquireIO waits until the I/O limit admits bytes more bytes. Requests
// larger than one second of budget are admitted in pieces.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil {
		return nil
	}
	c.ioBytes.Add(int64(bytes))
	if c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// IOBytes returns the total bytes admitted through AcquireIO.
func (c *Controller) IOBytes() int64 {
	if c == nil {
		return 0
	}
	return c.ioBytes.Load()
}

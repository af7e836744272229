package processor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jbrewster7/coffea"
	"github.com/jbrewster7/coffea/accumulator"
	"github.com/jbrewster7/coffea/blobstore"
	"github.com/jbrewster7/coffea/compress"
	"github.com/jbrewster7/coffea/events"
	"github.com/jbrewster7/coffea/resource"
	"github.com/jbrewster7/coffea/selection"
	"github.com/jbrewster7/coffea/testutil"
	"github.com/jbrewster7/coffea/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T, rng *testutil.RNG, n int) *events.Table {
	t.Helper()
	tbl := events.NewTable(n, events.Metadata{})
	require.NoError(t, tbl.AddFloat("pt", rng.Exponential(n, 30)))
	require.NoError(t, tbl.AddFloat("x", rng.UniformRange(n, 0, 2)))
	require.NoError(t, tbl.AddBool("trigger", rng.Masks(n, 0.7)))
	return tbl
}

func newFixture(t *testing.T) (*events.MemorySource, Fileset) {
	t.Helper()
	rng := testutil.NewRNG(7)
	src := events.NewMemorySource()
	src.Add("dy_0", newTable(t, rng, 1000))
	src.Add("dy_1", newTable(t, rng, 333))
	src.Add("tt_0", newTable(t, rng, 512))
	src.Add("empty", events.NewTable(0, events.Metadata{}))
	return src, Fileset{
		"DY": {"dy_0", "dy_1"},
		"TT": {"tt_0", "empty"},
	}
}

// countingProcessor files the event count, the sum of x and the files it
// saw under the chunk's dataset.
type countingProcessor struct {
	calls atomic.Int64
}

func (p *countingProcessor) Process(_ context.Context, tbl *events.Table) (accumulator.Accumulatable, error) {
	p.calls.Add(1)
	x, err := tbl.Float("x")
	if err != nil {
		return nil, err
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	out := accumulator.NewMap()
	out.Child(tbl.Metadata.Dataset).
		Set("nevents", accumulator.Int(tbl.Len())).
		Set("sumx", accumulator.Float(sum)).
		Set("files", accumulator.NewSet(tbl.Metadata.Filename))
	return out, nil
}

func (p *countingProcessor) Postprocess(_ context.Context, acc accumulator.Accumulatable) (accumulator.Accumulatable, error) {
	return acc.(*accumulator.Map).Set("postprocessed", accumulator.Int(1)), nil
}

func expectedSumX(t *testing.T, src *events.MemorySource, files ...string) float64 {
	t.Helper()
	sum := 0.0
	for _, f := range files {
		n, err := src.Entries(context.Background(), f)
		require.NoError(t, err)
		tbl, err := src.Read(context.Background(), f, 0, n)
		require.NoError(t, err)
		x, err := tbl.Float("x")
		require.NoError(t, err)
		for _, v := range x {
			sum += v
		}
	}
	return sum
}

func TestSplit(t *testing.T) {
	chunks := Split("DY", "f", 250, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, Chunk{"DY", "f", 200, 250}, chunks[2])
	assert.Equal(t, int64(50), chunks[2].Len())
	assert.Equal(t, "DY:f[200:250]", chunks[2].String())

	assert.Empty(t, Split("DY", "f", 0, 100))
	assert.Len(t, Split("DY", "f", 10, 0), 1)
}

func TestRunner_Chunks(t *testing.T) {
	src, fs := newFixture(t)
	r := NewRunner(src, WithChunkSize(400))

	chunks, err := r.Chunks(context.Background(), fs)
	require.NoError(t, err)

	// DY: 1000 -> 3 chunks, 333 -> 1 chunk; TT: 512 -> 2 chunks, empty -> 0.
	require.Len(t, chunks, 6)
	assert.Equal(t, Chunk{"DY", "dy_0", 800, 1000}, chunks[2])
	assert.Equal(t, Chunk{"TT", "tt_0", 400, 512}, chunks[5])
}

func TestRunner_Run(t *testing.T) {
	src, fs := newFixture(t)

	executors := map[string]Executor{
		"iterative": IterativeExecutor{},
		"pool":      NewPoolExecutor(WithWorkers(4)),
	}
	for name, exec := range executors {
		t.Run(name, func(t *testing.T) {
			proc := &countingProcessor{}
			mc := &coffea.BasicMetricsCollector{}
			r := NewRunner(src, WithExecutor(exec), WithChunkSize(100), WithMetricsCollector(mc))

			acc, err := r.Run(context.Background(), fs, proc)
			require.NoError(t, err)
			out := acc.(*accumulator.Map)

			dy := out.Child("DY")
			n, _ := dy.Get("nevents")
			sumx, _ := dy.Get("sumx")
			files, _ := dy.Get("files")
			assert.Equal(t, accumulator.Int(1333), n)
			assert.InDelta(t, expectedSumX(t, src, "dy_0", "dy_1"), float64(sumx.(accumulator.Float)), 1e-9)
			assert.Equal(t, []string{"dy_0", "dy_1"}, files.(*accumulator.Set).Items())

			tt := out.Child("TT")
			n, _ = tt.Get("nevents")
			assert.Equal(t, accumulator.Int(512), n)

			post, ok := out.Get("postprocessed")
			require.True(t, ok)
			assert.Equal(t, accumulator.Int(1), post)

			// 10 + 4 + 6 chunks
			assert.Equal(t, int64(20), proc.calls.Load())
			stats := mc.GetStats()
			assert.Equal(t, int64(20), stats.ChunkCount)
			assert.Equal(t, int64(1845), stats.ChunkEvents)
			assert.Equal(t, int64(19), stats.MergeCount)
		})
	}
}

func TestRunner_ChunkSizeDoesNotChangeResult(t *testing.T) {
	src, fs := newFixture(t)
	var results []accumulator.Accumulatable
	for _, size := range []int64{7, 100, 1 << 20} {
		acc, err := NewRunner(src, WithChunkSize(size)).Run(context.Background(), fs, &countingProcessor{})
		require.NoError(t, err)
		results = append(results, acc)
	}
	for _, acc := range results[1:] {
		a, _ := results[0].(*accumulator.Map).Child("DY").Get("nevents")
		b, _ := acc.(*accumulator.Map).Child("DY").Get("nevents")
		assert.Equal(t, a, b)
		ax, _ := results[0].(*accumulator.Map).Child("DY").Get("sumx")
		bx, _ := acc.(*accumulator.Map).Child("DY").Get("sumx")
		assert.InDelta(t, float64(ax.(accumulator.Float)), float64(bx.(accumulator.Float)), 1e-9)
	}
}

func TestRunner_EmptyFileset(t *testing.T) {
	src, _ := newFixture(t)
	_, err := NewRunner(src).Run(context.Background(), Fileset{"TT": {"empty"}}, &countingProcessor{})
	assert.ErrorIs(t, err, accumulator.ErrNoInput)
}

func TestRunner_ProcessError(t *testing.T) {
	src, fs := newFixture(t)
	boom := errors.New("boom")
	proc := Func(func(_ context.Context, tbl *events.Table) (accumulator.Accumulatable, error) {
		if tbl.Metadata.Filename == "tt_0" {
			return nil, boom
		}
		return accumulator.Int(tbl.Len()), nil
	})

	for _, exec := range []Executor{IterativeExecutor{}, NewPoolExecutor(WithWorkers(3))} {
		_, err := NewRunner(src, WithExecutor(exec), WithChunkSize(100)).Run(context.Background(), fs, proc)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "TT:tt_0")
	}
}

func TestRunner_SkipBadChunks(t *testing.T) {
	src, fs := newFixture(t)
	fs["WW"] = []string{"missing"}
	proc := Func(func(_ context.Context, tbl *events.Table) (accumulator.Accumulatable, error) {
		if tbl.Metadata.Filename == "dy_1" {
			return nil, errors.New("corrupt basket")
		}
		return accumulator.Int(tbl.Len()), nil
	})

	acc, err := NewRunner(src, WithSkipBadChunks(true)).Run(context.Background(), fs, proc)
	require.NoError(t, err)
	assert.Equal(t, accumulator.Int(1000+512), acc)
}

func TestRunner_MissingFile(t *testing.T) {
	src, _ := newFixture(t)
	_, err := NewRunner(src).Run(context.Background(), Fileset{"DY": {"missing"}}, &countingProcessor{})
	assert.ErrorContains(t, err, "missing")
}

func TestRunner_IncompatibleOutputs(t *testing.T) {
	src, fs := newFixture(t)
	proc := Func(func(_ context.Context, tbl *events.Table) (accumulator.Accumulatable, error) {
		if tbl.Metadata.Dataset == "TT" {
			return accumulator.Float(1), nil
		}
		return accumulator.Int(1), nil
	})
	_, err := NewRunner(src).Run(context.Background(), fs, proc)
	assert.ErrorIs(t, err, coffea.ErrIncompatibleTypes)
}

func TestRunner_Cancelled(t *testing.T) {
	src, fs := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	proc := Func(func(_ context.Context, tbl *events.Table) (accumulator.Accumulatable, error) {
		cancel()
		return accumulator.Int(tbl.Len()), nil
	})

	for _, exec := range []Executor{IterativeExecutor{}, NewPoolExecutor(WithWorkers(1))} {
		_, err := NewRunner(src, WithExecutor(exec), WithChunkSize(10)).Run(ctx, fs, proc)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestRunner_ResourceControllerBoundsChunks(t *testing.T) {
	src, fs := newFixture(t)
	rc := resource.NewController(resource.Config{MaxConcurrentChunks: 2})

	var inFlight, peak atomic.Int64
	proc := Func(func(_ context.Context, tbl *events.Table) (accumulator.Accumulatable, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		return accumulator.Int(tbl.Len()), nil
	})

	acc, err := NewRunner(src,
		WithExecutor(NewPoolExecutor(WithWorkers(8))),
		WithChunkSize(50),
		WithResourceController(rc),
	).Run(context.Background(), fs, proc)
	require.NoError(t, err)
	assert.Equal(t, accumulator.Int(1845), acc)
	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Zero(t, rc.ActiveChunks())
}

// dimuonProcessor exercises the per-chunk flow: weights, selections and an
// N-1 study filed by dataset.
func dimuonProcessor(_ context.Context, tbl *events.Table) (accumulator.Accumulatable, error) {
	pt, err := tbl.Float("pt")
	if err != nil {
		return nil, err
	}
	trigger, err := tbl.Bool("trigger")
	if err != nil {
		return nil, err
	}

	w := weights.New(tbl.Len())
	sf := make([]float64, tbl.Len())
	for i := range sf {
		sf[i] = 0.5
	}
	if err := w.Add("sf", sf, nil, nil); err != nil {
		return nil, err
	}
	nominal, err := w.Weight("")
	if err != nil {
		return nil, err
	}

	sel := selection.New(tbl.Len())
	highPt := make([]bool, tbl.Len())
	for i, v := range pt {
		highPt[i] = v > 20
	}
	if err := sel.Add("trigger", trigger); err != nil {
		return nil, err
	}
	if err := sel.Add("pt", highPt); err != nil {
		return nil, err
	}
	nm1, err := sel.NMinusOne()
	if err != nil {
		return nil, err
	}
	all, err := sel.All("trigger", "pt")
	if err != nil {
		return nil, err
	}
	sumw := 0.0
	for i, pass := range all {
		if pass {
			sumw += nominal[i]
		}
	}

	out := accumulator.NewMap()
	out.Child(tbl.Metadata.Dataset).
		Set("nminusone", nm1.ToMap()).
		Set("sumw", accumulator.Float(sumw)).
		Set("weight_stats", w.WeightStatistics()["sf"])
	return out, nil
}

func TestRunner_BlobSource(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})
	src := NewBlobSource(store, rc)

	rng := testutil.NewRNG(11)
	mem := events.NewMemorySource()
	for i, n := range []int{800, 300} {
		name := fmt.Sprintf("dy_%d.cfev", i)
		tbl := newTable(t, rng, n)
		require.NoError(t, src.Put(ctx, name, tbl, compress.LZ4))
		mem.Add(name, tbl)
	}
	fs := Fileset{"DY": {"dy_0.cfev", "dy_1.cfev"}}

	fromBlobs, err := NewRunner(src, WithChunkSize(256), WithExecutor(NewPoolExecutor(WithWorkers(2)))).
		Run(ctx, fs, Func(dimuonProcessor))
	require.NoError(t, err)
	fromMemory, err := NewRunner(mem, WithChunkSize(1000)).Run(ctx, fs, Func(dimuonProcessor))
	require.NoError(t, err)

	a := fromBlobs.(*accumulator.Map).Child("DY")
	b := fromMemory.(*accumulator.Map).Child("DY")
	aw, _ := a.Get("sumw")
	bw, _ := b.Get("sumw")
	assert.InDelta(t, float64(bw.(accumulator.Float)), float64(aw.(accumulator.Float)), 1e-9)

	as, _ := a.Get("weight_stats")
	assert.Equal(t, int64(1100), as.(weights.Statistics).N)

	initial, _ := a.Child("nminusone").Get("initial")
	assert.Equal(t, accumulator.Int(1100), initial)
	assert.Positive(t, rc.IOBytes())
}

func TestBlobSource_DecodesOncePerFile(t *testing.T) {
	ctx := context.Background()
	inner := blobstore.NewMemoryStore()
	store := &countingStore{BlobStore: inner}
	src := NewBlobSource(store, nil)

	require.NoError(t, src.Put(ctx, "f", newTable(t, testutil.NewRNG(1), 100), compress.ZSTD))
	n, err := src.Entries(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)

	for start := int64(0); start < 100; start += 25 {
		tbl, err := src.Read(ctx, "f", start, start+25)
		require.NoError(t, err)
		assert.Equal(t, 25, tbl.Len())
		assert.Equal(t, "f", tbl.Metadata.Filename)
		assert.Equal(t, start, tbl.Metadata.EntryStart)
	}
	assert.Equal(t, int64(1), store.gets.Load())

	_, err = src.Read(ctx, "f", 90, 120)
	assert.ErrorIs(t, err, coffea.ErrInvalidArgument)

	_, err = src.Entries(ctx, "nope")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, inner.Put(ctx, "junk", []byte("junk")))
	_, err = src.Entries(ctx, "junk")
	assert.ErrorIs(t, err, events.ErrInvalidFormat)
}

func TestBlobSource_Eviction(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{BlobStore: blobstore.NewMemoryStore()}
	src := NewBlobSource(store, nil)
	rng := testutil.NewRNG(3)

	names := make([]string, DefaultDecodedTables+1)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
		require.NoError(t, src.Put(ctx, names[i], newTable(t, rng, 10), compress.None))
	}
	for _, name := range names {
		_, err := src.Entries(ctx, name)
		require.NoError(t, err)
	}
	require.Equal(t, int64(len(names)), store.gets.Load())

	// f0 was evicted, the last file is still decoded.
	_, err := src.Entries(ctx, names[len(names)-1])
	require.NoError(t, err)
	assert.Equal(t, int64(len(names)), store.gets.Load())
	_, err = src.Entries(ctx, names[0])
	require.NoError(t, err)
	assert.Equal(t, int64(len(names)+1), store.gets.Load())
}

type countingStore struct {
	blobstore.BlobStore
	gets atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, name string) ([]byte, error) {
	c.gets.Add(1)
	return c.BlobStore.Get(ctx, name)
}

func BenchmarkRunner_Pool(b *testing.B) {
	rng := testutil.NewRNG(1)
	src := events.NewMemorySource()
	fs := Fileset{}
	for i := range 8 {
		name := fmt.Sprintf("f%d", i)
		tbl := events.NewTable(50_000, events.Metadata{})
		_ = tbl.AddFloat("pt", rng.Exponential(50_000, 30))
		_ = tbl.AddFloat("x", rng.UniformRange(50_000, 0, 1))
		_ = tbl.AddBool("trigger", rng.Masks(50_000, 0.7))
		src.Add(name, tbl)
		fs["DY"] = append(fs["DY"], name)
	}
	r := NewRunner(src, WithExecutor(NewPoolExecutor()), WithChunkSize(10_000))

	b.ReportAllocs()
	for b.Loop() {
		if _, err := r.Run(context.Background(), fs, Func(dimuonProcessor)); err != nil {
			b.Fatal(err)
		}
	}
}

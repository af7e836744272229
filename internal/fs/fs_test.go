package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	f, err := lfs.CreateTemp(dir, ".tmp-out-*")
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	target := filepath.Join(dir, "out")
	require.NoError(t, lfs.Rename(f.Name(), target))

	data, err := lfs.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	var seen []string
	require.NoError(t, lfs.WalkDir(tmp, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			seen = append(seen, d.Name())
		}
		return err
	}))
	assert.Equal(t, []string{"out"}, seen)

	require.NoError(t, lfs.Remove(target))
	_, err = lfs.ReadFile(target)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFaultyFS_FailAfterBytes(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("chunk", Fault{FailAfterBytes: 4})

	f, err := ffs.CreateTemp(tmp, ".tmp-chunk-*")
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = f.Write([]byte("de"))
	assert.ErrorIs(t, err, ErrInjected)
	require.NoError(t, f.Close())

	// Unmatched files are untouched.
	g, err := ffs.CreateTemp(tmp, ".tmp-other-*")
	require.NoError(t, err)
	_, err = g.Write([]byte(strings.Repeat("x", 100)))
	require.NoError(t, err)
	require.NoError(t, g.Close())
}

func TestFaultyFS_SyncCloseRename(t *testing.T) {
	tmp := t.TempDir()
	custom := os.ErrPermission
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule("close", Fault{FailAfterBytes: -1, FailOnClose: true, Err: custom})
	ffs.AddRule("rename", Fault{FailAfterBytes: -1, FailOnRename: true})

	f, err := ffs.CreateTemp(tmp, "sync-*")
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), ErrInjected)
	require.NoError(t, f.Close())

	g, err := ffs.CreateTemp(tmp, "close-*")
	require.NoError(t, err)
	assert.ErrorIs(t, g.Close(), custom)

	h, err := ffs.CreateTemp(tmp, "plain-*")
	require.NoError(t, err)
	require.NoError(t, h.Close())
	assert.ErrorIs(t, ffs.Rename(h.Name(), filepath.Join(tmp, "rename-target")), ErrInjected)
	require.NoError(t, ffs.Rename(h.Name(), filepath.Join(tmp, "ok")))
}

package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
)

// File is a file opened for writing.
type File interface {
	Write(p []byte) (int, error)
	Sync() error
	Close() error
	Name() string
}

// FileSystem abstracts the file operations of blobstore.LocalStore.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	CreateTemp(dir, pattern string) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	WalkDir(root string, fn WalkDirFunc) error
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (LocalFS) CreateTemp(dir, pattern string) (File, error) {
	return os.CreateTemp(dir, pattern)
}

func (LocalFS) Remove(name string) error             { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
func (LocalFS) WalkDir(root string, fn WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// WalkDirFunc is the callback of FileSystem.WalkDir.
type WalkDirFunc = iofs.WalkDirFunc

// Default is the default local file system.
var Default FileSystem = LocalFS{}

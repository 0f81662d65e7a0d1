// Package vfs abstracts filesystem access behind a small interface so that
// the crawler and query engine can run against the real filesystem, a
// case-insensitive emulation of it, or a test double. This replaces ad-hoc
// os.* calls scattered through the engine with one injectable seam.
package vfs

import (
	"io"
	"os"
	"path/filepath"
)

// FS is the filesystem surface the engine depends on. Paths are native
// absolute paths. ListDir returns direct child names in unspecified order;
// callers sort when they need determinism.
type FS interface {
	ListDir(path string) ([]string, error)
	IsDir(path string) bool
	IsFile(path string) bool
	Stat(path string) (os.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
}

// OSFS is the pass-through implementation backed by the os package.
type OSFS struct{}

// ListDir returns the names of the direct children of path.
func (OSFS) ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// IsDir reports whether path is a real directory. Symlinks are rejected even
// when they point at directories, which keeps the crawler out of link loops.
// Mount points are not detected: a mounted directory is reported as a
// directory.
func (OSFS) IsDir(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsFile reports whether path is a regular file.
func (OSFS) IsFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Stat returns the FileInfo for path.
func (OSFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Open opens path for reading.
func (OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Compile-time interface compliance checks.
var (
	_ FS = OSFS{}
	_ FS = (*CaseProbingFS)(nil)
)

// CaseProbingFS wraps another FS and emulates a case-insensitive filesystem
// on top of a case-sensitive one. When an exact-case lookup misses, the
// parent directory is listed and the first entry whose folded name matches is
// used instead. This stands in for a Windows-style filesystem in tests and
// when the user forces case-insensitive behavior on POSIX.
type CaseProbingFS struct {
	base FS
	fold func(string) string
}

// NewCaseProbingFS returns a CaseProbingFS over base using fold as the
// case-normalization function for name comparison.
func NewCaseProbingFS(base FS, fold func(string) string) *CaseProbingFS {
	return &CaseProbingFS{base: base, fold: fold}
}

// resolve maps path to an existing path that differs only in letter case, if
// one exists. The input path is returned unchanged when it exists as given or
// when no case-folded sibling can be found.
func (c *CaseProbingFS) resolve(path string) string {
	if _, err := c.base.Stat(path); err == nil {
		return path
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	parent = c.resolve(parent)
	names, err := c.base.ListDir(parent)
	if err != nil {
		return path
	}
	want := c.fold(filepath.Base(path))
	for _, name := range names {
		if c.fold(name) == want {
			return filepath.Join(parent, name)
		}
	}
	return path
}

// ListDir lists the case-resolved path.
func (c *CaseProbingFS) ListDir(path string) ([]string, error) {
	return c.base.ListDir(c.resolve(path))
}

// IsDir reports whether the case-resolved path is a directory.
func (c *CaseProbingFS) IsDir(path string) bool {
	return c.base.IsDir(c.resolve(path))
}

// IsFile reports whether the case-resolved path is a regular file.
func (c *CaseProbingFS) IsFile(path string) bool {
	return c.base.IsFile(c.resolve(path))
}

// Stat stats the case-resolved path.
func (c *CaseProbingFS) Stat(path string) (os.FileInfo, error) {
	return c.base.Stat(c.resolve(path))
}

// Open opens the case-resolved path for reading.
func (c *CaseProbingFS) Open(path string) (io.ReadCloser, error) {
	return c.base.Open(c.resolve(path))
}

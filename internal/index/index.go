// Package index implements the core subsystem: the inverted tag index built
// by a recursive crawl, its compressed on-disk serialization, and the
// two-phase query engine that resolves positive and negative tag terms
// against it.
//
// The index is an arena of strings (folder names, folder-name tokens, manual
// tags, and file extensions) with a parallel parent table encoding the folder
// tree, plus a tag-to-leaves mapping from arena index to the folders where
// that tag applies. All three structures are mutated only during Walk and are
// read-only afterwards.
package index

import (
	"log/slog"
	"sort"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/norm"
	"github.com/tagsplorer/tagsplorer/internal/vfs"
)

// DefaultCompression is the zlib level used for fresh indexes. Level 2 has
// the best size/speed trade-off for typical trees.
const DefaultCompression = 2

// Index holds the crawl result for one repository root.
type Index struct {
	// Root is the absolute, slash-normalized repository root without a
	// trailing slash.
	Root string

	// Timestamp is the millisecond timestamp this index was built at. It
	// must equal the configuration file's first-line timestamp for the index
	// to be considered current.
	Timestamp int64

	// Compression is the zlib level applied to the serialized index (0 =
	// raw).
	Compression int

	// Arena is the append-only sequence of tag/folder entries. Entry 0 is
	// the root (empty string). The same string may appear at several indices
	// because the arena encodes the tree, not a set.
	Arena []string

	// Parent holds the parent arena index per entry; Parent[0] == 0 is the
	// unique self-parent.
	Parent []int

	// Leaves is the dense tag-to-leaves vector, indexed by arena index: the
	// set of folder entry indices a tag applies to, sorted ascending. Rows
	// for entries that carry no leaves are nil.
	Leaves [][]int

	// Cfg is the configuration this index was built from.
	Cfg *config.Config

	fs     vfs.FS
	n      *norm.Normalizer
	logger *slog.Logger

	// firstIdx maps each arena string to its first occurrence; leaves are
	// keyed on first occurrences only.
	firstIdx map[string]int

	// allPaths caches the union of all leaf paths for the index's lifetime.
	allPaths []string
}

// New returns an empty index for the given root. The Normalizer carries the
// active case policy; the FS is the filesystem seam used by crawl and query.
func New(root string, fs vfs.FS, n *norm.Normalizer) *Index {
	return &Index{
		Root:        slashNorm(root),
		Compression: DefaultCompression,
		fs:          fs,
		n:           n,
		logger:      slog.Default().With("component", "index"),
	}
}

// Normalizer returns the index's active Normalizer.
func (ix *Index) Normalizer() *norm.Normalizer {
	return ix.n
}

// SetFS replaces the filesystem implementation, e.g. after a load revealed
// that the stored configuration wants case-insensitive behavior.
func (ix *Index) SetFS(fs vfs.FS) {
	ix.fs = fs
}

// slashNorm converts a native path to forward slashes and strips any trailing
// slash.
func slashNorm(p string) string {
	out := make([]byte, len(p))
	for i := 0; i < len(p); i++ {
		if p[i] == '\\' {
			out[i] = '/'
		} else {
			out[i] = p[i]
		}
	}
	s := string(out)
	for len(s) > 1 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// rebuildFirstIdx recomputes the first-occurrence lookup after a crawl or a
// load.
func (ix *Index) rebuildFirstIdx() {
	ix.firstIdx = make(map[string]int, len(ix.Arena))
	for i, name := range ix.Arena {
		if _, ok := ix.firstIdx[name]; !ok {
			ix.firstIdx[name] = i
		}
	}
}

// first returns the first arena index holding name, or -1.
func (ix *Index) first(name string) int {
	if i, ok := ix.firstIdx[name]; ok {
		return i
	}
	return -1
}

// GetPath returns the root-relative path for the given arena index: "" for
// the root, otherwise the parent's path plus "/" plus the entry name. The
// caller-supplied cache amortizes successive lookups to O(1) per entry.
func (ix *Index) GetPath(idx int, cache map[int]string) string {
	if idx == 0 {
		return ""
	}
	if found, ok := cache[idx]; ok {
		return found
	}
	parent := ix.GetPath(ix.Parent[idx], cache)
	path := parent + "/" + ix.Arena[idx]
	cache[idx] = path
	return path
}

// GetPaths maps GetPath over ids, sharing one cache.
func (ix *Index) GetPaths(ids []int, cache map[int]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, ix.GetPath(id, cache))
	}
	return out
}

// AllPaths returns the union of paths of every leaf index in the
// tag-to-leaves map. The result is computed once and cached for the index's
// lifetime (a rebuild invalidates it).
func (ix *Index) AllPaths() []string {
	if ix.allPaths != nil {
		return ix.allPaths
	}
	leafSet := make(map[int]bool)
	for _, leaves := range ix.Leaves {
		for _, leaf := range leaves {
			leafSet[leaf] = true
		}
	}
	cache := make(map[int]string, len(leafSet))
	paths := make(map[string]bool, len(leafSet))
	for leaf := range leafSet {
		paths[ix.GetPath(leaf, cache)] = true
	}
	all := make([]string, 0, len(paths))
	for p := range paths {
		all = append(all, p)
	}
	sort.Strings(all)
	ix.allPaths = all
	return all
}

// abs converts a root-relative path ("" or leading slash) to a native
// absolute path under the root.
func (ix *Index) abs(rel string) string {
	return ix.Root + rel
}

package index

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/engine"
	"github.com/tagsplorer/tagsplorer/internal/norm"
	"github.com/tagsplorer/tagsplorer/internal/vfs"
)

// findAll mirrors the CLI find loop: phase 1 folder candidates, phase 2 file
// filtering with skip-prefix pruning. Results are root-relative file paths.
func findAll(ix *Index, poss, negs []string) (files []string, folders int) {
	var skipped []string
	for _, p := range ix.FindFolders(poss, negs, false) {
		inSkipped := false
		for _, s := range skipped {
			if p == s || (s != "" && len(p) > len(s) && p[:len(s)+1] == s+"/") {
				inSkipped = true
				break
			}
		}
		if inSkipped {
			continue
		}
		names, skip := ix.FindFiles(p, poss, negs)
		if skip {
			skipped = append(skipped, p)
			continue
		}
		if len(names) == 0 {
			continue
		}
		folders++
		for _, name := range names {
			files = append(files, p+"/"+name)
		}
	}
	sort.Strings(files)
	return files, folders
}

func TestFindFolders_SingleTag(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	paths := ix.FindFolders([]string{"a"}, nil, false)
	assert.Equal(t, []string{"/a", "/a/a1", "/a/a2"}, paths)
}

func TestFind_SingleTagFiles(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	files, folders := findAll(ix, []string{"a"}, nil)
	assert.Equal(t, []string{
		"/a/a1/file3.ext1",
		"/a/a1/file3.ext2",
		"/a/a2/file3.ext3",
	}, files)
	assert.Equal(t, 2, folders)
}

func TestFind_NegativeTag(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)

	paths := ix.FindFolders([]string{"a"}, []string{"a1"}, false)
	assert.Equal(t, []string{"/a", "/a/a2"}, paths)

	files, folders := findAll(ix, []string{"a"}, []string{"a1"})
	assert.Equal(t, []string{"/a/a2/file3.ext3"}, files)
	assert.Equal(t, 1, folders)
}

func TestFind_ManualTagWithGlobs(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)

	// The tag1 definition includes file3.ext1 and excludes file3.ext3, so
	// exactly one file survives.
	files, folders := findAll(ix, []string{"b1", "tag1"}, nil)
	assert.Equal(t, []string{"/b/b1/file3.ext1"}, files)
	assert.Equal(t, 1, folders)
}

func TestFind_Extension(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)

	paths := ix.FindFolders([]string{".ext1"}, nil, false)
	assert.Equal(t, []string{"/a/a1", "/b/b1"}, paths)

	files, folders := findAll(ix, []string{".ext1"}, nil)
	assert.Equal(t, []string{
		"/a/a1/file3.ext1",
		"/b/b1/file3.ext1",
		"/b/b1/other.ext1",
	}, files)
	assert.Equal(t, 2, folders)
}

func TestFind_MultipleExtensionsRejected(t *testing.T) {
	t.Parallel()

	err := engine.CheckExtensionTerms([]string{".ext1", ".ext2"})
	assert.Error(t, err)
}

func TestFindFolders_Glob(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	paths := ix.FindFolders([]string{"folder?"}, nil, false)
	assert.Equal(t, []string{"/folders", "/folders/folder1", "/folders/folder2"}, paths)
}

func TestFindFolders_OnlyNegatives(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)

	all := ix.FindFolders(nil, nil, false)
	without := ix.FindFolders(nil, []string{"cases"}, false)

	assert.Contains(t, all, "/cases")
	assert.NotContains(t, without, "/cases")
	for _, p := range without {
		assert.Contains(t, all, p)
	}
}

func TestFindFolders_NegativeKeepsManuallyIncludedPaths(t *testing.T) {
	t.Parallel()

	// /b/b1 carries the manual tag "tag1"; excluding some other tag that
	// also maps to /b/b1 must not drop it when tag1 is searched positively.
	ix := buildFixture(t, nil)
	cfgPaths := ix.FindFolders([]string{"tag1"}, []string{"b1"}, false)
	assert.Contains(t, cfgPaths, "/b/b1")
}

func TestFindFolders_ReturnAll(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	all := ix.FindFolders(nil, nil, true)

	assert.Contains(t, all, "/a")
	assert.Contains(t, all, "/b/b2/b2a")
	assert.Contains(t, all, "/dot.folder")
	// Folded duplicates do not exist on disk and are filtered out.
	for _, p := range all {
		assert.True(t, ix.fs.IsDir(ix.abs(p)), "path %q should exist", p)
	}
}

func TestFind_SkipMarkerPrunesSubtree(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)

	// skipdir carries a skip marker file: its files never surface even
	// though the folder is indexed.
	files, _ := findAll(ix, []string{"skipdir"}, nil)
	assert.Empty(t, files)
}

func TestFind_IgnoreMarkerHidesFiles(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)

	files, _ := findAll(ix, []string{"igndir"}, nil)
	assert.Empty(t, files)
}

func TestFind_TokenizedFolderNames(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)

	// "dot.folder" contributes "dot" and "folder" as tokens.
	paths := ix.FindFolders([]string{"dot"}, nil, false)
	assert.Contains(t, paths, "/dot.folder")
	paths = ix.FindFolders([]string{"folder"}, nil, false)
	assert.Contains(t, paths, "/dot.folder")
}

func TestFind_UnknownTag(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	assert.Empty(t, ix.FindFolders([]string{"no-such-tag"}, nil, false))
}

func TestFindFiles_FromMapping(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root,
		"src/doc.txt",
		"src/other.bin",
		"mirror/readme.md",
	)
	cfg := config.New()
	cfg.Settings.CaseSensitive = true
	cfg.AddTag("/src", "docs", []string{"doc.txt"}, nil, false)
	cfg.Paths["/mirror"] = &config.Markers{From: []string{"/src"}}

	ix := New(root, vfs.OSFS{}, norm.New(true))
	require.NoError(t, ix.Walk(context.Background(), cfg))

	files, skip := ix.FindFiles("/mirror", []string{"docs"}, nil)
	assert.False(t, skip)
	assert.Equal(t, []string{"doc.txt"}, files)
}

func TestFindFiles_NoConstraintsReturnsAll(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	files, skip := ix.FindFiles("/a/a1", nil, nil)
	assert.False(t, skip)
	assert.Equal(t, []string{"file3.ext1", "file3.ext2"}, files)
}

func TestFindFiles_GlobTerm(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	files, _ := ix.FindFiles("/b/b1", []string{"file*"}, nil)
	assert.Equal(t, []string{"file3.ext1"}, files)

	files, _ = ix.FindFiles("/b/b1", []string{"*.ext1"}, nil)
	assert.Equal(t, []string{"file3.ext1", "other.ext1"}, files)
}

func TestFindFiles_NegativeExtension(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	files, _ := ix.FindFiles("/a/a1", nil, []string{".ext2"})
	assert.Equal(t, []string{"file3.ext1"}, files)
}

func TestAllPaths_CachedUnion(t *testing.T) {
	t.Parallel()

	ix := buildFixture(t, nil)
	all := ix.AllPaths()
	assert.Contains(t, all, "/a")
	assert.Contains(t, all, "/a/a1")
	assert.NotContains(t, all, "")

	// Cached: a second call returns the identical slice.
	again := ix.AllPaths()
	assert.Equal(t, &all[0], &again[0])
}

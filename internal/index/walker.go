package index

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/norm"
)

// walkState carries the temporary structures of one crawl: the side arena of
// manual tags, tokens, and extensions, and their folder links. Both are
// merged into the main arena during finalization.
type walkState struct {
	tags      []string
	tagIdx    map[string]int
	tag2paths map[int][]int

	leaves map[int][]int

	gitignore *ignore.GitIgnore
}

// findOrAddTag returns the side-arena index of tag, appending it when new.
func (ws *walkState) findOrAddTag(tag string) int {
	if i, ok := ws.tagIdx[tag]; ok {
		return i
	}
	i := len(ws.tags)
	ws.tags = append(ws.tags, tag)
	ws.tagIdx[tag] = i
	return i
}

// linkTag records folder findex as a match for side-arena tag i, skipping
// exact duplicates.
func (ws *walkState) linkTag(i, findex int) {
	for _, existing := range ws.tag2paths[i] {
		if existing == findex {
			return
		}
	}
	ws.tag2paths[i] = append(ws.tag2paths[i], findex)
}

// Walk rebuilds the index by recursively traversing the folder tree from the
// root, honoring per-folder and global skip/ignore rules, marker files,
// manual tags, from-mappings, name tokenization, and the storage settings.
// A canceled context aborts the traversal and leaves the index in an
// unusable, never-persisted state.
func (ix *Index) Walk(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		cfg = ix.Cfg
	}
	if cfg == nil {
		return fmt.Errorf("no configuration loaded, cannot traverse folder tree")
	}
	ix.Cfg = cfg
	ix.Compression = cfg.Settings.Compression
	ix.logger.Info("walking folder tree",
		"root", ix.Root,
		"case_sensitive", cfg.Settings.CaseSensitive,
		"reduce_storage", cfg.Settings.ReduceStorage,
	)

	ix.Arena = []string{""}
	ix.Parent = []int{0}
	ix.Leaves = nil
	ix.allPaths = nil
	ix.rebuildFirstIdx()

	ws := &walkState{
		tagIdx:    make(map[string]int),
		tag2paths: make(map[int][]int),
		leaves:    make(map[int][]int),
	}
	if cfg.Settings.HonorGitignore {
		if gi, err := ignore.CompileIgnoreFile(ix.abs("/.gitignore")); err == nil {
			ws.gitignore = gi
		} else {
			ix.logger.Debug("no usable .gitignore at root", "error", err)
		}
	}

	if err := ix.walk(ctx, ws, "", 0, nil, 0); err != nil {
		return err
	}
	ix.finalize(ws)
	ix.logger.Info("walk complete", "entries", len(ix.Arena))
	return nil
}

// appendArena adds one entry with the given parent, keeping the
// first-occurrence lookup current, and returns its index.
func (ix *Index) appendArena(name string, parent int) int {
	idx := len(ix.Arena)
	ix.Arena = append(ix.Arena, name)
	ix.Parent = append(ix.Parent, parent)
	if _, ok := ix.firstIdx[name]; !ok {
		ix.firstIdx[name] = idx
	}
	return idx
}

// walk indexes the folder identified by the root-relative path rel (arena
// index findex), then recurses into its children in sorted order. inherited
// holds the arena indices accumulated from ancestor folder names; last is the
// number of trailing inherited entries that belong to this folder itself (1,
// or 2 when a folded duplicate was stored).
func (ix *Index) walk(ctx context.Context, ws *walkState, rel string, findex int, inherited []int, last int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cfg := ix.Cfg
	ignored := false
	base := norm.Basename(rel)

	// Step 1: per-folder configuration.
	marks := cfg.Paths[rel]
	switch {
	case marks != nil && marks.Skip, ix.matchesAny(base, cfg.GlobalSkipd()):
		ix.logger.Debug("skipping subtree", "folder", rel)
		return nil
	case marks != nil && marks.Ignore, ix.n.PathHasGlobalIgnore(rel, cfg.GlobalIgnored()):
		ix.logger.Debug("ignoring folder name", "folder", rel)
		ignored = true
	case marks != nil && len(marks.Tag) > 0:
		for _, line := range marks.Tag {
			name, _, _ := strings.Cut(line, ";")
			ws.linkTag(ws.findOrAddTag(name), findex)
		}
	}
	if marks != nil {
		for _, from := range marks.From {
			other, ok := resolveFrom(rel, from)
			if !ok {
				ix.logger.Warn("from mapping escapes the repository, skipping",
					"folder", rel,
					"from", from,
				)
				continue
			}
			otherMarks := cfg.Paths[other]
			if otherMarks == nil {
				continue
			}
			for _, line := range otherMarks.Tag {
				name, _, _ := strings.Cut(line, ";")
				ws.linkTag(ws.findOrAddTag(name), findex)
			}
		}
	}

	// Step 2: local filesystem probe.
	names, err := ix.fs.ListDir(ix.abs(rel))
	if err != nil {
		ix.logger.Debug("listdir failed, treating as empty", "folder", rel, "error", err)
		names = nil
	}
	var files, dirs []string
	for _, name := range names {
		child := ix.abs(rel) + "/" + name
		switch {
		case ix.fs.IsFile(child):
			files = append(files, name)
		case ix.fs.IsDir(child):
			dirs = append(dirs, name)
		}
	}
	for _, f := range files {
		if f == config.SkipFileName {
			ix.logger.Debug("skipping subtree due to marker file", "folder", rel)
			return nil
		}
	}
	for _, f := range files {
		if f == config.IgnoreFileName {
			ix.logger.Debug("ignoring folder due to marker file", "folder", rel)
			ignored = true
		}
	}
	if !ignored {
		for _, file := range files {
			dot := strings.LastIndex(file, ".")
			if dot < 1 {
				continue // no extension, or a dot-first name
			}
			ext := file[dot:]
			ws.linkTag(ws.findOrAddTag(ext), findex)
			if folded := norm.Fold(ext); folded != ext && !cfg.Settings.ReduceStorage {
				ws.linkTag(ws.findOrAddTag(folded), findex)
			}
		}
	}

	// Step 3: subfolder enumeration in sorted order for deterministic arena
	// indices.
	sort.Strings(dirs)
	propagated := inherited
	if ignored && last > 0 {
		propagated = inherited[:len(inherited)-last]
	}
	for _, sub := range dirs {
		if ws.gitignore != nil {
			subRel := strings.TrimPrefix(rel+"/"+sub, "/")
			if ws.gitignore.MatchesPath(subRel + "/") {
				ix.logger.Debug("skipping gitignored folder", "folder", rel+"/"+sub)
				continue
			}
		}

		idxLiteral := ix.appendArena(sub, findex)
		idxs := []int{idxLiteral}
		added := 1
		if folded := norm.Fold(sub); folded != sub && !cfg.Settings.ReduceStorage {
			idxs = append(idxs, ix.appendArena(folded, findex))
			added = 2
		}

		for _, token := range norm.Tokenize(sub) {
			ws.linkTag(ws.findOrAddTag(token), idxLiteral)
			if folded := norm.Fold(token); folded != token && !cfg.Settings.ReduceStorage {
				ws.linkTag(ws.findOrAddTag(folded), idxLiteral)
			}
		}

		if !ignored {
			for _, tag := range append(append([]int{}, propagated...), idxs...) {
				key := ix.first(ix.Arena[tag])
				ws.leaves[key] = append(ws.leaves[key], idxs...)
			}
		}

		childInherited := append(append([]int{}, propagated...), idxs...)
		if err := ix.walk(ctx, ws, rel+"/"+sub, idxLiteral, childInherited, added); err != nil {
			return err
		}
	}
	return nil
}

// matchesAny reports whether name matches any of the globs under the active
// policy.
func (ix *Index) matchesAny(name string, globs []string) bool {
	for _, g := range globs {
		if ix.n.GlobMatch(name, g) {
			return true
		}
	}
	return false
}

// resolveFrom resolves a from-mapping target to a repo-relative path:
// root-absolute targets are used as-is, relative ones are resolved against
// the current folder. Targets that escape the root are rejected.
func resolveFrom(current, from string) (string, bool) {
	from = strings.ReplaceAll(from, "\\", "/")
	if strings.HasPrefix(from, "/") {
		resolved := path.Clean(from)
		if resolved == "/" {
			return "", true
		}
		return resolved, true
	}
	joined := from
	if base := strings.TrimPrefix(current, "/"); base != "" {
		joined = base + "/" + from
	}
	rel := path.Clean(joined)
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return "/" + rel, true
}

// finalize merges the side arena into the main one, deduplicates every
// tag-to-leaves entry, prunes entries that became empty due to ignore or
// skip, and converts the map into the dense Leaves vector.
func (ix *Index) finalize(ws *walkState) {
	for i, tag := range ws.tags {
		idx := ix.first(tag)
		if idx < 0 {
			idx = ix.appendArena(tag, 0)
		}
		ws.leaves[idx] = append(ws.leaves[idx], ws.tag2paths[i]...)
	}

	ix.Leaves = make([][]int, len(ix.Arena))
	pruned := 0
	for key, leaves := range ws.leaves {
		if len(leaves) == 0 {
			pruned++
			continue
		}
		set := make(map[int]bool, len(leaves))
		for _, leaf := range leaves {
			set[leaf] = true
		}
		row := make([]int, 0, len(set))
		for leaf := range set {
			row = append(row, leaf)
		}
		sort.Ints(row)
		ix.Leaves[key] = row
	}
	if pruned > 0 {
		ix.logger.Debug("pruned childless tags", "count", pruned)
	}
}

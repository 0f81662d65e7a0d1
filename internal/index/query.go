package index

import (
	"sort"
	"strings"

	"github.com/tagsplorer/tagsplorer/internal/norm"
)

// pathSet is a working set of root-relative folder paths.
type pathSet map[string]bool

func newPathSet(paths []string) pathSet {
	s := make(pathSet, len(paths))
	for _, p := range paths {
		s[p] = true
	}
	return s
}

func (s pathSet) intersect(other pathSet) {
	for p := range s {
		if !other[p] {
			delete(s, p)
		}
	}
}

func (s pathSet) subtract(other pathSet) {
	for p := range other {
		delete(s, p)
	}
}

func (s pathSet) sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// filteredAllPaths returns all indexed paths minus those excluded by the
// global ignore/skip lists, a configured skip on any ancestor, or a
// configured ignore on the path itself.
func (ix *Index) filteredAllPaths() []string {
	idirs, sdirs := ix.Cfg.GlobalIgnored(), ix.Cfg.GlobalSkipd()
	var out []string
	for _, p := range ix.AllPaths() {
		if ix.n.PathHasGlobalIgnore(p, idirs) || norm.PathHasGlobalSkip(p, sdirs) {
			continue
		}
		if ix.Cfg.AnyParentSkipped(p) {
			continue
		}
		if m := ix.Cfg.Paths[p]; m != nil && m.Ignore {
			continue
		}
		out = append(out, p)
	}
	return out
}

// termPaths returns the set of paths matching one query term through the
// index: a glob unions the paths of every arena entry whose name matches; an
// extension or plain tag resolves through a direct arena lookup.
func (ix *Index) termPaths(term string, cache map[int]string) pathSet {
	set := make(pathSet)
	switch {
	case norm.IsGlob(term):
		for i, name := range ix.Arena {
			if ix.first(name) != i || len(ix.Leaves[i]) == 0 {
				continue
			}
			if ix.n.GlobMatch(name, term) {
				for _, p := range ix.GetPaths(ix.Leaves[i], cache) {
					set[p] = true
				}
			}
		}
	case strings.Contains(term, "."):
		ext := ix.n.Filenorm(term[strings.Index(term, "."):])
		if i := ix.first(ext); i >= 0 && i < len(ix.Leaves) {
			for _, p := range ix.GetPaths(ix.Leaves[i], cache) {
				set[p] = true
			}
		}
	default:
		if i := ix.first(term); i >= 0 && i < len(ix.Leaves) {
			for _, p := range ix.GetPaths(ix.Leaves[i], cache) {
				set[p] = true
			}
		}
	}
	return set
}

// removeIncluded filters candidates for removal by a negative term: paths
// whose configured tags (or tags mapped in via from) include any positive
// search tag are retained in the result set, so a legitimately included path
// is not dropped because some other file in it carries the excluded tag.
// Returns the paths that remain scheduled for removal.
func (ix *Index) removeIncluded(includedTags []string, excludedPaths pathSet) pathSet {
	included := make(map[string]bool, len(includedTags))
	for _, t := range includedTags {
		included[t] = true
	}
	hasIncludedTag := func(lines []string) bool {
		for _, line := range lines {
			name, _, _ := strings.Cut(line, ";")
			if included[name] {
				return true
			}
		}
		return false
	}

	retain := make(pathSet)
	for p := range excludedPaths {
		conf := ix.Cfg.Paths[p]
		if conf == nil {
			retain[p] = true
			continue
		}
		if len(conf.Tag) > 0 {
			if !hasIncludedTag(conf.Tag) {
				retain[p] = true
			}
			continue
		}
		if len(conf.From) == 0 {
			retain[p] = true
			continue
		}
		retainIt := true
		for _, from := range conf.From {
			other, ok := resolveFrom(p, from)
			if !ok {
				ix.logger.Warn("unresolvable from mapping", "folder", p, "from", from)
				continue
			}
			conf2 := ix.Cfg.Paths[other]
			if conf2 == nil || len(conf2.Tag) == 0 {
				break
			}
			if hasIncludedTag(conf2.Tag) {
				retainIt = false
				break
			}
		}
		if retainIt {
			retain[p] = true
		}
	}
	return retain
}

// FindFolders executes query phase 1: it resolves the positive and negative
// terms against the over-approximating index and returns the candidate
// folder paths. When returnAll is set (or no positive terms are given) the
// starting set is all indexed paths minus globally skipped/ignored ones.
// Results are sorted for deterministic output; phase 2 decides per-folder
// file matches.
func (ix *Index) FindFolders(include, exclude []string, returnAll bool) []string {
	idirs, sdirs := ix.Cfg.GlobalIgnored(), ix.Cfg.GlobalSkipd()
	alls := ix.filteredAllPaths()
	ix.logger.Debug("phase 1",
		"all_paths", len(alls),
		"include", len(include),
		"exclude", len(exclude),
	)
	if returnAll {
		kept := alls[:0:0]
		for _, p := range alls {
			if ix.fs.IsDir(ix.abs(p)) {
				kept = append(kept, p)
			}
		}
		return kept
	}

	cache := make(map[int]string)
	var paths pathSet
	first := true
	if len(include) == 0 {
		paths = newPathSet(alls)
		first = false
	}
	for _, term := range include {
		matched := ix.termPaths(term, cache)
		if first {
			paths = matched
			first = false
		} else {
			paths.intersect(matched)
		}
	}
	for _, term := range exclude {
		// Exclusive globs are deliberately not resolved here: the index is
		// over-approximating, so glob exclusion would drop candidates that
		// phase 2 would have kept. Phase 2 compensates.
		if norm.IsGlob(term) {
			continue
		}
		potential := ix.termPaths(term, cache)
		removals := ix.removeIncluded(include, potential)
		if first {
			paths = newPathSet(alls)
			first = false
		}
		paths.subtract(removals)
	}

	sortedPaths := paths.sorted()
	final := sortedPaths[:0]
	for _, p := range sortedPaths {
		if ix.n.PathHasGlobalIgnore(p, idirs) || norm.PathHasGlobalSkip(p, sdirs) {
			continue
		}
		if ix.Cfg.Settings.CaseSensitive && !ix.fs.IsDir(ix.abs(p)) {
			// Folded duplicates stored alongside literal names do not exist
			// on a case-sensitive filesystem; drop them.
			continue
		}
		final = append(final, p)
	}
	ix.logger.Debug("phase 1 result", "paths", len(final))
	return final
}

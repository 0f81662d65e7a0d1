package index

import (
	"sort"
	"strings"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/norm"
)

// fileSet is a working set of file names within one folder.
type fileSet map[string]bool

func (s fileSet) clone() fileSet {
	out := make(fileSet, len(s))
	for f := range s {
		out[f] = true
	}
	return out
}

func (s fileSet) intersect(other fileSet) {
	for f := range s {
		if !other[f] {
			delete(s, f)
		}
	}
}

func (s fileSet) subtract(other fileSet) {
	for f := range other {
		delete(s, f)
	}
}

func (s fileSet) names() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	return out
}

// listFiles returns the regular files directly inside the root-relative
// folder, treating errors as an empty folder.
func (ix *Index) listFiles(rel string) []string {
	names, err := ix.fs.ListDir(ix.abs(rel))
	if err != nil {
		return nil
	}
	var files []string
	for _, name := range names {
		if ix.fs.IsFile(ix.abs(rel) + "/" + name) {
			files = append(files, name)
		}
	}
	return files
}

// pathConstituents returns the folder's path components, their tokens, and
// the case-normalized forms of both, used to drop positive terms a candidate
// folder already satisfies by its location.
func (ix *Index) pathConstituents(rel string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	steps := norm.SafeSplit(rel, "/")
	for _, step := range steps {
		add(step)
		for _, tok := range norm.Tokenize(step) {
			add(tok)
		}
	}
	for _, s := range append([]string(nil), out...) {
		add(ix.n.Filenorm(s))
	}
	return out
}

// matchTagLines applies the configured tag lines for term to the candidate
// set: each matching line contributes a conjunctive include/exclude filter,
// and the per-line results are unioned (a tag may be defined several times
// with different globs). The folder's root-relative path is needed for
// existence checks on literal file names.
func (ix *Index) matchTagLines(rel string, lines []string, term string, candidates fileSet) fileSet {
	result := make(fileSet)
	for _, line := range lines {
		name, rest, _ := strings.Cut(line, ";")
		if name != term {
			continue
		}
		inc, exc, _ := strings.Cut(rest, ";")

		kept := candidates.clone()
		for _, pattern := range norm.SafeSplit(inc, ",") {
			switch {
			case strings.HasPrefix(pattern, "."):
				for f := range kept {
					if !strings.HasSuffix(f, pattern) {
						delete(kept, f)
					}
				}
			case pattern == "*":
				// keeps everything
			case norm.IsGlob(pattern):
				matched := make(fileSet)
				for _, f := range ix.n.GlobFilter(kept.names(), pattern) {
					matched[f] = true
				}
				kept = matched
			default:
				if kept[pattern] && ix.fs.IsFile(ix.abs(rel)+"/"+pattern) {
					kept = fileSet{pattern: true}
				} else {
					kept = fileSet{}
				}
			}
		}
		for _, pattern := range norm.SafeSplit(exc, ",") {
			switch {
			case strings.HasPrefix(pattern, "."):
				for f := range kept {
					if strings.HasSuffix(f, pattern) {
						delete(kept, f)
					}
				}
			case norm.IsGlob(pattern):
				for _, f := range ix.n.GlobFilter(kept.names(), pattern) {
					delete(kept, f)
				}
			default:
				delete(kept, pattern)
			}
		}
		for f := range kept {
			result[f] = true
		}
	}
	return result
}

// filterTerm reduces candidates by one query term: an extension intersects by
// suffix, a glob by pattern match, a literal file name by identity, and
// anything else resolves through the folder's configured tag lines. A term
// that matches nothing empties the set.
func (ix *Index) filterTerm(rel string, lines []string, term string, all, candidates fileSet) {
	switch {
	case strings.HasPrefix(term, "."):
		matched := make(fileSet)
		for f := range all {
			if strings.HasSuffix(f, term) {
				matched[f] = true
			}
		}
		candidates.intersect(matched)
	case norm.IsGlob(term):
		matched := make(fileSet)
		for _, f := range ix.n.GlobFilter(all.names(), term) {
			matched[f] = true
		}
		candidates.intersect(matched)
	case all[term]:
		candidates.intersect(fileSet{term: true})
	default:
		candidates.intersect(ix.matchTagLines(rel, lines, term, candidates))
	}
}

// FindFiles executes query phase 2 for one candidate folder: it lists the
// folder (and every folder mapped in via from), applies the remaining
// positive and negative terms exactly, and returns the matching file names.
// The skip return is true when the folder carries a skip marker file, so the
// caller can prune the folder's whole subtree from the output.
func (ix *Index) FindFiles(current string, poss, negs []string) (files []string, skip bool) {
	inPath := ix.pathConstituents(current)
	var remaining []string
	for _, p := range poss {
		if len(ix.n.GlobFilter(inPath, p)) == 0 {
			remaining = append(remaining, p)
		}
	}

	conf := ix.Cfg.Paths[current]
	var mapped []string
	if conf != nil {
		for _, from := range conf.From {
			if other, ok := resolveFrom(current, from); ok {
				mapped = append(mapped, other)
			} else {
				ix.logger.Warn("unresolvable from mapping", "folder", current, "from", from)
			}
		}
	}

	found := make(fileSet)
	if len(remaining)+len(negs)+len(mapped) == 0 {
		// No constraints left: every file in the folder matches.
		names := ix.listFiles(current)
		for _, name := range names {
			if name == config.IgnoreFileName {
				return nil, false
			}
		}
		for _, name := range names {
			if name == config.SkipFileName {
				return nil, true
			}
		}
		for _, name := range names {
			found[name] = true
		}
		return sortedNames(found), false
	}

	for i, folder := range append([]string{current}, mapped...) {
		all := make(fileSet)
		for _, name := range ix.listFiles(folder) {
			all[name] = true
		}
		if all[config.IgnoreFileName] {
			continue
		}
		if i == 0 && all[config.SkipFileName] {
			// Skip only applies to the proper folder, not mapped ones; the
			// caller prunes descendants.
			skip = true
			continue
		}

		// Map case-folded names to their literal spellings so folded matches
		// can be reported with their on-disk names.
		caseMapping := make(map[string][]string)
		for f := range all {
			folded := ix.n.Filenorm(f)
			caseMapping[folded] = append(caseMapping[folded], f)
		}
		for folded := range caseMapping {
			all[folded] = true
		}

		var lines []string
		if c := ix.Cfg.Paths[folder]; c != nil {
			lines = c.Tag
		}

		keep := all.clone()
		for _, term := range remaining {
			ix.filterTerm(folder, lines, term, all, keep)
			if len(keep) == 0 {
				break
			}
		}

		remove := make(fileSet)
		if len(negs) > 0 {
			remove = all.clone()
			for _, term := range negs {
				ix.filterTerm(folder, lines, term, all, remove)
				if len(remove) == 0 {
					break
				}
			}
		}

		keep.subtract(remove)
		for f := range keep {
			if literals, ok := caseMapping[f]; ok {
				for _, lit := range literals {
					found[lit] = true
				}
			} else {
				found[f] = true
			}
		}
	}
	return sortedNames(found), skip
}

func sortedNames(s fileSet) []string {
	out := s.names()
	sort.Strings(out)
	return out
}

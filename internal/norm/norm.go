// Package norm provides the case-folding policy and shell-glob matching used
// by every other engine package. A single Normalizer instance is created per
// operation and threaded through configuration loading, index building, and
// querying, so that a policy change (e.g. --ignore-case at query time) takes
// immediate effect everywhere.
package norm

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// tokenSplitter breaks folder names into individual tokens that become
// additional tags. Dots are included so "dot.folder" yields "dot" and
// "folder".
var tokenSplitter = regexp.MustCompile(`[\s\-_.!?#,]+`)

// Fold is the fixed case fold applied to stored duplicate entries and to
// lookups under a case-insensitive policy. Upper-case folding is used because
// it produces fewer collisions for non-ASCII scripts than lower-case folding.
func Fold(s string) string {
	return strings.ToUpper(s)
}

// Normalizer holds the active case-sensitivity policy and exposes the three
// matching primitives the engine is built on: Filenorm, GlobMatch, and
// GlobFilter.
type Normalizer struct {
	caseSensitive bool
}

// New returns a Normalizer with the given case-sensitivity policy.
func New(caseSensitive bool) *Normalizer {
	return &Normalizer{caseSensitive: caseSensitive}
}

// SetCaseSensitive installs either identity matching (true) or case-folded
// matching (false). The change applies to all subsequent calls.
func (n *Normalizer) SetCaseSensitive(flag bool) {
	n.caseSensitive = flag
}

// CaseSensitive reports the active policy.
func (n *Normalizer) CaseSensitive() bool {
	return n.caseSensitive
}

// Filenorm case-normalizes a single name according to the active policy.
func (n *Normalizer) Filenorm(s string) string {
	if n.caseSensitive {
		return s
	}
	return Fold(s)
}

// GlobMatch reports whether name matches the shell glob pattern ('*' matches
// any run, '?' one character). Under a case-insensitive policy both sides are
// folded before matching. Patterns are matched against bare names, never
// paths. An unparsable pattern matches nothing.
func (n *Normalizer) GlobMatch(name, pattern string) bool {
	if !n.caseSensitive {
		name, pattern = Fold(name), Fold(pattern)
	}
	ok, err := doublestar.Match(pattern, name)
	if err != nil {
		return false
	}
	return ok
}

// GlobFilter returns the subset of names matching pattern, preserving input
// order.
func (n *Normalizer) GlobFilter(names []string, pattern string) []string {
	var out []string
	for _, name := range names {
		if n.GlobMatch(name, pattern) {
			out = append(out, name)
		}
	}
	return out
}

// IsGlob reports whether s contains shell glob metacharacters. Square-bracket
// classes are not recognized.
func IsGlob(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// Tokenize splits a folder name into its distinct constituent tokens,
// excluding empty strings and the full name itself. Order of first occurrence
// is preserved.
func Tokenize(name string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokenSplitter.Split(name, -1) {
		if tok == "" || tok == name || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// SafeSplit splits s on sep, trimming whitespace and dropping empty
// substrings.
func SafeSplit(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Basename returns the last slash-separated component of path, or path itself
// when it contains no slash.
func Basename(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ConstituentInPath reports whether name appears as a complete component of
// the slash-separated path.
func ConstituentInPath(path, name string) bool {
	return strings.HasSuffix(path, "/"+name) || strings.Contains(path, "/"+name+"/")
}

// PathHasGlobalSkip reports whether any component of path matches one of the
// global skip names. Skip names are literal folder names, not globs.
func PathHasGlobalSkip(path string, skips []string) bool {
	for _, skip := range skips {
		if ConstituentInPath(path, skip) {
			return true
		}
	}
	return false
}

// PathHasGlobalIgnore reports whether the basename of path matches any of the
// global ignore globs under the Normalizer's policy. The empty path (the
// root) matches only an empty ignore entry.
func (n *Normalizer) PathHasGlobalIgnore(path string, ignores []string) bool {
	if path == "" {
		for _, ig := range ignores {
			if ig == "" {
				return true
			}
		}
		return false
	}
	base := Basename(path)
	for _, ig := range ignores {
		if n.GlobMatch(base, ig) {
			return true
		}
	}
	return false
}

package engine

import (
	"fmt"
	"strings"

	"github.com/tagsplorer/tagsplorer/internal/norm"
)

// SplitTags flattens a list of raw arguments into individual tags, splitting
// comma-separated entries and discarding empties.
func SplitTags(args []string) []string {
	var out []string
	for _, arg := range args {
		if strings.Contains(arg, ",") {
			out = append(out, norm.SafeSplit(arg, ",")...)
			continue
		}
		arg = strings.TrimSpace(arg)
		if arg != "" {
			out = append(out, arg)
		}
	}
	return out
}

// SplitByPrefix partitions tags into positive and negative terms. A leading
// '-' marks a term as negative; leading '+' and '-' markers are stripped from
// the results.
func SplitByPrefix(tags []string) (poss, negs []string) {
	for _, tag := range tags {
		if strings.HasPrefix(tag, "-") {
			negs = append(negs, strings.TrimLeft(tag, "-"))
		} else {
			poss = append(poss, strings.TrimLeft(tag, "+"))
		}
	}
	return poss, negs
}

// NormalizeTerms applies the Normalizer's case policy to every term.
func NormalizeTerms(n *norm.Normalizer, terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = n.Filenorm(t)
	}
	return out
}

// CheckExtensionTerms rejects queries that name more than one positive file
// extension. Such a query can never match anything, so it is refused up front
// instead of returning an empty result.
func CheckExtensionTerms(poss []string) error {
	var exts []string
	for _, t := range poss {
		if strings.HasPrefix(t, ".") {
			exts = append(exts, t)
		}
	}
	if len(exts) > 1 {
		return NewError(fmt.Sprintf("cannot match anything if more than one file extension is specified (%s)",
			strings.Join(exts, ",")), nil)
	}
	return nil
}

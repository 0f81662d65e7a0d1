package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tagsplorer/tagsplorer/internal/engine"
	"github.com/tagsplorer/tagsplorer/internal/norm"
)

var (
	findIncludes []string
	findExcludes []string
)

var findCmd = &cobra.Command{
	Use:   "find [tags...]",
	Short: "Find files and folders by boolean tag combinations",
	Long: `Search the index for files matching all positive tags while excluding the
negative ones. A term is a plain tag, a file extension (leading dot), or a
shell glob. Prefix a term with '-' (after a '--' separator) or pass it via
--exclude to negate it.`,
	RunE: runFind,
}

func init() {
	bindFindFlags(findCmd)
	rootCmd.AddCommand(findCmd)
}

// bindFindFlags registers the search flags. They are bound on both the find
// subcommand and the root command, which delegates to find when given bare
// search terms.
func bindFindFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&findIncludes, "search", "s", nil, "tag that must match (repeatable)")
	cmd.Flags().StringArrayVarP(&findExcludes, "exclude", "x", nil, "tag that must not match (repeatable)")
}

func runFind(cmd *cobra.Command, args []string) error {
	poss, negs := engine.SplitByPrefix(engine.SplitTags(args))
	incs, incNegs := engine.SplitByPrefix(engine.SplitTags(findIncludes))
	poss = append(poss, incs...)
	negs = append(negs, incNegs...)
	for _, x := range engine.SplitTags(findExcludes) {
		negs = append(negs, strings.TrimLeft(x, "-"))
	}

	idx, _, _, err := openIndex(cmd.Context())
	if err != nil {
		return err
	}
	n := idx.Normalizer()
	poss = engine.NormalizeTerms(n, poss)
	negs = engine.NormalizeTerms(n, negs)
	if err := engine.CheckExtensionTerms(poss); err != nil {
		return err
	}

	paths := idx.FindFolders(poss, negs, false)
	if len(paths) == 0 && anyGlobOrExtension(poss, negs) {
		// A glob or extension query that resolved to nothing through the
		// index may still match on disk: fall back to scanning all paths.
		paths = idx.FindFolders(nil, nil, true)
	}

	out := cmd.OutOrStdout()
	prefix := idx.Root
	if flagValues.Relative {
		prefix = ""
	}

	if flagValues.DirsOnly {
		for _, p := range poss {
			if !norm.IsGlob(p) {
				continue
			}
			paths = keepWhere(paths, func(path string) bool { return n.GlobMatch(norm.Basename(path), p) })
		}
		for _, x := range negs {
			if !norm.IsGlob(x) {
				continue
			}
			paths = keepWhere(paths, func(path string) bool { return !n.GlobMatch(norm.Basename(path), x) })
		}
		for _, path := range paths {
			fmt.Fprintln(out, prefix+path)
		}
		return nil
	}

	fileCount, folderCount := 0, 0
	var skipped []string
	for _, path := range paths {
		if underSkipped(path, skipped) {
			continue
		}
		files, skip := idx.FindFiles(path, poss, negs)
		if skip {
			skipped = append(skipped, path)
			continue
		}
		if len(files) == 0 {
			continue
		}
		folderCount++
		for _, file := range files {
			fmt.Fprintln(out, prefix+path+"/"+file)
			fileCount++
		}
	}
	if !flagValues.Quiet {
		cmd.PrintErrf("found %d files in %d folders\n", fileCount, folderCount)
	}
	return nil
}

// anyGlobOrExtension reports whether any term is a glob or names an
// extension.
func anyGlobOrExtension(poss, negs []string) bool {
	for _, t := range append(append([]string{}, poss...), negs...) {
		if norm.IsGlob(t) || strings.Contains(t, ".") {
			return true
		}
	}
	return false
}

// keepWhere filters paths in place by pred.
func keepWhere(paths []string, pred func(string) bool) []string {
	kept := paths[:0]
	for _, p := range paths {
		if pred(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

// underSkipped reports whether path lies inside any folder whose skip marker
// was discovered earlier in the iteration.
func underSkipped(path string, skipped []string) bool {
	for _, s := range skipped {
		if s == "" {
			if path == "" {
				return true
			}
			continue
		}
		if path == s || strings.HasPrefix(path, s+"/") {
			return true
		}
	}
	return false
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/engine"
	"github.com/tagsplorer/tagsplorer/internal/norm"
	"github.com/tagsplorer/tagsplorer/internal/vfs"
)

var (
	tagNames   string
	untagNames string
)

var tagCmd = &cobra.Command{
	Use:   "tag -t tag[,tag...] path/patterns...",
	Short: "Assign tags to files or globs in a folder",
	Long: `Assign one or more tags to file patterns inside a folder. Each argument is a
folder path followed by a comma-separated pattern list; patterns prefixed with
'-' become exclusions. Example:

  tp tag -t music,long /media/songs/'*.flac,-draft*'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTag,
}

var untagCmd = &cobra.Command{
	Use:   "untag -t tag[,tag...] path/patterns...",
	Short: "Remove tag assignments from files or globs in a folder",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUntag,
}

func init() {
	tagCmd.Flags().StringVarP(&tagNames, "tag", "t", "", "tag name(s) to assign (comma-separated)")
	tagCmd.MarkFlagRequired("tag")
	untagCmd.Flags().StringVarP(&untagNames, "tag", "t", "", "tag name(s) to remove (comma-separated)")
	untagCmd.MarkFlagRequired("tag")
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(untagCmd)
}

func runTag(cmd *cobra.Command, args []string) error {
	return mutateTags(cmd, tagNames, args, true)
}

func runUntag(cmd *cobra.Command, args []string) error {
	return mutateTags(cmd, untagNames, args, false)
}

// mutateTags implements both the tag and untag commands; add selects which
// configuration mutation is applied.
func mutateTags(cmd *cobra.Command, names string, args []string, add bool) error {
	poss, negs := engine.SplitByPrefix(norm.SafeSplit(names, ","))
	if len(poss)+len(negs) == 0 {
		return engine.NewError("no tag(s) provided", nil)
	}
	for _, p := range poss {
		for _, n := range negs {
			if p == n {
				return engine.NewError(fmt.Sprintf("tag %q appears in both inclusive and exclusive form", p), nil)
			}
		}
	}

	root, indexDir, err := config.ResolveRoot(flagValues)
	if err != nil {
		return err
	}
	cfg := config.New()
	if _, err := cfg.Load(indexDir, 0); err != nil {
		return err
	}
	fs := filesystem(cfg)

	modified := false
	for _, arg := range args {
		rel, incs, excs, err := splitPathPatterns(root, arg)
		if err != nil {
			cmd.PrintErrf("%v; skipping %q\n", err, arg)
			continue
		}
		if constituent := tagInPath(rel, append(poss, negs...)); constituent != "" {
			cmd.PrintErrf("tag %q must not match a path constituent of %q; skipping\n", constituent, rel)
			continue
		}

		incs, excs = checkPatterns(cmd, fs, root, rel, incs, excs)
		if len(incs)+len(excs) == 0 {
			continue
		}
		for _, tag := range poss {
			if add {
				modified = cfg.AddTag(rel, tag, incs, excs, flagValues.Force) || modified
			} else {
				modified = cfg.DelTag(rel, tag, incs, excs) || modified
			}
		}
	}

	if !modified {
		return engine.NewError("nothing was changed", nil)
	}
	if flagValues.Simulate {
		return nil
	}
	return cfg.Store(indexDir, 0)
}

// splitPathPatterns splits one "folder/patterns" argument into the
// root-relative folder path and its inclusive/exclusive pattern lists. An
// argument without a slash applies to the working directory.
func splitPathPatterns(root, arg string) (rel string, incs, excs []string, err error) {
	dir, patterns := "", arg
	if i := strings.LastIndex(arg, "/"); i >= 0 {
		dir, patterns = arg[:i], arg[i+1:]
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return "", nil, nil, fmt.Errorf("determine working directory: %w", wdErr)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, nil, fmt.Errorf("abs path for %s: %w", dir, err)
	}
	abs = filepath.ToSlash(abs)
	if abs != root && !strings.HasPrefix(abs, root+"/") {
		return "", nil, nil, fmt.Errorf("path %q is outside the indexed folder tree %q", abs, root)
	}
	if _, statErr := os.Stat(abs); statErr != nil {
		return "", nil, nil, fmt.Errorf("path %q does not exist", abs)
	}
	rel = strings.TrimPrefix(abs, root)
	incs, excs = engine.SplitByPrefix(norm.SafeSplit(patterns, ","))
	return rel, incs, excs, nil
}

// tagInPath returns the first tag that equals a path constituent, or "".
func tagInPath(rel string, tags []string) string {
	constituents := norm.SafeSplit(rel, "/")
	for _, tag := range tags {
		for _, c := range constituents {
			if tag == c {
				return tag
			}
		}
	}
	return ""
}

// checkPatterns verifies each pattern matches at least one existing file in
// the folder. Non-matching patterns are skipped in strict mode (the default)
// and kept with a warning under --force. Pattern case is preserved as given.
func checkPatterns(cmd *cobra.Command, fs vfs.FS, root, rel string, incs, excs []string) (okIncs, okExcs []string) {
	names, err := fs.ListDir(root + rel)
	if err != nil {
		names = nil
	}
	caseExact := norm.New(true)
	check := func(patterns []string) []string {
		var kept []string
		for _, p := range patterns {
			if p == "" {
				cmd.PrintErrf("empty tag pattern for %q, skipping\n", rel)
				continue
			}
			exists := false
			switch {
			case strings.HasPrefix(p, "."):
				for _, f := range names {
					if strings.HasSuffix(f, p) {
						exists = true
						break
					}
				}
			case p == "*":
				exists = len(names) > 0
			case norm.IsGlob(p):
				exists = len(caseExact.GlobFilter(names, p)) > 0
			default:
				for _, f := range names {
					if f == p {
						exists = true
						break
					}
				}
			}
			if !exists {
				if !flagValues.Force {
					cmd.PrintErrf("no file matches %q in %q, skipping (use --force to add anyway)\n", p, rel)
					continue
				}
				cmd.PrintErrf("no file matches %q in %q, adding anyway\n", p, rel)
			}
			kept = append(kept, p)
		}
		return kept
	}
	return check(incs), check(excs)
}

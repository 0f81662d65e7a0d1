package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// maxSearchDepth bounds the upward search for a repository root, preventing
// runaway traversal on broken directory chains.
const maxSearchDepth = 64

// DiscoverRoot walks up the directory tree from startDir looking for a
// .tagsplorer.cfg file. It returns the absolute path of the first directory
// containing one, or an empty string when none is found before the
// filesystem root or the depth bound.
func DiscoverRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("abs path for %s: %w", startDir, err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(abs); evalErr == nil {
		abs = resolved
	}

	dir := abs
	for depth := 0; depth < maxSearchDepth; depth++ {
		if _, statErr := os.Stat(filepath.Join(dir, ConfigName)); statErr == nil {
			slog.Debug("discovered repository root", "dir", dir, "depth", depth)
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
	return "", nil
}

// ResolveRoot determines the repository root and index folders from the
// parsed flags: an explicit --root wins, then TP_ROOT (applied during flag
// validation), then the nearest ancestor containing a configuration, then
// the working directory. The index folder follows --index when given,
// otherwise it is the root itself.
func ResolveRoot(fv *FlagValues) (root, index string, err error) {
	folder := fv.Root
	if folder == "" {
		folder, err = DiscoverRoot(".")
		if err != nil {
			return "", "", err
		}
	}
	if folder == "" {
		folder = "."
	}
	root, err = filepath.Abs(folder)
	if err != nil {
		return "", "", fmt.Errorf("abs path for %s: %w", folder, err)
	}
	index = root
	if fv.Index != "" {
		index, err = filepath.Abs(fv.Index)
		if err != nil {
			return "", "", fmt.Errorf("abs path for %s: %w", fv.Index, err)
		}
	}
	slog.Debug("resolved repository folders", "root", root, "index", index)
	return root, index, nil
}

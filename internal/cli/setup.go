package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/engine"
	"github.com/tagsplorer/tagsplorer/internal/index"
)

// buildIndex loads the configuration from indexDir, crawls the tree under
// root, and stores the fresh index unless --simulate is active.
func buildIndex(ctx context.Context, root, indexDir string) (*index.Index, error) {
	cfg := config.New()
	if _, err := cfg.Load(indexDir, 0); err != nil {
		return nil, err
	}
	n := newNormalizer(cfg)
	idx := index.New(root, filesystem(cfg), n)
	if err := idx.Walk(ctx, cfg); err != nil {
		return nil, err
	}
	if flagValues.Simulate {
		return idx, nil
	}
	if err := idx.Store(indexDir); err != nil {
		return nil, err
	}
	return idx, nil
}

// openIndex returns a ready-to-query index: the stored one when current, a
// transparently rebuilt one when the configuration changed, or a fresh crawl
// when no index file exists yet. --keep-index turns both rebuild paths into
// an error instead.
func openIndex(ctx context.Context) (*index.Index, string, string, error) {
	root, indexDir, err := config.ResolveRoot(flagValues)
	if err != nil {
		return nil, "", "", err
	}
	indexFile := filepath.Join(indexDir, config.IndexName)
	if _, err := os.Stat(indexFile); err != nil {
		if flagValues.KeepIndex {
			return nil, "", "", engine.NewStaleError(
				fmt.Sprintf("no index file at %s and --keep-index prevents crawling", indexFile))
		}
		idx, err := buildIndex(ctx, root, indexDir)
		if err != nil {
			return nil, "", "", err
		}
		return idx, root, indexDir, nil
	}

	cfg := config.New()
	idx := index.New(root, filesystem(cfg), newNormalizer(cfg))
	if err := idx.Load(ctx, indexDir, index.LoadOptions{KeepIndex: flagValues.KeepIndex}); err != nil {
		return nil, "", "", err
	}
	// The embedded configuration decides the effective filesystem behavior.
	idx.SetFS(filesystem(idx.Cfg))
	if flagValues.IgnoreCase {
		idx.Normalizer().SetCaseSensitive(false)
	}
	return idx, root, indexDir, nil
}

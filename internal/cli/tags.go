package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tagsplorer/tagsplorer/internal/config"
)

var tagsCmd = &cobra.Command{
	Use:   "tags [folder...]",
	Short: "List the tags defined for a folder",
	Long: `Show the tags configured for the given folders (the working directory when
none are given), together with the tags derived implicitly from each folder's
path constituents and their tokens.`,
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	root, indexDir, err := config.ResolveRoot(flagValues)
	if err != nil {
		return err
	}
	cfg := config.New()
	if _, err := cfg.Load(indexDir, 0); err != nil {
		return err
	}
	n := newNormalizer(cfg)

	folders := args
	if len(folders) == 0 {
		folders = []string{"."}
	}
	out := cmd.OutOrStdout()
	for _, folder := range folders {
		abs, err := filepath.Abs(folder)
		if err != nil {
			return fmt.Errorf("abs path for %s: %w", folder, err)
		}
		abs = filepath.ToSlash(abs)
		if abs != root && !strings.HasPrefix(abs, root+"/") {
			cmd.PrintErrf("path %q is outside the indexed folder tree %q, skipping\n", abs, root)
			continue
		}
		rel := strings.TrimPrefix(abs, root)

		derived, entries := cfg.ShowTags(rel, n)
		name := rel
		if name == "" {
			name = "/"
		}
		fmt.Fprintf(out, "%s\n", name)
		if len(derived) > 0 {
			fmt.Fprintf(out, "  derived from path: %s\n", strings.Join(derived, ","))
		}
		for _, entry := range entries {
			fmt.Fprintf(out, "  %s\n", entry)
		}
	}
	return nil
}

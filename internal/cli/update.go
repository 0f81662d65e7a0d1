package cli

import (
	"github.com/spf13/cobra"

	"github.com/tagsplorer/tagsplorer/internal/config"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Crawl the folder tree and (re)create the index",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	root, indexDir, err := config.ResolveRoot(flagValues)
	if err != nil {
		return err
	}
	_, err = buildIndex(cmd.Context(), root, indexDir)
	return err
}

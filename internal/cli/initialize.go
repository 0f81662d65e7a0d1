package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tagsplorer/tagsplorer/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty configuration, marking the repository root",
	Long: `Write an empty, timestamped configuration file into the root folder,
designating it as a repository root. Use --force to overwrite an existing
configuration.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if flagValues.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		flagValues.Root = wd
	}
	_, indexDir, err := config.ResolveRoot(flagValues)
	if err != nil {
		return err
	}

	cfgFile := filepath.Join(indexDir, config.ConfigName)
	if _, err := os.Stat(cfgFile); err == nil && !flagValues.Force {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite", cfgFile)
	}
	if flagValues.Simulate {
		fmt.Fprintf(cmd.OutOrStdout(), "would create configuration at %s\n", cfgFile)
		return nil
	}
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return fmt.Errorf("create index folder %s: %w", indexDir, err)
	}
	cfg := config.NewWithDefaults()
	if err := cfg.Store(indexDir, 0); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created configuration at %s\n", cfgFile)
	return nil
}

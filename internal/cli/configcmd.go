package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/engine"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or modify global engine settings",
	Long: `Get, set, unset, or reset the global engine settings stored in the
configuration file (case_sensitive, reduce_storage, compression,
honor_gitignore). Changing a setting bumps the configuration timestamp, so
the index is rebuilt on the next query.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get key",
	Short: "Show the effective value of one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConfig(cmd, false, func(cfg *config.Config) error {
			value, err := cfg.GetSetting(args[0])
			if err != nil {
				return engine.NewError(err.Error(), nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", strings.ToLower(args[0]), value)
			return nil
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set key=value",
	Short: "Set one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value, ok := strings.Cut(args[0], "=")
		if !ok {
			return engine.NewError("setting must be specified as key=value", nil)
		}
		return withConfig(cmd, true, func(cfg *config.Config) error {
			if err := cfg.SetSetting(key, value); err != nil {
				return engine.NewError(err.Error(), nil)
			}
			return nil
		})
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset key",
	Short: "Remove one setting, reverting it to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConfig(cmd, true, func(cfg *config.Config) error {
			found, err := cfg.UnsetSetting(args[0])
			if err != nil {
				return engine.NewError(err.Error(), nil)
			}
			if !found {
				cmd.PrintErrln("setting not found, nothing to do")
			}
			return nil
		})
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove all settings, reverting every one to its default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConfig(cmd, true, func(cfg *config.Config) error {
			cfg.ResetSettings()
			return nil
		})
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configUnsetCmd, configResetCmd)
	rootCmd.AddCommand(configCmd)
}

// withConfig loads the configuration, runs fn on it, and stores it back when
// store is set (unless --simulate is active).
func withConfig(cmd *cobra.Command, store bool, fn func(*config.Config) error) error {
	_, indexDir, err := config.ResolveRoot(flagValues)
	if err != nil {
		return err
	}
	cfg := config.New()
	if _, err := cfg.Load(indexDir, 0); err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	if !store || flagValues.Simulate {
		return nil
	}
	return cfg.Store(indexDir, 0)
}

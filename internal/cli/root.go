// Package cli implements the Cobra command hierarchy for the tp tool. The
// root command is the entry point for all subcommands and handles the
// cross-cutting concerns: logging initialization, flag validation, and
// mapping errors to process exit codes.
package cli

import (
	"errors"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/engine"
	"github.com/tagsplorer/tagsplorer/internal/norm"
	"github.com/tagsplorer/tagsplorer/internal/vfs"
)

// flagValues holds the parsed global flag values, populated by
// config.BindFlags during command initialization and validated in
// PersistentPreRunE.
var flagValues *config.FlagValues

var rootCmd = &cobra.Command{
	Use:   "tp",
	Short: "Tag-based virtual views over a directory tree.",
	Long: `tp augments an ordinary directory tree with a virtual tagging layer.

Every folder name acts as an implicit tag; additional tags, file globs, and
cross-folder mappings live in a text configuration at the root. A compressed
on-disk index accelerates boolean tag queries and is rebuilt automatically
whenever the configuration changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateFlags(flagValues, cmd); err != nil {
			return err
		}

		level := config.ResolveLogLevel(flagValues.Verbose, flagValues.Quiet)
		format := config.ResolveLogFormat()
		config.SetupLogging(level, format)

		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
	// With no subcommand, positional arguments are search terms.
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(findIncludes)+len(findExcludes) == 0 {
			return cmd.Help()
		}
		return runFind(cmd, args)
	},
}

func init() {
	flagValues = config.BindFlags(rootCmd)
	bindFindFlags(rootCmd)
}

// Execute runs the root command and returns the process exit code. Errors
// carrying an *engine.Error contribute their Code; any other error maps to
// engine.ExitError.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return extractExitCode(err)
	}
	return engine.ExitSuccess
}

// extractExitCode determines the process exit code from an error.
func extractExitCode(err error) int {
	if err == nil {
		return engine.ExitSuccess
	}
	var engineErr *engine.Error
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	return engine.ExitError
}

// RootCmd returns the root cobra.Command for testing and subcommand
// registration.
func RootCmd() *cobra.Command {
	return rootCmd
}

// newNormalizer builds a Normalizer for the given configuration, honoring a
// --ignore-case override.
func newNormalizer(cfg *config.Config) *norm.Normalizer {
	sensitive := cfg.Settings.CaseSensitive
	if flagValues.IgnoreCase {
		sensitive = false
	}
	return norm.New(sensitive)
}

// filesystem returns the FS implementation matching the configuration: the
// pass-through FS, or the case-probing wrapper when case-insensitive behavior
// is wanted on a filesystem that distinguishes letter case.
func filesystem(cfg *config.Config) vfs.FS {
	fs := vfs.FS(vfs.OSFS{})
	if !cfg.Settings.CaseSensitive && runtime.GOOS != "windows" {
		fs = vfs.NewCaseProbingFS(fs, norm.Fold)
	}
	return fs
}

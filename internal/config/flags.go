package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// FlagValues collects the parsed global flag values shared by every
// subcommand. The struct is populated by BindFlags and validated in the root
// command's PersistentPreRunE.
type FlagValues struct {
	Root       string // repository root folder
	Index      string // alternative index/configuration folder
	KeepIndex  bool   // never rebuild the index, even when stale
	IgnoreCase bool   // force case-insensitive search
	Simulate   bool   // compute mutations but write nothing
	Force      bool   // relax sanity checks on tag operations
	DirsOnly   bool   // find: print matching folders instead of files
	Relative   bool   // find: print root-relative paths
	Verbose    bool
	Quiet      bool
}

// BindFlags registers the global persistent flags on cmd and returns the
// FlagValues that will hold them after parsing.
func BindFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&fv.Root, "root", "r", "", "repository root folder (default: discovered from the working directory)")
	pf.StringVarP(&fv.Index, "index", "i", "", "alternative index folder, if separate from the root")
	pf.BoolVarP(&fv.KeepIndex, "keep-index", "k", false, "don't update the index, even if the configuration changed")
	pf.BoolVarP(&fv.IgnoreCase, "ignore-case", "c", false, "search case-insensitively, overriding the indexed setting")
	pf.BoolVarP(&fv.Simulate, "simulate", "n", false, "don't write anything")
	pf.BoolVarP(&fv.Force, "force", "f", false, "force operation, relax safety checks")
	pf.BoolVar(&fv.DirsOnly, "dirs", false, "only print folders that contain matches")
	pf.BoolVar(&fv.Relative, "relative", false, "print root-relative paths instead of absolute ones")
	pf.BoolVarP(&fv.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&fv.Quiet, "quiet", "q", false, "only print results and errors")

	return fv
}

// ValidateFlags checks the parsed values for correctness and applies
// environment fallbacks (TP_ROOT). Call from PersistentPreRunE.
func ValidateFlags(fv *FlagValues, cmd *cobra.Command) error {
	if fv.Root == "" {
		if env := os.Getenv("TP_ROOT"); env != "" && !cmd.Flags().Changed("root") {
			fv.Root = env
		}
	}
	if fv.Index != "" && fv.Root == "" {
		return fmt.Errorf("cannot specify an index folder (-i) without a root folder (-r)")
	}
	return nil
}

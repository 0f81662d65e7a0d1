package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show configuration and index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	idx, _, _, err := openIndex(cmd.Context())
	if err != nil {
		return err
	}

	cfg := idx.Cfg
	entries := 0
	for _, m := range cfg.Paths {
		entries += len(m.Tag) + len(m.From) + len(m.Skipd) + len(m.Ignored) + len(m.Global)
		if m.Skip {
			entries++
		}
		if m.Ignore {
			entries++
		}
	}
	tagged := 0
	for _, row := range idx.Leaves {
		if len(row) > 0 {
			tagged++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "configuration:")
	fmt.Fprintf(out, "  configured paths:   %d\n", len(cfg.Paths))
	fmt.Fprintf(out, "  marker entries:     %d\n", entries)
	fmt.Fprintln(out, "index:")
	fmt.Fprintf(out, "  root folder:        %s\n", idx.Root)
	fmt.Fprintf(out, "  timestamp:          %s (%d)\n",
		time.UnixMilli(idx.Timestamp).Format("2006-01-02@15:04"), idx.Timestamp)
	fmt.Fprintf(out, "  compression level:  %d\n", idx.Compression)
	fmt.Fprintf(out, "  arena entries:      %d\n", len(idx.Arena))
	fmt.Fprintf(out, "  entries with leaves: %d\n", tagged)
	return nil
}

// Command fepd is the Frigate Event Processor daemon, structured as a cobra
// CLI following zulandar-railyard's cmd/ry layout (cmd/ry/main.go): one
// root command, subcommands in their own files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fepd",
		Short: "fepd - Frigate Event Processor daemon",
		Long:  "fepd filters Frigate NVR events through a cooldown- and zone-aware rule set before republishing alerts.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newValidateConfigCmd())
	cmd.AddCommand(newReloadCmd())
	cmd.AddCommand(newHashTokenCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fepd %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

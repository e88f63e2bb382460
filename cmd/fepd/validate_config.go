package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/technosupport/fep/internal/config"
	"github.com/technosupport/fep/internal/platform/paths"
)

func newValidateConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Parse and validate a fepd config file without starting the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := paths.ResolveConfigPath(configPath)
			cfg, err := config.Load(resolved)
			if err != nil {
				return fmt.Errorf("%s: %w", resolved, err)
			}
			rs := cfg.RuleSet()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (listen=%s alert=%s cameras=%d)\n",
				resolved, cfg.ListenTopic, cfg.AlertTopic, len(rs.Cameras))
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: "+paths.DefaultConfigRoot+"/fep.yaml)")
	return cmd
}

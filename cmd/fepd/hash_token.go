package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/technosupport/fep/internal/adminauth"
)

func newHashTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Hash an admin bearer token for use as admin.token_hash in config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), "token: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimRight(line, "\r\n")
			}
			if token == "" {
				return fmt.Errorf("token must not be empty")
			}

			hash, err := adminauth.HashToken(token)
			if err != nil {
				return fmt.Errorf("hash token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	return cmd
}

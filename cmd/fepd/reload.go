package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newReloadCmd() *cobra.Command {
	var adminAddr string
	var token string

	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Ask a running fepd to re-read its config and hot-swap the rule set",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := "http://" + adminAddr + "/debug/reload"
			req, err := http.NewRequest(http.MethodPost, url, nil)
			if err != nil {
				return err
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("reach %s: %w", url, err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("reload rejected (%s): %s", resp.Status, body)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reloaded")
			return nil
		},
	}
	cmd.Flags().StringVar(&adminAddr, "admin-addr", "127.0.0.1:8080", "address of the running fepd admin API")
	cmd.Flags().StringVar(&token, "token", "", "admin bearer token, if the admin API requires one")
	return cmd
}

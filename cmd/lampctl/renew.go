package main

import (
	"fmt"

	"github.com/avelichko/lampctl/internal/cert"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/spf13/cobra"
)

func newRenewCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "renew",
		Short: "Renew the TLS certificate",
		Long:  "Runs certbot renew and, when the certificate material changed, reinstalls it and restarts the web container.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Domain == "" {
				return fmt.Errorf("renew: no domain configured")
			}

			changed, err := cert.Renew(cmd.Context(), newRunner(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintln(cmd.OutOrStdout(), "Certificate renewed, web container restarted")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Certificate unchanged")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	return cmd
}

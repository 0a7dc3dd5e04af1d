package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/avelichko/lampctl/internal/cert"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/sched"
	"github.com/avelichko/lampctl/internal/stack"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show container and certificate status",
		Long:  "Displays the state of the stack containers, the TLS certificate and the next scheduled backup run. Use --watch for auto-refresh.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusLoop(cmd, configPath, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	cmd.Flags().BoolVar(&watch, "watch", false, "auto-refresh every 5 seconds")
	return cmd
}

func runStatusLoop(cmd *cobra.Command, configPath string, watch bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	r := newRunner()
	out := cmd.OutOrStdout()

	for {
		if watch {
			// Clear screen.
			fmt.Fprint(out, "\033[2J\033[H")
		}

		names := []string{cfg.MySQL.Container, cfg.Web.Container, cfg.Admin.Container}
		statuses, err := stack.Status(cmd.Context(), r, names)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CONTAINER\tSTATUS")
		for _, s := range statuses {
			fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Status)
		}
		w.Flush()

		if cfg.Domain != "" {
			if cert.Installed(cfg.Web.CertDir) {
				fmt.Fprintf(out, "\nTLS: certificate installed for %s\n", cfg.Domain)
			} else {
				fmt.Fprintf(out, "\nTLS: no certificate installed for %s\n", cfg.Domain)
			}
		}

		if next, err := sched.Next(cfg.Backup.Schedule, time.Now()); err == nil {
			fmt.Fprintf(out, "Next backup: %s\n", next.Format(time.RFC3339))
		}

		if !watch {
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(5 * time.Second):
		}
	}
}

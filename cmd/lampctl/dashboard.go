package main

import (
	"os/signal"
	"syscall"

	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/dashboard"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the status dashboard",
		Long:  "Serves a read-only web page showing container status and backup history, with JSON endpoints under /api.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Dashboard.Port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return dashboard.Start(ctx, dashboard.StartOpts{
				Config:  cfg,
				Runner:  newRunner(),
				Catalog: openCatalog(cfg),
				Port:    port,
				Out:     cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (defaults to dashboard.port from config)")
	return cmd
}

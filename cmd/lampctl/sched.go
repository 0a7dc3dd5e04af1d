package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/avelichko/lampctl/internal/backup"
	"github.com/avelichko/lampctl/internal/cert"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/notify"
	"github.com/avelichko/lampctl/internal/sched"
	"github.com/spf13/cobra"
)

func newSchedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sched",
		Short: "Run the backup scheduler in the foreground",
		Long:  "Runs backups and certificate renewals on their configured schedules without relying on cron. Intended for use under a process supervisor.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runSched(cmd.Context(), cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	return cmd
}

func runSched(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newRunner()
	out := cmd.OutOrStdout()
	cat := openCatalog(cfg)
	notifier := newNotifier(cfg)

	jobs := []sched.Job{
		{
			Name: "backup",
			Spec: cfg.Backup.Schedule,
			Fn: func() {
				dir, err := backup.Run(ctx, r, cfg, cat, out)
				if err != nil {
					log.Printf("sched: backup: %v", err)
					notifier.Notify(notify.Failure("backup", err))
					return
				}
				notifier.Notify(notify.Success("backup", dir))
			},
		},
	}

	if cfg.Domain != "" {
		jobs = append(jobs, sched.Job{
			Name: "renew",
			Spec: cfg.Backup.RenewSchedule,
			Fn: func() {
				if _, err := cert.Renew(ctx, r, cfg, out); err != nil {
					log.Printf("sched: renew: %v", err)
					notifier.Notify(notify.Failure("renew", err))
				}
			},
		})
	}

	return sched.RunDaemon(ctx, jobs, out)
}

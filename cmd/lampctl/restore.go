package main

import (
	"github.com/avelichko/lampctl/internal/backup"
	"github.com/avelichko/lampctl/internal/catalog"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/notify"
	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	var (
		configPath string
		target     string
	)

	cmd := &cobra.Command{
		Use:   "restore [target]",
		Short: "Restore the stack from a backup",
		Long:  "Loads the MySQL dump and unpacks the web root and certificate archives from a backup directory, defaulting to the most recent one, then restarts the containers.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				target = args[0]
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			cat := openCatalog(cfg)
			notifier := newNotifier(cfg)

			if err := backup.Restore(cmd.Context(), newRunner(), cfg, cat, target, cmd.OutOrStdout()); err != nil {
				notifier.Notify(notify.Failure(catalog.KindRestore, err))
				return err
			}
			notifier.Notify(notify.Success(catalog.KindRestore, targetLabel(target)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	cmd.Flags().StringVarP(&target, "target", "t", "latest", "backup directory name, path, or \"latest\"")
	return cmd
}

func targetLabel(target string) string {
	if target == "" {
		return "latest"
	}
	return target
}

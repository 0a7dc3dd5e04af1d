package main

import (
	"fmt"
	"log"
	"text/tabwriter"

	"github.com/avelichko/lampctl/internal/backup"
	"github.com/avelichko/lampctl/internal/catalog"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/notify"
	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Take a backup of the database, web root and certificates",
		Long:  "Dumps all MySQL databases, archives the web root and certificate material into a timestamped directory under the backup root, then prunes expired backups.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			cat := openCatalog(cfg)
			notifier := newNotifier(cfg)

			dir, err := backup.Run(cmd.Context(), newRunner(), cfg, cat, cmd.OutOrStdout())
			if err != nil {
				notifier.Notify(notify.Failure(catalog.KindBackup, err))
				return err
			}
			notifier.Notify(notify.Success(catalog.KindBackup, dir))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	return cmd
}

func newBackupsCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List recorded backup and restore runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cat, err := catalog.Open(cfg.Backup.Root)
			if err != nil {
				return err
			}
			runs, err := cat.Recent(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tSTATUS\tSIZE\tFINISHED\tPATH")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					run.Kind, run.Status, formatSize(run.SizeBytes),
					run.FinishedAt.Format("2006-01-02 15:04:05"), run.Path)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")
	return cmd
}

// openCatalog opens the run catalog, degrading to nil when the backup root is
// not usable yet.
func openCatalog(cfg *config.Config) *catalog.Catalog {
	cat, err := catalog.Open(cfg.Backup.Root)
	if err != nil {
		log.Printf("catalog unavailable: %v", err)
		return nil
	}
	return cat
}

func newNotifier(cfg *config.Config) *notify.Notifier {
	n, err := notify.New(cfg.Notify)
	if err != nil {
		log.Printf("notifier unavailable: %v", err)
		n, _ = notify.New(config.NotifyConfig{})
	}
	return n
}

func formatSize(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1fG", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

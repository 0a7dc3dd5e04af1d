package main

import (
	"fmt"
	"os"

	"github.com/avelichko/lampctl/internal/runner"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// newRunner builds the command runner. Tests swap it for a scripted fake.
var newRunner = func() runner.Runner { return runner.Real{} }

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lampctl",
		Short: "LAMP stack provisioning on podman",
		Long:  "lampctl provisions Apache, MySQL and phpMyAdmin as podman containers with systemd units, TLS certificates and scheduled backups.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSetupCmd())
	cmd.AddCommand(newBackupCmd())
	cmd.AddCommand(newBackupsCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newRenewCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newSchedCmd())
	cmd.AddCommand(newDashboardCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lampctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}

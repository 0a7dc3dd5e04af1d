package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/avelichko/lampctl/internal/backup"
	"github.com/avelichko/lampctl/internal/catalog"
	"github.com/avelichko/lampctl/internal/cert"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/db"
	"github.com/avelichko/lampctl/internal/preflight"
	"github.com/avelichko/lampctl/internal/runner"
	"github.com/avelichko/lampctl/internal/sched"
	"github.com/avelichko/lampctl/internal/stack"
	"github.com/avelichko/lampctl/internal/systemd"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const dbReadyTimeout = 90 * time.Second

// readPassword prompts on the terminal without echo. Overridable for tests.
var readPassword = func() (string, error) {
	b, err := term.ReadPassword(int(syscall.Stdin))
	return string(b), err
}

func newSetupCmd() *cobra.Command {
	var (
		configPath     string
		domain         string
		email          string
		atomic         bool
		promptPassword bool
		skipBackup     bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision the full LAMP stack",
		Long:  "Provisions the podman network, the MySQL, Apache and phpMyAdmin containers with systemd units, acquires a TLS certificate when a domain is configured, and registers the backup cron jobs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSetupConfig(configPath, domain, email, promptPassword)
			if err != nil {
				return err
			}
			return runSetup(cmd.Context(), cmd.OutOrStdout(), cfg, setupFlags{
				atomic:     atomic,
				skipBackup: skipBackup,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	cmd.Flags().StringVar(&domain, "domain", "", "public domain for TLS (overrides config)")
	cmd.Flags().StringVar(&email, "email", "", "contact email for Let's Encrypt (overrides config)")
	cmd.Flags().BoolVar(&atomic, "atomic", false, "roll back launched containers if any step fails")
	cmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "prompt for the MySQL root password instead of using the config value")
	cmd.Flags().BoolVar(&skipBackup, "skip-initial-backup", false, "do not take a backup after provisioning")
	return cmd
}

type setupFlags struct {
	atomic     bool
	skipBackup bool
}

func loadSetupConfig(path, domain, email string, promptPassword bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if domain != "" {
		derived := cfg.Email == "" || cfg.Email == "admin@"+cfg.Domain
		cfg.Domain = domain
		if derived {
			cfg.Email = "admin@" + domain
		}
	}
	if email != "" {
		cfg.Email = email
	}
	if promptPassword {
		fmt.Fprint(os.Stderr, "MySQL root password: ")
		pw, err := readPassword()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		if pw != "" {
			cfg.MySQL.RootPassword = pw
		}
	}
	return cfg, nil
}

func runSetup(ctx context.Context, out io.Writer, cfg *config.Config, flags setupFlags) (err error) {
	r := newRunner()

	// Containers launched so far, for rollback on failure.
	var launched []string
	defer func() {
		if err != nil && flags.atomic && len(launched) > 0 {
			fmt.Fprintln(out, "Setup failed, rolling back launched containers")
			stack.Rollback(ctx, r, launched, out)
		}
	}()

	if err := runPreflight(ctx, r, cfg, out); err != nil {
		return err
	}

	if err := stack.EnsureNetwork(ctx, r, cfg.Network, out); err != nil {
		return err
	}

	// Launch failures are collected so every container gets its attempt;
	// --atomic fails fast instead so the rollback covers a known set.
	var failures []error
	fail := func(e error) error {
		if flags.atomic {
			return e
		}
		log.Printf("setup: %v", e)
		failures = append(failures, e)
		return nil
	}

	// Database first, the other containers depend on it.
	dbUp := false
	if err := launchWithUnit(ctx, r, stack.MySQLSpec(cfg), out); err != nil {
		if err := fail(err); err != nil {
			return err
		}
	} else {
		launched = append(launched, cfg.MySQL.Container)
		fmt.Fprintln(out, "Waiting for MySQL to accept connections")
		if err := db.WaitReady(ctx, "127.0.0.1", cfg.MySQL.Port, cfg.MySQL.RootPassword, dbReadyTimeout); err != nil {
			if err := fail(err); err != nil {
				return err
			}
		} else {
			dbUp = true
		}
	}

	ssl := false
	if cfg.Domain != "" {
		if err := cert.Acquire(ctx, r, cfg, out); err != nil {
			// TLS is best effort, the stack still serves plain HTTP.
			log.Printf("setup: certificate acquisition failed, continuing without TLS: %v", err)
		}
		ssl = cert.Installed(cfg.Web.CertDir)
	}

	if err := launchWithUnit(ctx, r, stack.WebSpec(cfg, ssl), out); err != nil {
		if err := fail(err); err != nil {
			return err
		}
	} else {
		launched = append(launched, cfg.Web.Container)
	}

	if err := launchWithUnit(ctx, r, stack.AdminSpec(cfg), out); err != nil {
		if err := fail(err); err != nil {
			return err
		}
	} else {
		launched = append(launched, cfg.Admin.Container)
	}

	if err := registerCron(ctx, r, cfg, out); err != nil {
		return err
	}

	if len(failures) > 0 {
		return fmt.Errorf("setup finished with %d failure(s): %w", len(failures), errors.Join(failures...))
	}

	if !flags.skipBackup && dbUp {
		cat, err := catalog.Open(cfg.Backup.Root)
		if err != nil {
			log.Printf("setup: %v", err)
			cat = nil
		}
		if _, err := backup.Run(ctx, r, cfg, cat, out); err != nil {
			return fmt.Errorf("initial backup: %w", err)
		}
	}

	printSummary(out, cfg, ssl)
	return nil
}

func runPreflight(ctx context.Context, r runner.Runner, cfg *config.Config, out io.Writer) error {
	if err := preflight.CheckRoot(); err != nil {
		return err
	}
	info, err := preflight.CheckOS(preflight.OSReleasePath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Host: %s\n", info.PrettyName)

	if err := preflight.EnsurePodman(ctx, r, out); err != nil {
		return err
	}
	if cfg.Domain != "" {
		if err := preflight.EnsureCertbot(ctx, r, out); err != nil {
			return err
		}
	}
	if err := preflight.EnablePodmanSocket(ctx, r); err != nil {
		log.Printf("setup: podman socket: %v", err)
	}
	return nil
}

func launchWithUnit(ctx context.Context, r runner.Runner, spec stack.ContainerSpec, out io.Writer) error {
	if err := stack.Launch(ctx, r, spec, out); err != nil {
		return err
	}
	return systemd.Install(ctx, r, systemd.DefaultUnitDir, spec.Name, out)
}

func registerCron(ctx context.Context, r runner.Runner, cfg *config.Config, out io.Writer) error {
	exe, err := os.Executable()
	if err != nil {
		exe = "/usr/local/bin/lampctl"
	}
	entries := []string{
		sched.Entry(cfg.Backup.Schedule, exe+" backup", "/var/log/lampctl-backup.log"),
	}
	if cfg.Domain != "" {
		entries = append(entries, sched.Entry(cfg.Backup.RenewSchedule, exe+" renew", "/var/log/lampctl-renew.log"))
	}
	return sched.Register(ctx, r, entries, out)
}

func printSummary(out io.Writer, cfg *config.Config, ssl bool) {
	fmt.Fprintln(out, "\nSetup complete")
	fmt.Fprintf(out, "  Web:        http://localhost:%d/\n", cfg.Web.HTTPPort)
	if ssl {
		fmt.Fprintf(out, "  Web (TLS):  https://%s:%d/\n", cfg.Domain, cfg.Web.HTTPSPort)
	}
	fmt.Fprintf(out, "  phpMyAdmin: http://localhost:%d/\n", cfg.Admin.Port)
	fmt.Fprintf(out, "  MySQL:      localhost:%d (database %s)\n", cfg.MySQL.Port, cfg.MySQL.Database)
	fmt.Fprintf(out, "  Backups:    %s (retention %d days)\n", cfg.Backup.Root, cfg.Backup.RetentionDays)
}

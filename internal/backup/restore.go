package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/avelichko/lampctl/internal/catalog"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/db"
	"github.com/avelichko/lampctl/internal/runner"
	"github.com/avelichko/lampctl/internal/stack"
)

// dbReadyTimeout bounds the wait for MySQL before loading the dump.
const dbReadyTimeout = 90 * time.Second

// waitDB is overridable so restore tests do not dial a real server.
var waitDB = db.WaitReady

// Restore rebuilds the stack state from a backup directory. The target is a
// directory path or "latest". The backup is validated before any live state
// is touched: a missing directory or database dump aborts the restore.
func Restore(ctx context.Context, r runner.Runner, cfg *config.Config, cat *catalog.Catalog, target string, out io.Writer) error {
	started := timeNow()

	dir, err := ResolveTarget(cfg.Backup.Root, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Restoring from: %s\n", dir)

	dump := filepath.Join(dir, DumpFile)
	if _, err := os.Stat(dump); err != nil {
		return fmt.Errorf("backup: restore target missing %s: %w", DumpFile, err)
	}

	release, err := acquireLock(cfg.Backup.Root)
	if err != nil {
		return err
	}
	defer release()

	err = restoreSteps(ctx, r, cfg, dir, dump, out)
	if cat != nil {
		recordRun(cat, catalog.Run{
			Kind:       catalog.KindRestore,
			Path:       dir,
			Status:     statusOf(err),
			Error:      errText(err),
			StartedAt:  started,
			FinishedAt: timeNow(),
		})
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Restore complete; all services restarted")
	return nil
}

func restoreSteps(ctx context.Context, r runner.Runner, cfg *config.Config, dir, dump string, out io.Writer) error {
	fmt.Fprintln(out, "Stopping containers...")
	_ = stack.Stop(ctx, r, cfg.Web.Container)

	// The database container must be up to accept the dump.
	_ = stack.Start(ctx, r, cfg.MySQL.Container)
	if err := waitDB(ctx, "127.0.0.1", cfg.MySQL.Port, cfg.MySQL.RootPassword, dbReadyTimeout); err != nil {
		return err
	}

	fmt.Fprintln(out, "Restoring MySQL database...")
	if err := loadDump(ctx, r, cfg, dump); err != nil {
		return err
	}

	if err := extractArchive(ctx, r, dir, WWWArchive, filepath.Dir(cfg.Web.Root), out); err != nil {
		return err
	}
	if err := extractArchive(ctx, r, dir, CertArchive, filepath.Dir(cfg.Web.CertDir), out); err != nil {
		return err
	}

	fmt.Fprintln(out, "Restarting containers...")
	if err := stack.Restart(ctx, r, cfg.MySQL.Container); err != nil {
		return err
	}
	if err := stack.Restart(ctx, r, cfg.Web.Container); err != nil {
		return err
	}
	return nil
}

// loadDump streams the SQL dump into the database container.
func loadDump(ctx context.Context, r runner.Runner, cfg *config.Config, dump string) error {
	f, err := os.Open(dump)
	if err != nil {
		return fmt.Errorf("backup: open dump: %w", err)
	}
	defer f.Close()

	err = r.RunWithStdin(ctx, f, "podman", "exec", "-i", cfg.MySQL.Container,
		"mysql", "-u", "root", "-p"+cfg.MySQL.RootPassword)
	if err != nil {
		return fmt.Errorf("backup: load dump: %w", err)
	}
	return nil
}

// extractArchive unpacks the named archive from the backup directory into
// destParent. A missing archive is reported and skipped, matching the
// partial backups the backup step can produce (e.g. no cert material).
func extractArchive(ctx context.Context, r runner.Runner, dir, name, destParent string, out io.Writer) error {
	archive := filepath.Join(dir, name)
	if _, err := os.Stat(archive); err != nil {
		fmt.Fprintf(out, "Warning: %s not found in backup, skipping\n", name)
		return nil
	}
	if err := os.MkdirAll(destParent, 0o755); err != nil {
		return fmt.Errorf("backup: create %s: %w", destParent, err)
	}
	fmt.Fprintf(out, "Restoring %s...\n", name)
	if err := r.Run(ctx, "tar", "-xzf", archive, "-C", destParent); err != nil {
		return fmt.Errorf("backup: extract %s: %w", name, err)
	}
	return nil
}

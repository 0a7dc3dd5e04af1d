// Package backup implements the scheduled backup and the restore path for
// the stack: database dump, web-root and certificate archives, retention
// pruning, and catalog bookkeeping.
package backup

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/avelichko/lampctl/internal/catalog"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/runner"
	"github.com/jhoonb/archivex"
)

// Backup artifact names inside each backup directory.
const (
	DumpFile    = "mysql_dump.sql"
	WWWArchive  = "apache_www.tar.gz"
	CertArchive = "ssl_certs.tar.gz"
)

// timeNow is overridable for deterministic directory names in tests.
var timeNow = time.Now

// Run performs one backup: dump the database, archive the web root and any
// certificate material, capture container configs, and prune expired
// backups. The catalog is optional; pass nil to skip history recording.
// Returns the created backup directory.
func Run(ctx context.Context, r runner.Runner, cfg *config.Config, cat *catalog.Catalog, out io.Writer) (string, error) {
	started := timeNow()

	if err := os.MkdirAll(cfg.Backup.Root, 0o755); err != nil {
		return "", fmt.Errorf("backup: create root %s: %w", cfg.Backup.Root, err)
	}

	release, err := acquireLock(cfg.Backup.Root)
	if err != nil {
		return "", err
	}
	defer release()

	dir := filepath.Join(cfg.Backup.Root, dirName(started))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create %s: %w", dir, err)
	}

	err = runSteps(ctx, r, cfg, dir, out)
	if cat != nil {
		recordRun(cat, catalog.Run{
			Kind:       catalog.KindBackup,
			Path:       dir,
			Status:     statusOf(err),
			Error:      errText(err),
			SizeBytes:  dirSize(dir),
			StartedAt:  started,
			FinishedAt: timeNow(),
		})
	}
	if err != nil {
		return dir, err
	}

	removed, pruneErr := Prune(cfg.Backup.Root, cfg.Backup.RetentionDays, started)
	if pruneErr != nil {
		// Prior backups are intact and the new one succeeded; report only.
		fmt.Fprintf(out, "Warning: %v\n", pruneErr)
	}
	for _, p := range removed {
		fmt.Fprintf(out, "Pruned expired backup %s\n", p)
	}
	if cat != nil && len(removed) > 0 {
		if err := cat.ForgetPaths(removed); err != nil {
			log.Printf("backup: %v", err)
		}
	}

	fmt.Fprintf(out, "Backup completed: %s\n", dir)
	return dir, nil
}

func runSteps(ctx context.Context, r runner.Runner, cfg *config.Config, dir string, out io.Writer) error {
	fmt.Fprintln(out, "Backing up MySQL database...")
	if err := dumpDatabase(ctx, r, cfg, filepath.Join(dir, DumpFile)); err != nil {
		return err
	}

	fmt.Fprintln(out, "Backing up web files...")
	if err := archiveDir(cfg.Web.Root, filepath.Join(dir, WWWArchive)); err != nil {
		return err
	}

	if hasEntries(cfg.Web.CertDir) {
		fmt.Fprintln(out, "Backing up SSL certificates...")
		if err := archiveDir(cfg.Web.CertDir, filepath.Join(dir, CertArchive)); err != nil {
			return err
		}
	}

	// Container configs are diagnostic extras; failures are not fatal.
	for _, name := range []string{cfg.MySQL.Container, cfg.Web.Container, cfg.Admin.Container} {
		inspect, err := r.Output(ctx, "podman", "inspect", name)
		if err != nil {
			log.Printf("backup: inspect %s: %v", name, err)
			continue
		}
		path := filepath.Join(dir, name+"_config.json")
		if err := os.WriteFile(path, []byte(inspect), 0o644); err != nil {
			log.Printf("backup: write %s: %v", path, err)
		}
	}
	return nil
}

// dumpDatabase streams mysqldump output from the database container into
// dest. Consistency comes from mysqldump itself.
func dumpDatabase(ctx context.Context, r runner.Runner, cfg *config.Config, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("backup: create dump file: %w", err)
	}
	defer f.Close()

	err = r.RunWithStdout(ctx, f, "podman", "exec", cfg.MySQL.Container,
		"mysqldump", "-u", "root", "-p"+cfg.MySQL.RootPassword, "--all-databases")
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("backup: dump database: %w", err)
	}
	return nil
}

// archiveDir writes a gzipped tar of src to dest. The archive keeps the
// source directory's base name as its top-level entry.
func archiveDir(src, dest string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("backup: archive source %s: %w", src, err)
	}
	tar := new(archivex.TarFile)
	if err := tar.Create(dest); err != nil {
		return fmt.Errorf("backup: create archive %s: %w", dest, err)
	}
	if err := tar.AddAll(src, true); err != nil {
		tar.Close()
		return fmt.Errorf("backup: archive %s: %w", src, err)
	}
	if err := tar.Close(); err != nil {
		return fmt.Errorf("backup: finish archive %s: %w", dest, err)
	}
	return nil
}

func hasEntries(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// dirSize sums the regular file sizes under dir.
func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

func statusOf(err error) string {
	if err != nil {
		return catalog.StatusFailed
	}
	return catalog.StatusOK
}

func errText(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}

func recordRun(cat *catalog.Catalog, run catalog.Run) {
	if err := cat.Record(run); err != nil {
		log.Printf("backup: %v", err)
	}
}

package backup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avelichko/lampctl/internal/catalog"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/runner"
)

func backupConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	cfg.Backup.Root = filepath.Join(dir, "backups")
	cfg.Web.Root = filepath.Join(dir, "www")
	cfg.Web.CertDir = filepath.Join(dir, "certs")
	if err := os.MkdirAll(cfg.Web.Root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Web.Root, "index.php"), []byte("<?php phpinfo();"), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func fixedClock(t *testing.T, ts time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return ts }
	t.Cleanup(func() { timeNow = orig })
}

func TestRun_CreatesBackupArtifacts(t *testing.T) {
	cfg := backupConfig(t)
	fixedClock(t, time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC))

	f := runner.NewFake()
	f.Respond("podman exec mysql_server mysqldump", "-- MySQL dump\nCREATE DATABASE testdb;\n", nil)
	f.Respond("podman inspect", `[{"Name":"x"}]`, nil)
	var buf bytes.Buffer

	dir, err := Run(context.Background(), f, cfg, nil, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(dir) != "backup_20250615_020000" {
		t.Errorf("backup dir = %s", dir)
	}

	dump, err := os.ReadFile(filepath.Join(dir, DumpFile))
	if err != nil {
		t.Fatalf("dump missing: %v", err)
	}
	if !strings.Contains(string(dump), "CREATE DATABASE testdb") {
		t.Errorf("dump = %q", dump)
	}

	if _, err := os.Stat(filepath.Join(dir, WWWArchive)); err != nil {
		t.Errorf("www archive missing: %v", err)
	}
	// No cert material, so no cert archive.
	if _, err := os.Stat(filepath.Join(dir, CertArchive)); !os.IsNotExist(err) {
		t.Error("cert archive should not exist without cert material")
	}

	// Inspect JSON captured per container.
	if _, err := os.Stat(filepath.Join(dir, "mysql_server_config.json")); err != nil {
		t.Errorf("inspect json missing: %v", err)
	}

	// Lock released.
	if _, err := os.Stat(filepath.Join(cfg.Backup.Root, lockFileName)); !os.IsNotExist(err) {
		t.Error("lock should be released after backup")
	}
}

func TestRun_IncludesCertArchiveWhenPresent(t *testing.T) {
	cfg := backupConfig(t)
	if err := os.MkdirAll(cfg.Web.CertDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Web.CertDir, "fullchain.pem"), []byte("CHAIN"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := runner.NewFake()
	f.Respond("podman exec mysql_server mysqldump", "-- dump\n", nil)

	dir, err := Run(context.Background(), f, cfg, nil, new(bytes.Buffer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, CertArchive)); err != nil {
		t.Errorf("cert archive missing: %v", err)
	}
}

func TestRun_DumpFailure(t *testing.T) {
	cfg := backupConfig(t)
	cat, err := catalog.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	f := runner.NewFake()
	f.Fail("podman exec mysql_server mysqldump", "connection refused")

	dir, err := Run(context.Background(), f, cfg, cat, new(bytes.Buffer))
	if err == nil {
		t.Fatal("expected dump failure")
	}

	// Partial dump file removed.
	if _, statErr := os.Stat(filepath.Join(dir, DumpFile)); !os.IsNotExist(statErr) {
		t.Error("failed dump file should be removed")
	}

	runs, err := cat.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != catalog.StatusFailed {
		t.Errorf("runs = %+v, want one failed run", runs)
	}
}

func TestRun_PrunesExpiredBackups(t *testing.T) {
	cfg := backupConfig(t)
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	fixedClock(t, now)

	if err := os.MkdirAll(cfg.Backup.Root, 0o755); err != nil {
		t.Fatal(err)
	}
	oldDir := dirName(now.AddDate(0, 0, -45))
	freshDir := dirName(now.AddDate(0, 0, -3))
	mkBackupDir(t, cfg.Backup.Root, oldDir)
	mkBackupDir(t, cfg.Backup.Root, freshDir)

	f := runner.NewFake()
	f.Respond("podman exec mysql_server mysqldump", "-- dump\n", nil)

	if _, err := Run(context.Background(), f, cfg, nil, new(bytes.Buffer)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Backup.Root, oldDir)); !os.IsNotExist(err) {
		t.Error("expired backup should be pruned")
	}
	if _, err := os.Stat(filepath.Join(cfg.Backup.Root, freshDir)); err != nil {
		t.Error("fresh backup must survive pruning")
	}
}

func TestRun_LockContention(t *testing.T) {
	cfg := backupConfig(t)
	if err := os.MkdirAll(cfg.Backup.Root, 0o755); err != nil {
		t.Fatal(err)
	}
	release, err := acquireLock(cfg.Backup.Root)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	f := runner.NewFake()
	if _, err := Run(context.Background(), f, cfg, nil, new(bytes.Buffer)); err == nil {
		t.Fatal("expected lock contention error")
	}
	if f.CallCount("podman") != 0 {
		t.Error("no podman command should run while locked")
	}
}

func TestRun_RecordsCatalogEntry(t *testing.T) {
	cfg := backupConfig(t)
	cat, err := catalog.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	f := runner.NewFake()
	f.Respond("podman exec mysql_server mysqldump", "-- dump\n", nil)

	dir, err := Run(context.Background(), f, cfg, cat, new(bytes.Buffer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, err := cat.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatal("expected one catalog run")
	}
	run := runs[0]
	if run.Kind != catalog.KindBackup || run.Status != catalog.StatusOK {
		t.Errorf("run = %+v", run)
	}
	if run.Path != dir {
		t.Errorf("run.Path = %q, want %q", run.Path, dir)
	}
	if run.SizeBytes <= 0 {
		t.Errorf("run.SizeBytes = %d, want > 0", run.SizeBytes)
	}
}

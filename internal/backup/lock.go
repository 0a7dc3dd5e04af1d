package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// lockFileName guards the backup root so a scheduled backup and a manual
// restore cannot run concurrently.
const lockFileName = ".lampctl.lock"

// acquireLock takes the exclusive backup-root lock, returning a release
// function. A lock left behind by a dead process is reclaimed.
func acquireLock(backupRoot string) (func(), error) {
	path := filepath.Join(backupRoot, lockFileName)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("backup: create lock %s: %w", path, err)
		}

		pid, readErr := lockHolder(path)
		if readErr == nil && processAlive(pid) {
			return nil, fmt.Errorf("backup: another backup or restore is running (pid %d)", pid)
		}

		// Stale lock from a dead or unreadable holder; reclaim it.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("backup: reclaim stale lock %s: %w", path, rmErr)
		}
	}
	return nil, fmt.Errorf("backup: lock %s contended", path)
}

// lockHolder reads the PID recorded in the lock file.
func lockHolder(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid lock content %q", strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// processAlive reports whether a process with the given PID exists.
func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

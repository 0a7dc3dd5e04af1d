package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// dirPrefix is the backup directory name prefix.
	dirPrefix = "backup_"
	// tsLayout is the timestamp embedded in backup directory names.
	// Zero-padded, so lexicographic order equals temporal order.
	tsLayout = "20060102_150405"
)

// dirName builds the backup directory name for a point in time.
func dirName(t time.Time) string {
	return dirPrefix + t.Format(tsLayout)
}

// parseDirName extracts the timestamp from a backup directory name.
func parseDirName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, dirPrefix) {
		return time.Time{}, false
	}
	t, err := time.Parse(tsLayout, strings.TrimPrefix(name, dirPrefix))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// list returns the backup directory names under root, sorted ascending.
// Entries that are not backup directories are ignored.
func list(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("backup: read %s: %w", root, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, ok := parseDirName(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Prune deletes backup directories whose embedded timestamp is older than
// the retention window relative to now. Returns the removed paths.
func Prune(root string, retentionDays int, now time.Time) ([]string, error) {
	names, err := list(root)
	if err != nil {
		return nil, err
	}

	// A backup exactly at the retention edge is expired, so a daily schedule
	// keeps precisely retentionDays directories.
	cutoff := now.AddDate(0, 0, -retentionDays)
	var removed []string
	for _, name := range names {
		ts, _ := parseDirName(name)
		if ts.After(cutoff) {
			continue
		}
		path := filepath.Join(root, name)
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("backup: prune %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// ResolveTarget turns a restore target into an existing backup directory.
// The sentinel "latest" (or an empty target) selects the backup directory
// with the greatest timestamp. Anything else is a directory path, absolute
// or relative to root.
func ResolveTarget(root, target string) (string, error) {
	if target == "" || target == "latest" {
		names, err := list(root)
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "", fmt.Errorf("backup: no backups found in %s", root)
		}
		return filepath.Join(root, names[len(names)-1]), nil
	}

	path := target
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(root, target)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("backup: target %s: %w", target, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("backup: target %s is not a directory", path)
	}
	return path, nil
}

// Package catalog records backup and restore runs in a local SQLite database
// kept under the backup root.
package catalog

import (
	"fmt"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FileName is the catalog database file name inside the backup root.
const FileName = "catalog.db"

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run kinds.
const (
	KindBackup  = "backup"
	KindRestore = "restore"
)

// Run is one recorded backup or restore execution.
type Run struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Kind       string    `gorm:"size:16;index" json:"kind"`
	Path       string    `gorm:"size:512" json:"path"`
	Status     string    `gorm:"size:16" json:"status"`
	Error      string    `json:"error,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Catalog wraps the catalog database.
type Catalog struct {
	db *gorm.DB
}

// Open opens (creating if needed) the catalog database under backupRoot.
func Open(backupRoot string) (*Catalog, error) {
	path := filepath.Join(backupRoot, FileName)
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	if err := gdb.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	return &Catalog{db: gdb}, nil
}

// Record inserts a completed run.
func (c *Catalog) Record(run Run) error {
	if err := c.db.Create(&run).Error; err != nil {
		return fmt.Errorf("catalog: record %s run: %w", run.Kind, err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (c *Catalog) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []Run
	if err := c.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("catalog: list runs: %w", err)
	}
	return runs, nil
}

// ForgetPaths removes backup rows whose directories were pruned.
func (c *Catalog) ForgetPaths(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := c.db.Where("kind = ? AND path IN ?", KindBackup, paths).Delete(&Run{}).Error; err != nil {
		return fmt.Errorf("catalog: forget pruned paths: %w", err)
	}
	return nil
}

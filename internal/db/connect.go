// Package db provides MySQL connectivity for readiness gates and diagnostics.
package db

import (
	"context"
	"fmt"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the root user on the given host port.
func DSN(host string, port int, rootPassword, database string) string {
	cfg := sqldriver.NewConfig()
	cfg.User = "root"
	cfg.Passwd = rootPassword
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.DBName = database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Connect opens a GORM connection to the stack's MySQL server.
func Connect(host string, port int, rootPassword, database string) (*gorm.DB, error) {
	dsn := DSN(host, port, rootPassword, database)
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", host, port, database, err)
	}
	return gdb, nil
}

// Ping verifies the server answers on the connection.
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("db: underlying connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	return nil
}

// WaitReady polls the MySQL server until it accepts connections or the
// timeout elapses. Used after launching the database container instead of a
// blind sleep.
func WaitReady(ctx context.Context, host string, port int, rootPassword string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for time.Now().Before(deadline) {
		gdb, err := Connect(host, port, rootPassword, "")
		if err == nil {
			err = Ping(ctx, gdb)
			if sqlDB, dbErr := gdb.DB(); dbErr == nil {
				sqlDB.Close()
			}
			if err == nil {
				return nil
			}
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("db: wait for mysql: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	return fmt.Errorf("db: mysql not ready after %s: %w", timeout, lastErr)
}

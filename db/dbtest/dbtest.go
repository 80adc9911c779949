// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"toolbank/db"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens a fresh migrated database. Each call gets its own schema.
func New() (*gorm.DB, func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, nil, err
	}
	// the memory database lives as long as its single connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	if err := db.Migrate(conn); err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	return conn, func() { _ = sqlDB.Close() }, nil
}

// Open is New for tests; the database is closed on cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	conn, closeFn, err := New()
	if err != nil {
		t.Fatalf("dbtest: %v", err)
	}
	t.Cleanup(closeFn)
	return conn
}

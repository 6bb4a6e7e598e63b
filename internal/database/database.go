package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Wikid82/warden/backend/internal/models"
)

// Connect opens the SQLite database at dbPath. Timestamps are written in UTC
// so the rolling-window comparisons in the security services stay consistent.
func Connect(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dbPath)), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates every table owned by the service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.LoginAttempt{},
		&models.BlockingRule{},
		&models.IPEntry{},
		&models.Report{},
		&models.SecurityDecision{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// sqlitePragmas are appended to the DSN unless the caller already set them.
// Immediate transactions take the write lock at BEGIN, so concurrent
// read-then-write transactions queue on the busy timeout instead of failing
// with "database is locked" when both try to upgrade.
var sqlitePragmas = []struct{ key, value string }{
	{"_busy_timeout", "5000"},
	{"_txlock", "immediate"},
	{"_journal_mode", "WAL"},
}

func withPragmas(dbPath string) string {
	for _, p := range sqlitePragmas {
		if strings.Contains(dbPath, p.key+"=") {
			continue
		}
		if p.key == "_journal_mode" && strings.Contains(dbPath, "mode=memory") {
			continue
		}
		sep := "?"
		if strings.Contains(dbPath, "?") {
			sep = "&"
		}
		dbPath += sep + p.key + "=" + p.value
	}
	return dbPath
}

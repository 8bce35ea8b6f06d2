package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookreview/internal/config"
	"bookreview/internal/logger"
	"bookreview/internal/model"
)

// Open returns a connected GORM DB instance for the configured driver.
func Open(cfg config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.MySQLDSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.Storage))
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// SQLiteDSN turns a storage path into a DSN with foreign key enforcement enabled.
func SQLiteDSN(storage string) string {
	sep := "?"
	if strings.Contains(storage, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(storage, "file:") {
		storage = "file:" + storage
	}
	return storage + sep + "_foreign_keys=on"
}

// Migrate creates or updates the users, books and reviews tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Book{},
		&model.Review{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

type gormWriter struct {
	log logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), map[string]interface{}{"component": "gorm"})
}

func newGormLogger(log logger.Logger) gormlogger.Interface {
	if log == nil {
		return gormlogger.Discard
	}
	return gormlogger.New(gormWriter{log: log}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

var DB *gorm.DB

// Connect opens the SQL database selected by cfg.StoreDriver. The redis and
// memory drivers still use a local SQLite file for system logs.
func Connect(cfg *config.Config) error {
	var err error
	switch cfg.StoreDriver {
	case "postgres":
		DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	default:
		DB, err = OpenSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.StoreDriver == "postgres" {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(25)
	} else {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected", "driver", cfg.StoreDriver)
	return nil
}

// OpenSQLite opens a pure-Go SQLite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Migrate runs AutoMigrate for the key/value and log tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.KVEntry{},
		&models.SystemLog{},
	)
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

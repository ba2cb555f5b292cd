package database

import (
	"context"
	"embed"
	"fmt"

	"unnest/internal/middleware"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// gooseDialect maps a DB_DRIVER value to the goose dialect and migrations directory.
func gooseDialect(driver string) (dialect, dir string, err error) {
	switch driver {
	case "postgres":
		return "postgres", "migrations/postgres", nil
	case "sqlite", "":
		return "sqlite3", "migrations/sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func prepareGoose(driver string) (string, error) {
	dialect, dir, err := gooseDialect(driver)
	if err != nil {
		return "", err
	}
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return dir, nil
}

// Migrate applies every pending versioned migration.
func Migrate(ctx context.Context, db *gorm.DB, driver string) error {
	dir, err := prepareGoose(driver)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	middleware.Logger.InfoContext(ctx, "Database migrations applied")
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, db *gorm.DB, driver string) error {
	dir, err := prepareGoose(driver)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Status logs the applied state of every migration.
func Status(ctx context.Context, db *gorm.DB, driver string) error {
	dir, err := prepareGoose(driver)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, sqlDB, dir)
}

// Version returns the current schema version.
func Version(ctx context.Context, db *gorm.DB, driver string) (int64, error) {
	if _, err := prepareGoose(driver); err != nil {
		return 0, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	middleware.Logger.Error(fmt.Sprintf(format, v...))
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	middleware.Logger.Info(fmt.Sprintf(format, v...))
}

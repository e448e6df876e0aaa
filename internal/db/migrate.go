// Package db opens the database, applies the schema and seeds reference data.
package db

import (
	"embed"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/diewo77/ecotrim/internal/config"
	"github.com/diewo77/ecotrim/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Models lists every table managed by AutoMigrate, parents first.
func Models() []any {
	return []any{&models.Client{}, &models.Document{}, &models.DocumentItem{}, &models.Expense{}}
}

var requiredTables = []string{"clients", "documents", "document_items", "expenses"}

// Migrate brings the schema up to date. With sqlMigrations on a PostgreSQL
// database the embedded SQL files are applied through golang-migrate;
// otherwise gorm's AutoMigrate is used.
func Migrate(gdb *gorm.DB, cfg config.DatabaseConfig, sqlMigrations bool) error {
	if sqlMigrations && cfg.Driver == "postgres" {
		if err := runSQLMigrations(cfg.URL()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range Models() {
			if err := gdb.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	for _, table := range requiredTables {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

func runSQLMigrations(url string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

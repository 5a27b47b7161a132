package db

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate brings the schema up to date. Postgres applies the versioned SQL in
// migrations; sqlite falls back to gorm's AutoMigrate over models.
func (s *Store) Migrate(migrations fs.FS, models ...any) error {
	if s == nil || s.DB == nil {
		return errors.New("platform/db: store not initialised")
	}
	if s.Dialect() != DriverPostgres {
		if err := s.DB.AutoMigrate(models...); err != nil {
			return fmt.Errorf("platform/db: auto migrate: %w", err)
		}
		return nil
	}

	source, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("platform/db: migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(s.sql, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("platform/db: migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, DriverPostgres, driver)
	if err != nil {
		return fmt.Errorf("platform/db: migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: apply migrations: %w", err)
	}
	// migrator.Close would close the shared *sql.DB
	return nil
}

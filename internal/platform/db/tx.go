package db

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// WithTx executes fn inside a transaction. Postgres runs at ReadCommitted;
// sqlite has a single writer and takes no isolation options.
func WithTx(ctx context.Context, gdb *gorm.DB, fn func(tx *gorm.DB) error) error {
	var opts *sql.TxOptions
	if gdb.Dialector.Name() == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}

	tx := gdb.WithContext(ctx).Begin(opts)
	if tx.Error != nil {
		return fmt.Errorf("platform/db: begin tx: %w", tx.Error)
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}
	committed = true

	return nil
}

// IsPostgres reports whether gdb talks to postgres.
func IsPostgres(gdb *gorm.DB) bool {
	return gdb != nil && gdb.Dialector.Name() == DriverPostgres
}

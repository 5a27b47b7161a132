package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options selects the database backend.
type Options struct {
	Driver     string
	PGDSN      string
	SQLitePath string
	MaxConns   int32
	LogLevel   logger.LogLevel
}

// Store bundles the ORM handle with the connections underneath it.
type Store struct {
	DB   *gorm.DB
	Pool *pgxpool.Pool
	sql  *sql.DB
}

// Open connects to the configured backend. Postgres goes through a pgx pool
// shared with gorm; sqlite is meant for local development.
func Open(ctx context.Context, opts Options) (*Store, error) {
	cfg := gormConfig(opts.LogLevel)
	switch opts.Driver {
	case DriverPostgres, "":
		pool, err := New(ctx, opts.PGDSN, opts.MaxConns)
		if err != nil {
			return nil, err
		}
		sqlDB := stdlib.OpenDBFromPool(pool)
		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
		if err != nil {
			_ = sqlDB.Close()
			pool.Close()
			return nil, fmt.Errorf("platform/db: open gorm: %w", err)
		}
		return &Store{DB: gdb, Pool: pool, sql: sqlDB}, nil
	case DriverSQLite:
		return OpenSQLite(opts.SQLitePath, opts.LogLevel)
	default:
		return nil, fmt.Errorf("platform/db: unsupported driver %q", opts.Driver)
	}
}

// OpenSQLite opens a sqlite database at path. ":memory:" yields a private
// in-memory database which is handy in tests.
func OpenSQLite(path string, level logger.LogLevel) (*Store, error) {
	gdb, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig(level))
	if err != nil {
		return nil, fmt.Errorf("platform/db: open sqlite: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("platform/db: sqlite handle: %w", err)
	}
	// a single connection keeps in-memory databases alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	return &Store{DB: gdb, sql: sqlDB}, nil
}

// sqliteDSN appends the foreign key pragma to path, keeping any query
// parameters already present.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		path = "file::memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// Dialect reports the active gorm dialect name.
func (s *Store) Dialect() string {
	if s == nil || s.DB == nil {
		return ""
	}
	return s.DB.Dialector.Name()
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sql == nil {
		return fmt.Errorf("platform/db: store not initialised")
	}
	return s.sql.PingContext(ctx)
}

// Close releases all connections.
func (s *Store) Close() {
	if s == nil {
		return
	}
	if s.sql != nil {
		_ = s.sql.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	if level == 0 {
		level = logger.Warn
	}
	return &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

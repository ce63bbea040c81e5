package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPermissions  = 0750
	filePermissions = 0600

	// pingTimeout bounds the connectivity check in Open.
	pingTimeout = 5 * time.Second

	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// DB wraps a sql.DB connection with migration support and health checks.
type DB struct {
	*sql.DB
	path string
}

// Config contains database configuration options.
// These map to the database section of config.yaml.
type Config struct {
	// Path is the SQLite file, or MemoryPath. The parent directory is created.
	Path string

	// WALMode enables write-ahead logging.
	WALMode bool

	// BusyTimeout is how long to wait for a lock, in seconds.
	BusyTimeout int
}

// Open creates a database connection and verifies it with a ping.
//
// The schedule blob is small and written rarely, so the pool is held to a
// single connection; this also keeps an in-memory database alive across calls.
//
// Parameters:
//   - cfg: Database configuration
//
// Returns:
//   - *DB: Connected database wrapper
//   - error: If the directory, connection or ping fails
func Open(cfg Config) (*DB, error) {
	inMemory := cfg.Path == MemoryPath || strings.HasPrefix(cfg.Path, "file::memory:")

	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", cfg.Path, cfg.BusyTimeout*int(time.Second/time.Millisecond))
	if cfg.WALMode && !inMemory {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if !inMemory {
		_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File may only appear after the first write
	}

	return &DB{DB: sqlDB, path: cfg.Path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the configured database path.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck runs a trivial query to confirm the connection is usable.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

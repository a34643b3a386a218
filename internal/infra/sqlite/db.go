// Package sqlite provides the SQLite database connection factory for IdeaForge.
// Uses modernc.org/sqlite, a pure-Go SQLite driver (no CGO required).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database (tests, --no-history runs).
const MemoryPath = ":memory:"

// NewDB opens (or creates) a SQLite database at path and configures it for production use:
//   - WAL journal mode (allows concurrent reads during writes)
//   - Foreign key enforcement (SQLite disables FKs by default)
//   - 5-second busy timeout (prevents SQLITE_BUSY errors under burst writes)
//   - Synchronous=NORMAL (safe + faster than FULL for WAL mode)
//
// The parent directory is created when missing, since the default path lives
// under ./data. Use MemoryPath for in-memory databases.
func NewDB(ctx context.Context, path string) (*sql.DB, error) {
	inMemory := path == MemoryPath
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.NewDB: create parent directory of %q: %w", path, err)
		}
	}

	// DSN with PRAGMAs applied at connection time via query parameters.
	// modernc.org/sqlite supports _pragma=... params in the DSN.
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	// Every connection to ":memory:" is a separate database, so pin it to one.
	if inMemory {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}

	// Verify the connection is alive and PRAGMAs were applied.
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}

	return db, nil
}

// Open is NewDB followed by MigrateUp.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := MigrateUp(ctx, db); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return db, nil
}

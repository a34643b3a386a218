package sqlite_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/sqlite"
)

// TestNewDB_OpenAndClose verifies that NewDB opens a valid connection and Close works.
func TestNewDB_OpenAndClose(t *testing.T) {
	t.Parallel()

	path := tempDBPath(t)
	db, err := sqlite.NewDB(context.Background(), path)
	if err != nil {
		t.Fatalf("NewDB(%q) error = %v; want nil", path, err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("db.Close() error = %v; want nil", err)
	}
}

// TestNewDB_Pragmas verifies WAL, FK enforcement and busy timeout after NewDB.
func TestNewDB_Pragmas(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode scan error = %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q; want %q", mode, "wal")
	}

	var fkEnabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("PRAGMA foreign_keys scan error = %v", err)
	}
	if fkEnabled != 1 {
		t.Errorf("foreign_keys = %d; want 1 (enabled)", fkEnabled)
	}

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("PRAGMA busy_timeout scan error = %v", err)
	}
	if timeout <= 0 {
		t.Errorf("busy_timeout = %d; want > 0 (ms)", timeout)
	}
}

// TestNewDB_InMemory verifies that MemoryPath works and keeps one shared database.
func TestNewDB_InMemory(t *testing.T) {
	t.Parallel()

	db, err := sqlite.NewDB(context.Background(), sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("NewDB(%q) error = %v; want nil", sqlite.MemoryPath, err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d; want 1 for in-memory DB", got)
	}
}

// TestNewDB_CreatesParentDirectory verifies the default ./data layout works on first run.
func TestNewDB_CreatesParentDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "nested", "ideaforge.db")

	db, err := sqlite.NewDB(context.Background(), path)
	if err != nil {
		t.Fatalf("NewDB(%q) error = %v; want nil", path, err)
	}
	defer db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected DB file %q to be created by NewDB", path)
	}
}

// TestNewDB_ParentIsAFile verifies a clear error when the directory cannot be created.
func TestNewDB_ParentIsAFile(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	db, err := sqlite.NewDB(context.Background(), filepath.Join(blocker, "db.sqlite"))
	if err == nil {
		db.Close()
		t.Error("NewDB under a regular file = nil error; want error")
	}
}

// TestOpen_Migrates verifies Open returns a ready-to-use database.
func TestOpen_Migrates(t *testing.T) {
	t.Parallel()

	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	defer db.Close()

	assertTableExists(t, db, "generation_log")
}

// --- helpers ---

// mustOpenDB opens a temp SQLite DB, registers cleanup, and fails the test on error.
func mustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(context.Background(), tempDBPath(t))
	if err != nil {
		t.Fatalf("sqlite.NewDB error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// tempDBPath returns a unique temp file path for a test DB (auto-cleaned).
func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sqlite")
}

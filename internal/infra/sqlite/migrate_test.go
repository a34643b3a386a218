package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/sqlite"
)

// TestMigrate_RunsAllMigrations verifies that MigrateUp applies all pending migrations.
func TestMigrate_RunsAllMigrations(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	n, err := sqlite.MigrateUpCount(context.Background(), db)
	if err != nil {
		t.Fatalf("MigrateUpCount() error = %v; want nil", err)
	}
	if n < 2 {
		t.Errorf("applied %d migrations; want at least 2", n)
	}

	assertTableExists(t, db, "generation_log")
}

// TestMigrate_Idempotent verifies that a second run applies nothing and does not fail.
func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := mustOpenDB(t)

	if err := sqlite.MigrateUp(ctx, db); err != nil {
		t.Fatalf("MigrateUp() first run error = %v; want nil", err)
	}

	n, err := sqlite.MigrateUpCount(ctx, db)
	if err != nil {
		t.Fatalf("MigrateUp() second run error = %v; want nil (idempotent)", err)
	}
	if n != 0 {
		t.Errorf("second run applied %d migrations; want 0", n)
	}
}

// TestMigrate_Version verifies version tracking before and after migration.
func TestMigrate_Version(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := mustOpenDB(t)

	version, err := sqlite.MigrationVersion(ctx, db)
	if err != nil {
		t.Fatalf("MigrationVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("MigrationVersion() = %d; want 0 on fresh DB", version)
	}

	if err := sqlite.MigrateUp(ctx, db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	version, err = sqlite.MigrationVersion(ctx, db)
	if err != nil {
		t.Fatalf("MigrationVersion() error = %v; want nil", err)
	}
	if version < 2 {
		t.Errorf("MigrationVersion() = %d; want >= 2 after MigrateUp", version)
	}
}

// TestMigrate_OutcomeConstraint verifies the CHECK on generation_log.outcome.
func TestMigrate_OutcomeConstraint(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	if err := sqlite.MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	insert := `INSERT INTO generation_log (id, endpoint, provider, model, outcome, created_at)
		VALUES (?, 'generate-idea', 'huggingface', 'google/flan-t5-base', ?, datetime('now'))`

	if _, err := db.Exec(insert, "g-1", "success"); err != nil {
		t.Fatalf("valid insert error = %v", err)
	}
	if _, err := db.Exec(insert, "g-2", "exploded"); err == nil {
		t.Error("INSERT with unknown outcome succeeded; want CHECK constraint error")
	}
	if _, err := db.Exec(insert, "g-1", "success"); err == nil {
		t.Error("duplicate id INSERT succeeded; want PRIMARY KEY error")
	}
}

// TestMigrate_CanceledContext verifies migrations honor cancellation.
func TestMigrate_CanceledContext(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sqlite.MigrateUp(ctx, db)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("MigrateUp(canceled) error = %v; want context.Canceled", err)
	}
}

// assertTableExists fails the test if the given table doesn't exist in the DB.
func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		tableName,
	).Scan(&name)

	if errors.Is(err, sql.ErrNoRows) {
		t.Errorf("table %q not found in sqlite_master after MigrateUp", tableName)
		return
	}
	if err != nil {
		t.Fatalf("assertTableExists(%q) query error = %v", tableName, err)
	}
}

package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "migrate.db"))
	db, err := NewConnectionManager(cfg).GetConnection()
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestManager(db *sql.DB, fsys fstest.MapFS) MigrationManager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), fsys, "migrations", logger)
}

func TestMigrationManager_RunMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("applies pending migrations once", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"migrations/001_create.sql": {Data: []byte("CREATE TABLE widgets (id TEXT PRIMARY KEY);")},
			"migrations/002_seed.sql":   {Data: []byte("INSERT INTO widgets (id) VALUES ('w-1');\nINSERT INTO widgets (id) VALUES ('w-2');")},
		}
		manager := newTestManager(db, fsys)

		if err := manager.RunMigrations(ctx); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}
		if err := manager.RunMigrations(ctx); err != nil {
			t.Fatalf("second RunMigrations failed: %v", err)
		}

		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM widgets").Scan(&count); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected seed to run once, got %d rows", count)
		}

		status, err := manager.GetMigrationStatus(ctx)
		if err != nil {
			t.Fatalf("GetMigrationStatus failed: %v", err)
		}
		if status.CurrentVersion != "002" || status.PendingCount != 0 || len(status.AppliedMigrations) != 2 {
			t.Fatalf("unexpected status: %+v", status)
		}
	})

	t.Run("rolls back a failing migration", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"migrations/001_create.sql": {Data: []byte("CREATE TABLE widgets (id TEXT PRIMARY KEY);")},
			"migrations/002_broken.sql": {Data: []byte("CREATE TABLE gadgets (id TEXT);\nINSERT INTO nowhere VALUES (1);")},
		}
		manager := newTestManager(db, fsys)

		err := manager.RunMigrations(ctx)
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}

		var name string
		err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name = 'gadgets'").Scan(&name)
		if !errors.Is(err, sql.ErrNoRows) {
			t.Fatalf("expected gadgets table to be rolled back, got %v", err)
		}

		status, err := manager.GetMigrationStatus(ctx)
		if err != nil {
			t.Fatalf("GetMigrationStatus failed: %v", err)
		}
		if status.CurrentVersion != "001" || status.PendingCount != 1 {
			t.Fatalf("unexpected status: %+v", status)
		}
	})

	t.Run("rejects gaps in the sequence", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"migrations/001_create.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
			"migrations/003_later.sql":  {Data: []byte("CREATE TABLE c (id TEXT);")},
		}

		if err := newTestManager(db, fsys).RunMigrations(ctx); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("detects edited migrations", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		original := fstest.MapFS{
			"migrations/001_create.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
		}
		if err := newTestManager(db, original).RunMigrations(ctx); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}

		edited := fstest.MapFS{
			"migrations/001_create.sql": {Data: []byte("CREATE TABLE a (id TEXT, name TEXT);")},
		}
		if err := newTestManager(db, edited).RunMigrations(ctx); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})
}

func TestConnectionManager_DSN(t *testing.T) {
	t.Parallel()

	cm := NewConnectionManager(DefaultSQLiteConfig("/tmp/dropplan.db"))
	dsn := cm.DSN()

	for _, want := range []string{"file:/tmp/dropplan.db?", "foreign_keys%281%29", "journal_mode%28WAL%29", "busy_timeout%2830000%29"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("expected DSN %q to contain %q", dsn, want)
		}
	}

	bad := NewConnectionManager(SQLiteConfig{Path: "x.db", JournalMode: "FAST"})
	if err := bad.ValidateConfig(); err == nil {
		t.Fatal("expected invalid journal mode to be rejected")
	}
}

func TestSQLiteExecutor_GetAppliedVersionsCorruptRow(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	executor := NewSQLiteExecutor(db)
	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ('001', 'yesterday')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	_, err := executor.GetAppliedVersions(ctx)
	if !errors.Is(err, ErrVersionTableCorrupt) {
		t.Fatalf("expected ErrVersionTableCorrupt, got %v", err)
	}
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) || dbErr.Version != "001" {
		t.Fatalf("expected DatabaseError for version 001, got %v", err)
	}
}

package migration

import (
	"errors"
	"io/fs"
	"testing"
)

func TestMigrationErrorsUnwrap(t *testing.T) {
	cases := []struct {
		err    error
		target error
		text   string
	}{
		{
			NewMigrationError("002", "migrations/002_work_items.sql", "check duplicates", ErrDuplicateVersion),
			ErrDuplicateVersion,
			"migration 002 (migrations/002_work_items.sql): check duplicates: duplicate migration version",
		},
		{
			NewMigrationError("", "notes.sql", "validate filename", ErrInvalidMigrationFile),
			ErrInvalidMigrationFile,
			"migration notes.sql: validate filename: invalid migration file format",
		},
		{
			NewFileSystemError("migrations", "read directory", fs.ErrNotExist),
			fs.ErrNotExist,
			"migration source migrations: read directory: file does not exist",
		},
		{
			NewDatabaseError("001", "CREATE TABLE users (id TEXT)", "execute statement 1", ErrMigrationFailed),
			ErrMigrationFailed,
			"migration 001 database: execute statement 1: migration execution failed",
		},
		{
			NewDatabaseError("", "", "create schema_migrations table", ErrMigrationFailed),
			ErrMigrationFailed,
			"migration database: create schema_migrations table: migration execution failed",
		},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.target) {
			t.Fatalf("%v does not unwrap to %v", tc.err, tc.target)
		}
		if tc.err.Error() != tc.text {
			t.Fatalf("unexpected message %q", tc.err.Error())
		}
	}

	var dbErr *DatabaseError
	if !errors.As(cases[3].err, &dbErr) || dbErr.Statement != "CREATE TABLE users (id TEXT)" || dbErr.Operation != "execute statement 1" {
		t.Fatalf("expected DatabaseError context, got %#v", dbErr)
	}
}

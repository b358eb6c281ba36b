package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationFailed marks a migration whose statements did not apply.
	ErrMigrationFailed = errors.New("migration execution failed")
	// ErrInvalidMigrationFile marks a file with a bad name or empty body.
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	// ErrVersionConflict marks a gap in the sequence or an applied version with no file.
	ErrVersionConflict = errors.New("migration version conflict")
	// ErrDuplicateVersion marks two files sharing one version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrInvalidVersion marks a version that does not parse as a number.
	ErrInvalidVersion = errors.New("invalid migration version")
	// ErrVersionTableCorrupt marks an unreadable row in schema_migrations.
	ErrVersionTableCorrupt = errors.New("schema_migrations table is corrupt")
	// ErrChecksumMismatch marks an applied migration whose file changed afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// failure is the part every migration error shares: the step that failed
// and the underlying cause.
type failure struct {
	Operation string
	Err       error
}

func (f failure) Unwrap() error { return f.Err }

// MigrationError reports a problem with one migration file.
type MigrationError struct {
	failure
	Version  string
	FilePath string
}

func (e *MigrationError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("migration %s: %s: %v", e.FilePath, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
}

// NewMigrationError wraps err with the version and file it concerns.
func NewMigrationError(version, filePath, operation string, err error) *MigrationError {
	return &MigrationError{failure: failure{Operation: operation, Err: err}, Version: version, FilePath: filePath}
}

// FileSystemError reports a failure reading the migration source.
type FileSystemError struct {
	failure
	Path string
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("migration source %s: %s: %v", e.Path, e.Operation, e.Err)
}

// NewFileSystemError wraps err with the path being read.
func NewFileSystemError(path, operation string, err error) *FileSystemError {
	return &FileSystemError{failure: failure{Operation: operation, Err: err}, Path: path}
}

// DatabaseError reports a failed statement; Statement is empty for
// transaction control.
type DatabaseError struct {
	failure
	Version   string
	Statement string
}

func (e *DatabaseError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("migration database: %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("migration %s database: %s: %v", e.Version, e.Operation, e.Err)
}

// NewDatabaseError wraps err with the migration version and statement.
func NewDatabaseError(version, statement, operation string, err error) *DatabaseError {
	return &DatabaseError{failure: failure{Operation: operation, Err: err}, Version: version, Statement: statement}
}

// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are read from an fs.FS (the service embeds them) and follow
// the naming convention {version}_{description}.sql, for example
// "001_initial_schema.sql". Versions must form a gap-free sequence. Each file
// runs in its own transaction together with the schema_migrations row that
// records its version and checksum, so a failed file leaves no trace.
//
// Example usage:
//
//	manager := NewMigrationManager(NewFileScanner(), NewSQLiteExecutor(db), migrations, "migrations", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration

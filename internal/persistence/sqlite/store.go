package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationsDir is the directory of the schema files inside Migrations().
const MigrationsDir = "migrations"

// Migrations returns the embedded schema files.
func Migrations() fs.FS {
	return migrationFiles
}

// Store implements persistence.Transactor on top of a ConnectionPool.
type Store struct {
	pool   *ConnectionPool
	logger *slog.Logger
}

var _ persistence.Transactor = (*Store)(nil)

// Open connects to the database described by config.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return NewStore(pool, logger), nil
}

// NewStore wraps an existing pool.
func NewStore(pool *ConnectionPool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	manager := s.migrationManager()
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending schema versions.
func (s *Store) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	return s.migrationManager().GetMigrationStatus(ctx)
}

func (s *Store) migrationManager() migration.MigrationManager {
	return migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLiteExecutor(s.pool.DB()),
		Migrations(),
		MigrationsDir,
		s.logger,
	)
}

// WithinTransaction runs fn with repositories bound to a new transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn persistence.TxFunc) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(ctx, newRepositories(tx))
	})
}

// WithinReadOnlyTransaction runs fn against a single snapshot.
func (s *Store) WithinReadOnlyTransaction(ctx context.Context, fn persistence.TxFunc) error {
	return s.pool.WithReadOnlyTransaction(ctx, func(tx *sql.Tx) error {
		return fn(ctx, newRepositories(tx))
	})
}

// Repositories returns repositories that run each statement on its own.
func (s *Store) Repositories() persistence.Repositories {
	return newRepositories(s.pool.DB())
}

type repositories struct {
	helper *QueryHelper
}

func newRepositories(q querier) *repositories {
	return &repositories{helper: NewQueryHelper(q)}
}

func (r *repositories) Users() persistence.UserRepository {
	return &UserRepository{helper: r.helper}
}

func (r *repositories) Projects() persistence.ProjectRepository {
	return &ProjectRepository{helper: r.helper}
}

func (r *repositories) Iterations() persistence.IterationRepository {
	return &IterationRepository{helper: r.helper}
}

func (r *repositories) WorkItems() persistence.WorkItemRepository {
	return &WorkItemRepository{helper: r.helper}
}

func (r *repositories) WorkSessions() persistence.WorkSessionRepository {
	return &WorkSessionRepository{helper: r.helper}
}

func (r *repositories) DropPlan() persistence.DropPlanRepository {
	return &DropPlanRepository{helper: r.helper}
}

func (r *repositories) Calendar() persistence.CalendarRepository {
	return &CalendarRepository{helper: r.helper}
}

func (r *repositories) Sessions() persistence.SessionRepository {
	return &SessionRepository{helper: r.helper}
}

package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/persistence/sqlite"
	"github.com/example/dropplan/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides a migrated store backed by a temporary SQLite file
// for integration-style tests.
type SQLiteHarness struct {
	Store *sqlite.Store

	tb      testing.TB
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// Transactor returns the store as a persistence.Transactor.
func (h *SQLiteHarness) Transactor() persistence.Transactor {
	return h.Store
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "dropplan.db")

	store, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		tb:    tb,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// seed runs fn in a write transaction and fails the test on error.
func (h *SQLiteHarness) seed(fn persistence.TxFunc) {
	h.tb.Helper()
	if err := h.Store.WithinTransaction(context.Background(), fn); err != nil {
		h.tb.Fatalf("seed: %v", err)
	}
}

// SeedUser stores a user fixture.
func (h *SQLiteHarness) SeedUser(f UserFixture) UserFixture {
	h.tb.Helper()
	h.seed(func(ctx context.Context, repos persistence.Repositories) error {
		return repos.Users().CreateUser(ctx, f.Persistence())
	})
	return f
}

// SeedProject stores a project fixture with its members.
func (h *SQLiteHarness) SeedProject(f ProjectFixture) ProjectFixture {
	h.tb.Helper()
	h.seed(func(ctx context.Context, repos persistence.Repositories) error {
		if err := repos.Projects().CreateProject(ctx, f.Persistence()); err != nil {
			return err
		}
		for _, userID := range f.Members {
			member := persistence.ProjectMember{
				ProjectID: f.ID,
				UserID:    userID,
				AddedBy:   f.CreatedBy,
				AddedAt:   f.CreatedAt,
			}
			if err := repos.Projects().AddMember(ctx, member); err != nil {
				return err
			}
		}
		return nil
	})
	return f
}

// SeedIteration stores an iteration fixture.
func (h *SQLiteHarness) SeedIteration(f IterationFixture) IterationFixture {
	h.tb.Helper()
	h.seed(func(ctx context.Context, repos persistence.Repositories) error {
		return repos.Iterations().CreateIteration(ctx, f.Persistence())
	})
	return f
}

// SeedWorkItem stores a work item fixture.
func (h *SQLiteHarness) SeedWorkItem(f WorkItemFixture) WorkItemFixture {
	h.tb.Helper()
	h.seed(func(ctx context.Context, repos persistence.Repositories) error {
		return repos.WorkItems().CreateWorkItem(ctx, f.Persistence())
	})
	return f
}

// SeedWorkSession stores a work session.
func (h *SQLiteHarness) SeedWorkSession(session persistence.WorkSession) persistence.WorkSession {
	h.tb.Helper()
	h.seed(func(ctx context.Context, repos persistence.Repositories) error {
		return repos.WorkSessions().CreateWorkSession(ctx, session)
	})
	return session
}

// SeedSession stores an authentication session fixture.
func (h *SQLiteHarness) SeedSession(f SessionFixture) SessionFixture {
	h.tb.Helper()
	h.seed(func(ctx context.Context, repos persistence.Repositories) error {
		_, err := repos.Sessions().CreateSession(ctx, f.Persistence())
		return err
	})
	return f
}

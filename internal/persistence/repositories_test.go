package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
	"github.com/example/dropplan/internal/testfixtures"
)

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates, rotates, revokes and prunes session tokens", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		now := testfixtures.ReferenceTime()
		user := harness.SeedUser(testfixtures.NewUserFixture())
		session := testfixtures.NewSessionFixture(user.ID, testfixtures.WithSessionToken("token-1")).Persistence()

		err := harness.Store.WithinTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
			created, err := repos.Sessions().CreateSession(ctx, session)
			if err != nil {
				return err
			}
			if created.Token != session.Token || created.ExpiresAt.IsZero() {
				t.Fatalf("unexpected created session: %#v", created)
			}

			session.Token = "token-2"
			session.Fingerprint = "fp-2"
			session.UpdatedAt = now.Add(6 * time.Hour)
			session.ExpiresAt = now.Add(48 * time.Hour)
			if _, err := repos.Sessions().UpdateSession(ctx, session); err != nil {
				return err
			}

			fetched, err := repos.Sessions().GetSession(ctx, "token-2")
			if err != nil {
				return err
			}
			if fetched.ID != session.ID || fetched.Fingerprint != "fp-2" {
				t.Fatalf("unexpected rotated session: %#v", fetched)
			}

			revokedAt := now.Add(12 * time.Hour)
			revoked, err := repos.Sessions().RevokeSession(ctx, "token-2", revokedAt)
			if err != nil {
				return err
			}
			if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
				t.Fatalf("expected revoked timestamp, got %#v", revoked.RevokedAt)
			}

			if err := repos.Sessions().DeleteExpiredSessions(ctx, now.Add(72*time.Hour)); err != nil {
				return err
			}
			if _, err := repos.Sessions().GetSession(ctx, "token-2"); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after pruning, got %v", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("session lifecycle failed: %v", err)
		}
	})

	t.Run("enforces foreign keys and unique tokens", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		now := testfixtures.ReferenceTime()
		user := harness.SeedUser(testfixtures.NewUserFixture())
		harness.SeedSession(testfixtures.NewSessionFixture(user.ID, testfixtures.WithSessionToken("token")))

		err := harness.Store.WithinTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
			duplicate := testfixtures.NewSessionFixture(user.ID, testfixtures.WithSessionToken("token")).Persistence()
			if _, err := repos.Sessions().CreateSession(ctx, duplicate); !errors.Is(err, persistence.ErrDuplicate) {
				t.Fatalf("expected persistence.ErrDuplicate, got %v", err)
			}

			foreign := testfixtures.NewSessionFixture("missing").Persistence()
			if _, err := repos.Sessions().CreateSession(ctx, foreign); !errors.Is(err, persistence.ErrForeignKeyViolation) {
				t.Fatalf("expected persistence.ErrForeignKeyViolation, got %v", err)
			}

			unknown := testfixtures.NewSessionFixture(user.ID, testfixtures.WithSessionToken("does-not-exist")).Persistence()
			if _, err := repos.Sessions().UpdateSession(ctx, unknown); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected persistence.ErrNotFound on update, got %v", err)
			}
			if _, err := repos.Sessions().RevokeSession(ctx, "unknown", now); !errors.Is(err, persistence.ErrNotFound) {
				t.Fatalf("expected persistence.ErrNotFound on revoke, got %v", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("transaction failed: %v", err)
		}
	})
}

func TestProjectDeletionCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	defer harness.Close()

	owner := harness.SeedUser(testfixtures.NewUserFixture())
	project := harness.SeedProject(testfixtures.NewProjectFixture(owner.ID))
	sprint := harness.SeedIteration(testfixtures.NewIterationFixture(project.ID))
	epic := harness.SeedWorkItem(testfixtures.NewWorkItemFixture(project.ID, planning.TypeEpic, owner.ID))
	feature := harness.SeedWorkItem(testfixtures.NewWorkItemFixture(project.ID, planning.TypeFeature, owner.ID, testfixtures.WithWorkItemParent(epic.ID)))
	story := harness.SeedWorkItem(testfixtures.NewWorkItemFixture(project.ID, planning.TypeUserStory, owner.ID, testfixtures.WithWorkItemParent(feature.ID)))
	task := harness.SeedWorkItem(testfixtures.NewWorkItemFixture(project.ID, planning.TypeTask, owner.ID,
		testfixtures.WithWorkItemParent(story.ID),
		testfixtures.WithWorkItemIteration(sprint.ID),
		testfixtures.WithWorkItemEstimation("3")))
	started := testfixtures.ReferenceTime()
	harness.SeedWorkSession(persistence.WorkSession{
		ID:         "ws-1",
		WorkItemID: task.ID,
		UserID:     owner.ID,
		StartedAt:  started,
		CreatedAt:  started,
	})

	err := harness.Store.WithinTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if err := repos.DropPlan().CreateItem(ctx, persistence.DropPlanItem{
			ID:             "plan-1",
			IterationID:    sprint.ID,
			WorkItemID:     task.ID,
			AssignedUserID: owner.ID,
			PlannedDate:    sprint.StartDate,
			CreatedAt:      started,
			UpdatedAt:      started,
		}); err != nil {
			return err
		}
		return repos.Projects().DeleteProject(ctx, project.ID)
	})
	if err != nil {
		t.Fatalf("delete project failed: %v", err)
	}

	err = harness.Store.WithinReadOnlyTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := repos.Iterations().GetIteration(ctx, sprint.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected iteration to be removed, got %v", err)
		}
		if _, err := repos.WorkItems().GetWorkItem(ctx, task.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected task to be removed, got %v", err)
		}
		if _, err := repos.WorkSessions().GetWorkSession(ctx, "ws-1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected work session to be removed, got %v", err)
		}
		if _, err := repos.DropPlan().GetItem(ctx, "plan-1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected drop plan entry to be removed, got %v", err)
		}
		if _, err := repos.Users().GetUser(ctx, owner.ID); err != nil {
			t.Fatalf("expected owner to survive, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
}

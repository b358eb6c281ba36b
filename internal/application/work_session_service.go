package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// WorkSessionService tracks time spent on tasks.
type WorkSessionService struct {
	serviceDeps
}

// NewWorkSessionService wires dependencies for the work session service.
func NewWorkSessionService(tx persistence.Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WorkSessionService {
	return &WorkSessionService{serviceDeps: newServiceDeps(tx, idGenerator, now, logger)}
}

func (s *WorkSessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WorkSessionService", operation, attrs...)
}

// ListTaskSessions returns the sessions of a task, newest first.
func (s *WorkSessionService) ListTaskSessions(ctx context.Context, principal Principal, projectID, taskID string) (sessions []WorkSession, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadTask(ctx, repos, principal, projectID, taskID); err != nil {
			return err
		}
		stored, err := repos.WorkSessions().ListWorkItemSessions(ctx, taskID)
		if err != nil {
			return err
		}
		sessions = toWorkSessions(stored)
		return nil
	})
	return
}

// CreateSession records time on a task for the principal. A task holds at
// most one open session.
func (s *WorkSessionService) CreateSession(ctx context.Context, principal Principal, projectID, taskID string, input WorkSessionInput) (session WorkSession, err error) {
	logger := s.loggerWith(ctx, "CreateSession", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", taskID)
	defer func() { logOutcome(ctx, logger, "work session creation", err, "session_id", session.ID) }()

	record := persistence.WorkSession{
		ID:          s.idGenerator(),
		WorkItemID:  taskID,
		UserID:      principal.UserID,
		Description: trimOptional(input.Description),
		StartedAt:   input.StartedAt.UTC(),
		EndedAt:     utcOrNil(input.EndedAt),
		CreatedAt:   s.clock(),
	}
	if vErr := closeSession(&record); vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadTask(ctx, repos, principal, projectID, taskID); err != nil {
			return err
		}
		if err := ensureNoOpenSession(ctx, repos, taskID, ""); err != nil {
			return err
		}
		if err := repos.WorkSessions().CreateWorkSession(ctx, record); err != nil {
			return err
		}
		session = toWorkSession(record)
		return nil
	})
	return
}

// UpdateSession applies a partial update and recomputes the session total.
// Sessions are edited by their owner or by managers.
func (s *WorkSessionService) UpdateSession(ctx context.Context, principal Principal, projectID, taskID, sessionID string, patch WorkSessionPatch) (session WorkSession, err error) {
	logger := s.loggerWith(ctx, "UpdateSession", "principal_id", principal.UserID, "project_id", projectID, "session_id", sessionID)
	defer func() { logOutcome(ctx, logger, "work session update", err) }()

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		current, err := loadSession(ctx, repos, principal, projectID, taskID, sessionID)
		if err != nil {
			return err
		}
		wasOpen := current.EndedAt == nil

		if patch.Description != nil {
			current.Description = trimOptional(patch.Description)
		}
		if patch.StartedAt != nil {
			current.StartedAt = patch.StartedAt.UTC()
		}
		switch {
		case patch.Reopen:
			current.EndedAt = nil
		case patch.EndedAt != nil:
			current.EndedAt = utcOrNil(patch.EndedAt)
		}
		if vErr := closeSession(&current); vErr.HasErrors() {
			return vErr
		}
		if !wasOpen && current.EndedAt == nil {
			if err := ensureNoOpenSession(ctx, repos, taskID, current.ID); err != nil {
				return err
			}
		}

		if err := repos.WorkSessions().UpdateWorkSession(ctx, current); err != nil {
			return err
		}
		session = toWorkSession(current)
		return nil
	})
	return
}

// DeleteSession removes a session.
func (s *WorkSessionService) DeleteSession(ctx context.Context, principal Principal, projectID, taskID, sessionID string) (err error) {
	logger := s.loggerWith(ctx, "DeleteSession", "principal_id", principal.UserID, "project_id", projectID, "session_id", sessionID)
	defer func() { logOutcome(ctx, logger, "work session deletion", err) }()

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadSession(ctx, repos, principal, projectID, taskID, sessionID); err != nil {
			return err
		}
		return repos.WorkSessions().DeleteWorkSession(ctx, sessionID)
	})
	return
}

// ListUserSessions returns the sessions of a user started within [from, to],
// both days inclusive, oldest first.
func (s *WorkSessionService) ListUserSessions(ctx context.Context, principal Principal, userID string, from, to time.Time) (sessions []WorkSession, err error) {
	from, to = planning.Day(from), planning.Day(to)
	if from.After(to) {
		err = validationError("date_from", "date_from must not be after date_to")
		return
	}

	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := repos.Users().GetUser(ctx, userID); err != nil {
			return err
		}
		stored, err := repos.WorkSessions().ListUserSessions(ctx, userID, from, to)
		if err != nil {
			return err
		}
		sessions = toWorkSessions(stored)
		return nil
	})
	return
}

// loadTask returns a Task-typed work item of a project the principal can see.
func loadTask(ctx context.Context, repos persistence.Repositories, principal Principal, projectID, taskID string) (persistence.WorkItem, error) {
	if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
		return persistence.WorkItem{}, err
	}
	item, err := loadWorkItem(ctx, repos, projectID, taskID)
	if err != nil {
		return persistence.WorkItem{}, err
	}
	if planning.ItemType(item.Type) != planning.TypeTask {
		return persistence.WorkItem{}, validationError("work_item_id", "work sessions are only available for tasks")
	}
	return item, nil
}

func loadSession(ctx context.Context, repos persistence.Repositories, principal Principal, projectID, taskID, sessionID string) (persistence.WorkSession, error) {
	if _, err := loadTask(ctx, repos, principal, projectID, taskID); err != nil {
		return persistence.WorkSession{}, err
	}
	session, err := repos.WorkSessions().GetWorkSession(ctx, sessionID)
	if err != nil {
		return persistence.WorkSession{}, translateError(err)
	}
	if session.WorkItemID != taskID {
		return persistence.WorkSession{}, ErrNotFound
	}
	if session.UserID != principal.UserID && !principal.CanManage() {
		return persistence.WorkSession{}, ErrUnauthorized
	}
	return session, nil
}

// ensureNoOpenSession rejects a second running session on a task. exceptID is
// the session being edited.
func ensureNoOpenSession(ctx context.Context, repos persistence.Repositories, taskID, exceptID string) error {
	open, err := repos.WorkSessions().FindOpenSession(ctx, taskID)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return nil
	case err != nil:
		return err
	case open.ID == exceptID:
		return nil
	}
	return conflictf("cannot open a new session while session %s is still open", open.ID)
}

// closeSession checks the bounds of a session and sets its total hours, or
// clears the total while it is open.
func closeSession(session *persistence.WorkSession) *ValidationError {
	vErr := &ValidationError{}
	if session.StartedAt.IsZero() {
		vErr.add("started_at", "started_at is required")
		return vErr
	}
	if session.EndedAt == nil {
		session.TotalHours = nil
		return vErr
	}
	if !session.EndedAt.After(session.StartedAt) {
		vErr.add("ended_at", "ended_at must be after started_at")
		return vErr
	}
	total := planning.SessionHours(session.StartedAt, *session.EndedAt)
	session.TotalHours = &total
	return vErr
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

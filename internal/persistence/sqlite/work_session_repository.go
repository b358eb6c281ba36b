package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// WorkSessionRepository implements persistence.WorkSessionRepository using SQLite
type WorkSessionRepository struct {
	helper *QueryHelper
}

const workSessionColumns = `id, work_item_id, user_id, description, started_at, ended_at, total_hours, created_at`

// CreateWorkSession inserts a session. A second open session for the same
// work item is rejected by ux_work_sessions_open_per_task.
func (r *WorkSessionRepository) CreateWorkSession(ctx context.Context, session persistence.WorkSession) error {
	if session.ID == "" || session.WorkItemID == "" || session.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO work_sessions (`+workSessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.WorkItemID,
		session.UserID,
		nullString(session.Description),
		formatInstant(session.StartedAt),
		nullInstant(session.EndedAt),
		nullDecimal(session.TotalHours),
		formatInstant(session.CreatedAt),
	)
	return err
}

// UpdateWorkSession overwrites the mutable columns of a session
func (r *WorkSessionRepository) UpdateWorkSession(ctx context.Context, session persistence.WorkSession) error {
	return r.helper.ExecOne(ctx, `
		UPDATE work_sessions
		SET description = ?, started_at = ?, ended_at = ?, total_hours = ?
		WHERE id = ?
	`,
		nullString(session.Description),
		formatInstant(session.StartedAt),
		nullInstant(session.EndedAt),
		nullDecimal(session.TotalHours),
		session.ID,
	)
}

// GetWorkSession retrieves a session by ID
func (r *WorkSessionRepository) GetWorkSession(ctx context.Context, id string) (persistence.WorkSession, error) {
	if id == "" {
		return persistence.WorkSession{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+workSessionColumns+` FROM work_sessions WHERE id = ?`, id)
	return scanWorkSession(row, r.helper.mapper)
}

// ListWorkItemSessions returns the sessions of a work item, newest first
func (r *WorkSessionRepository) ListWorkItemSessions(ctx context.Context, workItemID string) ([]persistence.WorkSession, error) {
	return r.query(ctx, `
		SELECT `+workSessionColumns+` FROM work_sessions
		WHERE work_item_id = ?
		ORDER BY started_at DESC, id DESC
	`, workItemID)
}

// ListUserSessions returns the sessions of a user started on a UTC date in
// [from, to], oldest first
func (r *WorkSessionRepository) ListUserSessions(ctx context.Context, userID string, from, to time.Time) ([]persistence.WorkSession, error) {
	return r.query(ctx, `
		SELECT `+workSessionColumns+` FROM work_sessions
		WHERE user_id = ? AND substr(started_at, 1, 10) BETWEEN ? AND ?
		ORDER BY started_at ASC, id ASC
	`, userID, planning.FormatDay(from), planning.FormatDay(to))
}

// FindOpenSession returns the running session of a work item
func (r *WorkSessionRepository) FindOpenSession(ctx context.Context, workItemID string) (persistence.WorkSession, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT `+workSessionColumns+` FROM work_sessions
		WHERE work_item_id = ? AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`, workItemID)
	return scanWorkSession(row, r.helper.mapper)
}

// DeleteWorkSession removes a session
func (r *WorkSessionRepository) DeleteWorkSession(ctx context.Context, id string) error {
	return r.helper.ExecOne(ctx, `DELETE FROM work_sessions WHERE id = ?`, id)
}

func (r *WorkSessionRepository) query(ctx context.Context, query string, args ...any) ([]persistence.WorkSession, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []persistence.WorkSession{}
	for rows.Next() {
		session, err := scanWorkSession(rows, r.helper.mapper)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, r.helper.mapper.MapError(err)
	}
	return sessions, nil
}

func scanWorkSession(row scanner, mapper *ErrorMapper) (persistence.WorkSession, error) {
	var (
		session                     persistence.WorkSession
		description, endedAt, total sql.NullString
		startedAt, createdAt        string
	)
	err := row.Scan(
		&session.ID,
		&session.WorkItemID,
		&session.UserID,
		&description,
		&startedAt,
		&endedAt,
		&total,
		&createdAt,
	)
	if err != nil {
		return persistence.WorkSession{}, mapper.MapError(err)
	}

	session.Description = stringPtr(description)
	if session.StartedAt, err = parseInstant(startedAt); err != nil {
		return persistence.WorkSession{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if session.EndedAt, err = parseNullInstant(endedAt); err != nil {
		return persistence.WorkSession{}, fmt.Errorf("failed to parse ended_at: %w", err)
	}
	if session.TotalHours, err = parseNullDecimal(total); err != nil {
		return persistence.WorkSession{}, fmt.Errorf("failed to parse total_hours: %w", err)
	}
	if session.CreatedAt, err = parseInstant(createdAt); err != nil {
		return persistence.WorkSession{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return session, nil
}

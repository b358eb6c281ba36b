package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// IterationRepository implements persistence.IterationRepository using SQLite
type IterationRepository struct {
	helper *QueryHelper
}

const iterationColumns = `id, project_id, name, goal, start_date, end_date, state, working_days, created_at, updated_at`

// CreateIteration inserts a new sprint
func (r *IterationRepository) CreateIteration(ctx context.Context, iteration persistence.Iteration) error {
	if iteration.ID == "" || iteration.ProjectID == "" {
		return persistence.ErrConstraintViolation
	}
	days, err := encodeDays(iteration.WorkingDays)
	if err != nil {
		return err
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO iterations (`+iterationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		iteration.ID,
		iteration.ProjectID,
		iteration.Name,
		nullString(iteration.Goal),
		planning.FormatDay(iteration.StartDate),
		planning.FormatDay(iteration.EndDate),
		iteration.State,
		days,
		formatInstant(iteration.CreatedAt),
		formatInstant(iteration.UpdatedAt),
	)
	return err
}

// UpdateIteration overwrites the mutable columns of a sprint
func (r *IterationRepository) UpdateIteration(ctx context.Context, iteration persistence.Iteration) error {
	days, err := encodeDays(iteration.WorkingDays)
	if err != nil {
		return err
	}

	return r.helper.ExecOne(ctx, `
		UPDATE iterations
		SET name = ?, goal = ?, start_date = ?, end_date = ?, state = ?, working_days = ?, updated_at = ?
		WHERE id = ?
	`,
		iteration.Name,
		nullString(iteration.Goal),
		planning.FormatDay(iteration.StartDate),
		planning.FormatDay(iteration.EndDate),
		iteration.State,
		days,
		formatInstant(iteration.UpdatedAt),
		iteration.ID,
	)
}

// GetIteration retrieves a sprint by ID
func (r *IterationRepository) GetIteration(ctx context.Context, id string) (persistence.Iteration, error) {
	if id == "" {
		return persistence.Iteration{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+iterationColumns+` FROM iterations WHERE id = ?`, id)
	return scanIteration(row, r.helper.mapper)
}

// ListIterations returns the sprints of a project ordered by start date
func (r *IterationRepository) ListIterations(ctx context.Context, projectID string) ([]persistence.Iteration, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT `+iterationColumns+` FROM iterations
		WHERE project_id = ?
		ORDER BY start_date ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	iterations := []persistence.Iteration{}
	for rows.Next() {
		iteration, err := scanIteration(rows, r.helper.mapper)
		if err != nil {
			return nil, err
		}
		iterations = append(iterations, iteration)
	}
	if err := rows.Err(); err != nil {
		return nil, r.helper.mapper.MapError(err)
	}
	return iterations, nil
}

// DeleteIteration removes a sprint; its plan entries go with it and work
// items lose their iteration.
func (r *IterationRepository) DeleteIteration(ctx context.Context, id string) error {
	return r.helper.ExecOne(ctx, `DELETE FROM iterations WHERE id = ?`, id)
}

func scanIteration(row scanner, mapper *ErrorMapper) (persistence.Iteration, error) {
	var (
		iteration            persistence.Iteration
		goal                 sql.NullString
		start, end, days     string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&iteration.ID,
		&iteration.ProjectID,
		&iteration.Name,
		&goal,
		&start,
		&end,
		&iteration.State,
		&days,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Iteration{}, mapper.MapError(err)
	}

	iteration.Goal = stringPtr(goal)
	if iteration.StartDate, err = planning.ParseDay(start); err != nil {
		return persistence.Iteration{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if iteration.EndDate, err = planning.ParseDay(end); err != nil {
		return persistence.Iteration{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if iteration.WorkingDays, err = decodeDays(days); err != nil {
		return persistence.Iteration{}, fmt.Errorf("failed to parse working_days: %w", err)
	}
	if iteration.CreatedAt, err = parseInstant(createdAt); err != nil {
		return persistence.Iteration{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if iteration.UpdatedAt, err = parseInstant(updatedAt); err != nil {
		return persistence.Iteration{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return iteration, nil
}

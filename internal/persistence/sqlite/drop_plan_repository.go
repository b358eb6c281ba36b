package sqlite

import (
	"context"
	"fmt"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// DropPlanRepository implements persistence.DropPlanRepository using SQLite
type DropPlanRepository struct {
	helper *QueryHelper
}

const dropPlanColumns = `id, iteration_id, work_item_id, assigned_user_id, planned_date, order_index, created_at, updated_at`

// CreateItem inserts a plan entry. A second entry for the same work item in
// the same iteration fails with persistence.ErrDuplicate.
func (r *DropPlanRepository) CreateItem(ctx context.Context, item persistence.DropPlanItem) error {
	if item.ID == "" || item.IterationID == "" || item.WorkItemID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO drop_plan_items (`+dropPlanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		item.IterationID,
		item.WorkItemID,
		item.AssignedUserID,
		planning.FormatDay(item.PlannedDate),
		item.OrderIndex,
		formatInstant(item.CreatedAt),
		formatInstant(item.UpdatedAt),
	)
	return err
}

// UpdateItem overwrites the schedulable columns of a plan entry
func (r *DropPlanRepository) UpdateItem(ctx context.Context, item persistence.DropPlanItem) error {
	return r.helper.ExecOne(ctx, `
		UPDATE drop_plan_items
		SET assigned_user_id = ?, planned_date = ?, order_index = ?, updated_at = ?
		WHERE id = ?
	`,
		item.AssignedUserID,
		planning.FormatDay(item.PlannedDate),
		item.OrderIndex,
		formatInstant(item.UpdatedAt),
		item.ID,
	)
}

// GetItem retrieves a plan entry by ID
func (r *DropPlanRepository) GetItem(ctx context.Context, id string) (persistence.DropPlanItem, error) {
	if id == "" {
		return persistence.DropPlanItem{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+dropPlanColumns+` FROM drop_plan_items WHERE id = ?`, id)
	return scanDropPlanItem(row, r.helper.mapper)
}

// FindItemForWorkItem returns the entry planning workItemID in iterationID
func (r *DropPlanRepository) FindItemForWorkItem(ctx context.Context, iterationID, workItemID string) (persistence.DropPlanItem, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT `+dropPlanColumns+` FROM drop_plan_items
		WHERE iteration_id = ? AND work_item_id = ?
	`, iterationID, workItemID)
	return scanDropPlanItem(row, r.helper.mapper)
}

// ListItems returns entries ordered by planned date then order index
func (r *DropPlanRepository) ListItems(ctx context.Context, filter persistence.DropPlanFilter) ([]persistence.DropPlanItem, error) {
	query := `SELECT ` + dropPlanColumns + ` FROM drop_plan_items WHERE iteration_id = ?`
	args := []any{filter.IterationID}
	if filter.AssignedUserID != nil {
		query += ` AND assigned_user_id = ?`
		args = append(args, *filter.AssignedUserID)
	}
	query += ` ORDER BY planned_date ASC, order_index ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []persistence.DropPlanItem{}
	for rows.Next() {
		item, err := scanDropPlanItem(rows, r.helper.mapper)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.helper.mapper.MapError(err)
	}
	return items, nil
}

// DeleteItem removes a plan entry
func (r *DropPlanRepository) DeleteItem(ctx context.Context, id string) error {
	return r.helper.ExecOne(ctx, `DELETE FROM drop_plan_items WHERE id = ?`, id)
}

func scanDropPlanItem(row scanner, mapper *ErrorMapper) (persistence.DropPlanItem, error) {
	var (
		item                          persistence.DropPlanItem
		planned, createdAt, updatedAt string
	)
	err := row.Scan(
		&item.ID,
		&item.IterationID,
		&item.WorkItemID,
		&item.AssignedUserID,
		&planned,
		&item.OrderIndex,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.DropPlanItem{}, mapper.MapError(err)
	}

	if item.PlannedDate, err = planning.ParseDay(planned); err != nil {
		return persistence.DropPlanItem{}, fmt.Errorf("failed to parse planned_date: %w", err)
	}
	if item.CreatedAt, err = parseInstant(createdAt); err != nil {
		return persistence.DropPlanItem{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseInstant(updatedAt); err != nil {
		return persistence.DropPlanItem{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return item, nil
}

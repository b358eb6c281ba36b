package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/dropplan/internal/persistence"
)

// WorkItemRepository implements persistence.WorkItemRepository using SQLite
type WorkItemRepository struct {
	helper *QueryHelper
}

const workItemColumns = `id, project_id, type, title, description, state, priority, parent_id, assigned_to,
	iteration_id, estimation_hours, tags, start_date, end_date, created_by, created_at, updated_at`

// CreateWorkItem inserts a new work item
func (r *WorkItemRepository) CreateWorkItem(ctx context.Context, item persistence.WorkItem) error {
	if item.ID == "" || item.ProjectID == "" {
		return persistence.ErrConstraintViolation
	}
	tags, err := encodeStrings(item.Tags)
	if err != nil {
		return err
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO work_items (`+workItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		item.ProjectID,
		item.Type,
		item.Title,
		nullString(item.Description),
		item.State,
		item.Priority,
		nullString(item.ParentID),
		nullString(item.AssignedTo),
		nullString(item.IterationID),
		nullDecimal(item.EstimationHours),
		tags,
		nullDay(item.StartDate),
		nullDay(item.EndDate),
		item.CreatedBy,
		formatInstant(item.CreatedAt),
		formatInstant(item.UpdatedAt),
	)
	return err
}

// UpdateWorkItem overwrites the mutable columns of a work item
func (r *WorkItemRepository) UpdateWorkItem(ctx context.Context, item persistence.WorkItem) error {
	tags, err := encodeStrings(item.Tags)
	if err != nil {
		return err
	}

	return r.helper.ExecOne(ctx, `
		UPDATE work_items
		SET title = ?, description = ?, state = ?, priority = ?, parent_id = ?, assigned_to = ?,
			iteration_id = ?, estimation_hours = ?, tags = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`,
		item.Title,
		nullString(item.Description),
		item.State,
		item.Priority,
		nullString(item.ParentID),
		nullString(item.AssignedTo),
		nullString(item.IterationID),
		nullDecimal(item.EstimationHours),
		tags,
		nullDay(item.StartDate),
		nullDay(item.EndDate),
		formatInstant(item.UpdatedAt),
		item.ID,
	)
}

// GetWorkItem retrieves a work item by ID
func (r *WorkItemRepository) GetWorkItem(ctx context.Context, id string) (persistence.WorkItem, error) {
	if id == "" {
		return persistence.WorkItem{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id)
	return scanWorkItem(row, r.helper.mapper)
}

// ListWorkItems returns the items matching filter, newest first
func (r *WorkItemRepository) ListWorkItems(ctx context.Context, filter persistence.WorkItemFilter) ([]persistence.WorkItem, error) {
	clauses := []string{`project_id = ?`}
	args := []any{filter.ProjectID}

	add := func(column string, value *string) {
		if value != nil {
			clauses = append(clauses, column+` = ?`)
			args = append(args, *value)
		}
	}
	add(`type`, filter.Type)
	add(`state`, filter.State)
	add(`iteration_id`, filter.IterationID)
	add(`parent_id`, filter.ParentID)
	if filter.Unassigned {
		clauses = append(clauses, `assigned_to IS NULL`)
	} else {
		add(`assigned_to`, filter.AssignedTo)
	}

	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE ` +
		strings.Join(clauses, ` AND `) + ` ORDER BY created_at DESC, id DESC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []persistence.WorkItem{}
	for rows.Next() {
		item, err := scanWorkItem(rows, r.helper.mapper)
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

// ListChildIDs returns the ids of the direct children of parentID
func (r *WorkItemRepository) ListChildIDs(ctx context.Context, parentID string) ([]string, error) {
	rows, err := r.helper.Query(ctx, `SELECT id FROM work_items WHERE parent_id = ? ORDER BY id`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.helper.mapper.MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, r.helper.mapper.MapError(err)
	}
	return ids, nil
}

// SetState moves every listed item to state
func (r *WorkItemRepository) SetState(ctx context.Context, ids []string, state string, updatedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+2)
	args = append(args, state, formatInstant(updatedAt))
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := r.helper.Exec(ctx, `UPDATE work_items SET state = ?, updated_at = ? WHERE id IN (`+placeholders+`)`, args...)
	return err
}

// DeleteWorkItem removes a work item and, through the parent foreign key, its subtree
func (r *WorkItemRepository) DeleteWorkItem(ctx context.Context, id string) error {
	return r.helper.ExecOne(ctx, `DELETE FROM work_items WHERE id = ?`, id)
}

func scanWorkItem(row scanner, mapper *ErrorMapper) (persistence.WorkItem, error) {
	var (
		item                                persistence.WorkItem
		description, parentID, assignedTo   sql.NullString
		iterationID, estimation, start, end sql.NullString
		tags, createdAt, updatedAt          string
	)
	err := row.Scan(
		&item.ID,
		&item.ProjectID,
		&item.Type,
		&item.Title,
		&description,
		&item.State,
		&item.Priority,
		&parentID,
		&assignedTo,
		&iterationID,
		&estimation,
		&tags,
		&start,
		&end,
		&item.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.WorkItem{}, mapper.MapError(err)
	}

	item.Description = stringPtr(description)
	item.ParentID = stringPtr(parentID)
	item.AssignedTo = stringPtr(assignedTo)
	item.IterationID = stringPtr(iterationID)
	if item.EstimationHours, err = parseNullDecimal(estimation); err != nil {
		return persistence.WorkItem{}, fmt.Errorf("failed to parse estimation_hours: %w", err)
	}
	if item.Tags, err = decodeStrings(tags); err != nil {
		return persistence.WorkItem{}, fmt.Errorf("failed to parse tags: %w", err)
	}
	if item.StartDate, err = parseNullDay(start); err != nil {
		return persistence.WorkItem{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if item.EndDate, err = parseNullDay(end); err != nil {
		return persistence.WorkItem{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if item.CreatedAt, err = parseInstant(createdAt); err != nil {
		return persistence.WorkItem{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseInstant(updatedAt); err != nil {
		return persistence.WorkItem{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return item, nil
}

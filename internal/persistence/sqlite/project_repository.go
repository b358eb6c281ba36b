package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/dropplan/internal/persistence"
)

// ProjectRepository implements persistence.ProjectRepository using SQLite
type ProjectRepository struct {
	helper *QueryHelper
}

const projectColumns = `p.id, p.name, p.description, p.is_active, p.created_by, p.created_at, p.updated_at`

// CreateProject inserts a new project
func (r *ProjectRepository) CreateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" || project.CreatedBy == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO projects (id, name, description, is_active, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		project.ID,
		project.Name,
		nullString(project.Description),
		project.IsActive,
		project.CreatedBy,
		formatInstant(project.CreatedAt),
		formatInstant(project.UpdatedAt),
	)
	return err
}

// UpdateProject overwrites the mutable columns of a project
func (r *ProjectRepository) UpdateProject(ctx context.Context, project persistence.Project) error {
	return r.helper.ExecOne(ctx, `
		UPDATE projects SET name = ?, description = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`,
		project.Name,
		nullString(project.Description),
		project.IsActive,
		formatInstant(project.UpdatedAt),
		project.ID,
	)
}

// GetProject retrieves a project by ID
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	if id == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id)
	return scanProject(row, r.helper.mapper)
}

// ListProjects returns projects ordered by name
func (r *ProjectRepository) ListProjects(ctx context.Context, filter persistence.ProjectFilter) ([]persistence.Project, error) {
	var (
		clauses []string
		args    []any
	)
	query := `SELECT ` + projectColumns + ` FROM projects p`
	if filter.MemberID != nil {
		query += ` JOIN project_members m ON m.project_id = p.id`
		clauses = append(clauses, `m.user_id = ?`)
		args = append(args, *filter.MemberID)
	}
	if filter.ActiveOnly {
		clauses = append(clauses, `p.is_active = 1`)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY p.name ASC, p.id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []persistence.Project{}
	for rows.Next() {
		project, err := scanProject(rows, r.helper.mapper)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, r.helper.mapper.MapError(err)
	}
	return projects, nil
}

// DeleteProject removes a project together with everything it owns
func (r *ProjectRepository) DeleteProject(ctx context.Context, id string) error {
	return r.helper.ExecOne(ctx, `DELETE FROM projects WHERE id = ?`, id)
}

// AddMember links a user to a project
func (r *ProjectRepository) AddMember(ctx context.Context, member persistence.ProjectMember) error {
	_, err := r.helper.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, added_by, added_at)
		VALUES (?, ?, ?, ?)
	`, member.ProjectID, member.UserID, member.AddedBy, formatInstant(member.AddedAt))
	return err
}

// GetMember returns the membership of a user in a project
func (r *ProjectRepository) GetMember(ctx context.Context, projectID, userID string) (persistence.ProjectMember, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT project_id, user_id, added_by, added_at
		FROM project_members WHERE project_id = ? AND user_id = ?
	`, projectID, userID)
	return scanMember(row, r.helper.mapper)
}

// ListMembers returns the memberships of a project ordered by join time
func (r *ProjectRepository) ListMembers(ctx context.Context, projectID string) ([]persistence.ProjectMember, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT project_id, user_id, added_by, added_at
		FROM project_members WHERE project_id = ?
		ORDER BY added_at ASC, user_id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []persistence.ProjectMember{}
	for rows.Next() {
		member, err := scanMember(rows, r.helper.mapper)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, r.helper.mapper.MapError(err)
	}
	return members, nil
}

// ListMemberUsers returns the users that belong to a project
func (r *ProjectRepository) ListMemberUsers(ctx context.Context, projectID string) ([]persistence.User, error) {
	return queryUsers(ctx, r.helper, `
		SELECT u.id, u.email, u.display_name, u.password_hash, u.role, u.avatar_url,
			u.capacity_per_day, u.is_active, u.created_at, u.updated_at
		FROM users u
		JOIN project_members m ON m.user_id = u.id
		WHERE m.project_id = ?
		ORDER BY u.display_name ASC, u.id ASC
	`, projectID)
}

// RemoveMember unlinks a user from a project
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	return r.helper.ExecOne(ctx, `DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
}

func scanProject(row scanner, mapper *ErrorMapper) (persistence.Project, error) {
	var (
		project              persistence.Project
		description          sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&project.ID,
		&project.Name,
		&description,
		&project.IsActive,
		&project.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Project{}, mapper.MapError(err)
	}

	project.Description = stringPtr(description)
	if project.CreatedAt, err = parseInstant(createdAt); err != nil {
		return persistence.Project{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if project.UpdatedAt, err = parseInstant(updatedAt); err != nil {
		return persistence.Project{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return project, nil
}

func scanMember(row scanner, mapper *ErrorMapper) (persistence.ProjectMember, error) {
	var (
		member  persistence.ProjectMember
		addedAt string
	)
	if err := row.Scan(&member.ProjectID, &member.UserID, &member.AddedBy, &addedAt); err != nil {
		return persistence.ProjectMember{}, mapper.MapError(err)
	}
	var err error
	if member.AddedAt, err = parseInstant(addedAt); err != nil {
		return persistence.ProjectMember{}, fmt.Errorf("failed to parse added_at: %w", err)
	}
	return member, nil
}

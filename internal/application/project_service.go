package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/persistence"
)

// ProjectService manages projects and their membership.
type ProjectService struct {
	serviceDeps
}

// NewProjectService wires dependencies for the project service.
func NewProjectService(tx persistence.Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProjectService {
	return &ProjectService{serviceDeps: newServiceDeps(tx, idGenerator, now, logger)}
}

func (s *ProjectService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProjectService", operation, attrs...)
}

// CreateProject stores a project and makes its creator the first member.
func (s *ProjectService) CreateProject(ctx context.Context, principal Principal, input ProjectInput) (project Project, err error) {
	logger := s.loggerWith(ctx, "CreateProject", "principal_id", principal.UserID)
	defer func() { logOutcome(ctx, logger, "project creation", err, "project_id", project.ID) }()

	if err = requireManager(principal); err != nil {
		return
	}

	name := strings.TrimSpace(input.Name)
	if vErr := validateProjectName(name); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.clock()
	record := persistence.Project{
		ID:          s.idGenerator(),
		Name:        name,
		Description: trimOptional(input.Description),
		IsActive:    true,
		CreatedBy:   principal.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if err := repos.Projects().CreateProject(ctx, record); err != nil {
			return err
		}
		return repos.Projects().AddMember(ctx, persistence.ProjectMember{
			ProjectID: record.ID,
			UserID:    principal.UserID,
			AddedBy:   principal.UserID,
			AddedAt:   now,
		})
	})
	if err != nil {
		return
	}

	project = toProject(record, 1)
	return
}

// ListProjects returns every active project to administrators and the
// memberships of anyone else.
func (s *ProjectService) ListProjects(ctx context.Context, principal Principal) (projects []Project, err error) {
	logger := s.loggerWith(ctx, "ListProjects", "principal_id", principal.UserID)
	defer func() { logOutcome(ctx, logger, "project listing", err, "result_count", len(projects)) }()

	filter := persistence.ProjectFilter{ActiveOnly: true}
	if !principal.IsAdmin() {
		filter.MemberID = &principal.UserID
	}

	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := repos.Projects().ListProjects(ctx, filter)
		if err != nil {
			return err
		}
		projects, err = withMemberCounts(ctx, repos, stored)
		return err
	})
	return
}

// GetProject returns a project to its members and administrators.
func (s *ProjectService) GetProject(ctx context.Context, principal Principal, projectID string) (project Project, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := loadProject(ctx, repos, principal, projectID)
		if err != nil {
			return err
		}
		members, err := repos.Projects().ListMembers(ctx, projectID)
		if err != nil {
			return err
		}
		project = toProject(stored, len(members))
		return nil
	})
	return
}

// UpdateProject applies a partial update for the creator or an administrator.
func (s *ProjectService) UpdateProject(ctx context.Context, principal Principal, projectID string, patch ProjectPatch) (project Project, err error) {
	logger := s.loggerWith(ctx, "UpdateProject", "principal_id", principal.UserID, "project_id", projectID)
	defer func() { logOutcome(ctx, logger, "project update", err) }()

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		current, err := repos.Projects().GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if !principal.IsAdmin() && current.CreatedBy != principal.UserID {
			return ErrUnauthorized
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if vErr := validateProjectName(name); vErr.HasErrors() {
				return vErr
			}
			current.Name = name
		}
		if patch.Description != nil {
			current.Description = trimOptional(patch.Description)
		}
		if patch.IsActive != nil {
			current.IsActive = *patch.IsActive
		}
		current.UpdatedAt = s.clock()

		if err := repos.Projects().UpdateProject(ctx, current); err != nil {
			return err
		}
		members, err := repos.Projects().ListMembers(ctx, projectID)
		if err != nil {
			return err
		}
		project = toProject(current, len(members))
		return nil
	})
	return
}

// DeleteProject removes a project with its iterations, work items and plan.
func (s *ProjectService) DeleteProject(ctx context.Context, principal Principal, projectID string) (err error) {
	logger := s.loggerWith(ctx, "DeleteProject", "principal_id", principal.UserID, "project_id", projectID)
	defer func() { logOutcome(ctx, logger, "project deletion", err) }()

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		current, err := repos.Projects().GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if !principal.IsAdmin() && current.CreatedBy != principal.UserID {
			return ErrUnauthorized
		}
		return repos.Projects().DeleteProject(ctx, projectID)
	})
	return
}

// ListMembers returns the members of a project with their user details.
func (s *ProjectService) ListMembers(ctx context.Context, principal Principal, projectID string) (members []ProjectMember, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		members, err = projectMembers(ctx, repos, projectID)
		return err
	})
	return
}

// AddMember adds an existing user to a project.
func (s *ProjectService) AddMember(ctx context.Context, principal Principal, projectID, userID string) (member ProjectMember, err error) {
	logger := s.loggerWith(ctx, "AddMember", "principal_id", principal.UserID, "project_id", projectID, "user_id", userID)
	defer func() { logOutcome(ctx, logger, "member addition", err) }()

	if err = requireManager(principal); err != nil {
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		user, err := repos.Users().GetUser(ctx, userID)
		if err != nil {
			return err
		}
		already, err := isMember(ctx, repos, projectID, userID)
		if err != nil {
			return err
		}
		if already {
			return conflictf("user %s is already a member of the project", userID)
		}

		record := persistence.ProjectMember{
			ProjectID: projectID,
			UserID:    userID,
			AddedBy:   principal.UserID,
			AddedAt:   s.clock(),
		}
		if err := repos.Projects().AddMember(ctx, record); err != nil {
			return err
		}
		member = toProjectMember(record, user)
		return nil
	})
	return
}

// RemoveMember removes a user from a project.
func (s *ProjectService) RemoveMember(ctx context.Context, principal Principal, projectID, userID string) (err error) {
	logger := s.loggerWith(ctx, "RemoveMember", "principal_id", principal.UserID, "project_id", projectID, "user_id", userID)
	defer func() { logOutcome(ctx, logger, "member removal", err) }()

	if err = requireManager(principal); err != nil {
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		return repos.Projects().RemoveMember(ctx, projectID, userID)
	})
	return
}

func projectMembers(ctx context.Context, repos persistence.Repositories, projectID string) ([]ProjectMember, error) {
	records, err := repos.Projects().ListMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	users, err := repos.Projects().ListMemberUsers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(records, func(m persistence.ProjectMember) string { return m.UserID })

	out := make([]ProjectMember, 0, len(users))
	for _, user := range users {
		record, ok := byID[user.ID]
		if !ok {
			return nil, errors.New("member list changed while reading")
		}
		out = append(out, toProjectMember(record, user))
	}
	return out, nil
}

func toProjectMember(record persistence.ProjectMember, user persistence.User) ProjectMember {
	return ProjectMember{
		ProjectID:      record.ProjectID,
		UserID:         user.ID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		Role:           Role(user.Role),
		CapacityPerDay: user.CapacityPerDay,
		IsActive:       user.IsActive,
		AddedBy:        record.AddedBy,
		AddedAt:        record.AddedAt,
	}
}

func withMemberCounts(ctx context.Context, repos persistence.Repositories, stored []persistence.Project) ([]Project, error) {
	out := make([]Project, 0, len(stored))
	for _, p := range stored {
		members, err := repos.Projects().ListMembers(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, toProject(p, len(members)))
	}
	return out, nil
}

func validateProjectName(name string) *ValidationError {
	vErr := &ValidationError{}
	if n := utf8.RuneCountInString(name); n < 3 || n > 200 {
		vErr.add("name", "name must be between 3 and 200 characters")
	}
	return vErr
}

// trimOptional trims an optional text field and drops it when empty.
func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

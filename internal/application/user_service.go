package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/example/dropplan/internal/persistence"
)

const minPasswordLength = 8

var (
	maxCapacityPerDay     = decimal.NewFromInt(24)
	defaultCapacityPerDay = decimal.NewFromInt(8)
)

// PasswordHasher turns a plain password into a stored hash.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	serviceDeps
	hashPassword    PasswordHasher
	defaultCapacity decimal.Decimal
}

// UserServiceOption configures a UserService.
type UserServiceOption func(*UserService)

// WithPasswordHasher overrides the argon2id hasher.
func WithPasswordHasher(hasher PasswordHasher) UserServiceOption {
	return func(s *UserService) {
		if hasher != nil {
			s.hashPassword = hasher
		}
	}
}

// WithDefaultCapacity sets the capacity given to users created without one.
func WithDefaultCapacity(capacity decimal.Decimal) UserServiceOption {
	return func(s *UserService) {
		if capacity.IsPositive() {
			s.defaultCapacity = capacity
		}
	}
}

// NewUserService wires dependencies for the user service.
func NewUserService(tx persistence.Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...UserServiceOption) *UserService {
	svc := &UserService{
		serviceDeps:     newServiceDeps(tx, idGenerator, now, logger),
		hashPassword:    HashPassword,
		defaultCapacity: defaultCapacityPerDay,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", params.Principal.UserID)
	defer func() { logOutcome(ctx, logger, "user creation", err, "user_id", user.ID) }()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}

	input := normalizeUserInput(params.Input)
	if input.CapacityPerDay == nil {
		input.CapacityPerDay = &s.defaultCapacity
	}
	if vErr := validateUserInput(input, true); vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	if hash, err = s.hashPassword(input.Password); err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.clock()
	record := persistence.User{
		ID:             s.idGenerator(),
		Email:          input.Email,
		DisplayName:    input.DisplayName,
		PasswordHash:   hash,
		Role:           string(input.Role),
		AvatarURL:      input.AvatarURL,
		CapacityPerDay: *input.CapacityPerDay,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := repos.Users().GetUserByEmail(ctx, record.Email); err == nil {
			return conflictf("a user with email %s already exists", record.Email)
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}
		return repos.Users().CreateUser(ctx, record)
	})
	if err != nil {
		return
	}

	user = toUser(record)
	return
}

// GetUser returns any user to an authenticated principal.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (user User, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := repos.Users().GetUser(ctx, userID)
		if err != nil {
			return err
		}
		user = toUser(stored)
		return nil
	})
	return
}

// Me returns the user record of the principal.
func (s *UserService) Me(ctx context.Context, principal Principal) (User, error) {
	return s.GetUser(ctx, principal, principal.UserID)
}

// ListUsers returns every user ordered by creation time.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) (users []User, err error) {
	logger := s.loggerWith(ctx, "ListUsers", "principal_id", principal.UserID)
	defer func() { logOutcome(ctx, logger, "user listing", err, "result_count", len(users)) }()

	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := repos.Users().ListUsers(ctx)
		if err != nil {
			return err
		}
		users = lo.Map(stored, func(u persistence.User, _ int) User { return toUser(u) })
		return nil
	})
	return
}

// UpdateUser applies a partial update. Users may edit themselves; only
// administrators may change roles or activation.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", params.Principal.UserID, "user_id", params.UserID)
	defer func() { logOutcome(ctx, logger, "user update", err) }()

	if err = requireSelfOrAdmin(params.Principal, params.UserID); err != nil {
		return
	}
	patch := params.Patch
	if !params.Principal.IsAdmin() && (patch.Role != nil || patch.IsActive != nil) {
		err = ErrUnauthorized
		return
	}

	var hash *string
	if patch.Password != nil {
		if utf8.RuneCountInString(*patch.Password) < minPasswordLength {
			err = validationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
			return
		}
		var h string
		if h, err = s.hashPassword(*patch.Password); err != nil {
			err = fmt.Errorf("hash password: %w", err)
			return
		}
		hash = &h
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		current, err := repos.Users().GetUser(ctx, params.UserID)
		if err != nil {
			return err
		}

		merged := UserInput{
			Email:          current.Email,
			DisplayName:    current.DisplayName,
			Role:           Role(current.Role),
			AvatarURL:      current.AvatarURL,
			CapacityPerDay: &current.CapacityPerDay,
		}
		if patch.Email != nil {
			merged.Email = *patch.Email
		}
		if patch.DisplayName != nil {
			merged.DisplayName = *patch.DisplayName
		}
		if patch.Role != nil {
			merged.Role = *patch.Role
		}
		if patch.AvatarURL != nil {
			merged.AvatarURL = patch.AvatarURL
		}
		if patch.CapacityPerDay != nil {
			merged.CapacityPerDay = patch.CapacityPerDay
		}
		merged = normalizeUserInput(merged)
		if vErr := validateUserInput(merged, false); vErr.HasErrors() {
			return vErr
		}

		if merged.Email != current.Email {
			if _, err := repos.Users().GetUserByEmail(ctx, merged.Email); err == nil {
				return conflictf("a user with email %s already exists", merged.Email)
			} else if !errors.Is(err, persistence.ErrNotFound) {
				return err
			}
		}

		updated := current
		updated.Email = merged.Email
		updated.DisplayName = merged.DisplayName
		updated.Role = string(merged.Role)
		updated.AvatarURL = merged.AvatarURL
		updated.CapacityPerDay = *merged.CapacityPerDay
		if patch.IsActive != nil {
			updated.IsActive = *patch.IsActive
		}
		if hash != nil {
			updated.PasswordHash = *hash
		}
		updated.UpdatedAt = s.clock()

		if err := repos.Users().UpdateUser(ctx, updated); err != nil {
			return err
		}
		user = toUser(updated)
		return nil
	})
	return
}

// DeactivateUser marks a user inactive. Records are kept so history stays intact.
func (s *UserService) DeactivateUser(ctx context.Context, principal Principal, userID string) (err error) {
	logger := s.loggerWith(ctx, "DeactivateUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() { logOutcome(ctx, logger, "user deactivation", err) }()

	if err = requireAdmin(principal); err != nil {
		return
	}
	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		current, err := repos.Users().GetUser(ctx, userID)
		if err != nil {
			return err
		}
		current.IsActive = false
		current.UpdatedAt = s.clock()
		return repos.Users().UpdateUser(ctx, current)
	})
	return
}

// ListUserProjects returns the active projects a user belongs to.
func (s *UserService) ListUserProjects(ctx context.Context, principal Principal, userID string) (projects []Project, err error) {
	if err = requireSelfOrAdmin(principal, userID); err != nil {
		return
	}
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := repos.Users().GetUser(ctx, userID); err != nil {
			return err
		}
		stored, err := repos.Projects().ListProjects(ctx, persistence.ProjectFilter{MemberID: &userID, ActiveOnly: true})
		if err != nil {
			return err
		}
		projects, err = withMemberCounts(ctx, repos, stored)
		return err
	})
	return
}

func normalizeUserInput(input UserInput) UserInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.Role == "" {
		input.Role = RoleExecutor
	}
	if input.AvatarURL != nil {
		trimmed := strings.TrimSpace(*input.AvatarURL)
		if trimmed == "" {
			input.AvatarURL = nil
		} else {
			input.AvatarURL = &trimmed
		}
	}
	return input
}

// validateUserInput checks the user fields; the password only when withPassword is set.
func validateUserInput(input UserInput, withPassword bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if n := utf8.RuneCountInString(input.DisplayName); n == 0 {
		vErr.add("display_name", "display name is required")
	} else if n > 100 {
		vErr.add("display_name", "display name must be at most 100 characters")
	}

	if withPassword && utf8.RuneCountInString(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if !input.Role.Valid() {
		vErr.add("role", "role must be Administrator, Manager or Executor")
	}

	if c := input.CapacityPerDay; c != nil && (!c.IsPositive() || c.GreaterThan(maxCapacityPerDay)) {
		vErr.add("capacity_per_day", "capacity per day must be greater than 0 and at most 24")
	}

	return vErr
}

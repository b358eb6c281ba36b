package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/dropplan/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	helper *QueryHelper
}

const userColumns = `id, email, display_name, password_hash, role, avatar_url, capacity_per_day, is_active, created_at, updated_at`

// CreateUser inserts a new user. Emails are stored lower-cased.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.Role,
		nullString(user.AvatarURL),
		formatDecimal(user.CapacityPerDay),
		user.IsActive,
		formatInstant(user.CreatedAt),
		formatInstant(user.UpdatedAt),
	)
	return err
}

// UpdateUser overwrites the mutable columns of an existing user
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	return r.helper.ExecOne(ctx, `
		UPDATE users
		SET email = ?, display_name = ?, password_hash = ?, role = ?, avatar_url = ?,
			capacity_per_day = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.Role,
		nullString(user.AvatarURL),
		formatDecimal(user.CapacityPerDay),
		user.IsActive,
		formatInstant(user.UpdatedAt),
		user.ID,
	)
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row, r.helper.mapper)
}

// GetUserByEmail retrieves a user by email address, case-insensitively
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
	return scanUser(row, r.helper.mapper)
}

// ListUsers returns all users ordered by creation timestamp then ID
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	return queryUsers(ctx, r.helper, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
}

func queryUsers(ctx context.Context, helper *QueryHelper, query string, args ...any) ([]persistence.User, error) {
	rows, err := helper.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []persistence.User{}
	for rows.Next() {
		user, err := scanUser(rows, helper.mapper)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.mapper.MapError(err)
	}
	return users, nil
}

func scanUser(row scanner, mapper *ErrorMapper) (persistence.User, error) {
	var (
		user                 persistence.User
		avatar               sql.NullString
		capacity             string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Role,
		&avatar,
		&capacity,
		&user.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, mapper.MapError(err)
	}

	user.AvatarURL = stringPtr(avatar)
	if user.CapacityPerDay, err = parseDecimal(capacity); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse capacity_per_day: %w", err)
	}
	if user.CreatedAt, err = parseInstant(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseInstant(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

// normalizeEmail normalizes email addresses for consistent storage and lookup
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

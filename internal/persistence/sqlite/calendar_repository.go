package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// CalendarRepository implements persistence.CalendarRepository using SQLite
type CalendarRepository struct {
	helper *QueryHelper
}

// CreateHoliday inserts a holiday; the date is unique
func (r *CalendarRepository) CreateHoliday(ctx context.Context, holiday persistence.Holiday) error {
	if holiday.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO holidays (id, date, description, created_at) VALUES (?, ?, ?, ?)
	`,
		holiday.ID,
		planning.FormatDay(holiday.Date),
		nullString(holiday.Description),
		formatInstant(holiday.CreatedAt),
	)
	return err
}

// GetHoliday retrieves a holiday by ID
func (r *CalendarRepository) GetHoliday(ctx context.Context, id string) (persistence.Holiday, error) {
	row := r.helper.QueryRow(ctx, `SELECT id, date, description, created_at FROM holidays WHERE id = ?`, id)
	return scanHoliday(row, r.helper.mapper)
}

// ListHolidays returns holidays in [from, to] ordered by date
func (r *CalendarRepository) ListHolidays(ctx context.Context, from, to *time.Time) ([]persistence.Holiday, error) {
	var (
		clauses []string
		args    []any
	)
	if from != nil {
		clauses = append(clauses, `date >= ?`)
		args = append(args, planning.FormatDay(*from))
	}
	if to != nil {
		clauses = append(clauses, `date <= ?`)
		args = append(args, planning.FormatDay(*to))
	}
	query := `SELECT id, date, description, created_at FROM holidays`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY date ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := []persistence.Holiday{}
	for rows.Next() {
		holiday, err := scanHoliday(rows, r.helper.mapper)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, holiday)
	}
	if err := rows.Err(); err != nil {
		return nil, r.helper.mapper.MapError(err)
	}
	return holidays, nil
}

// DeleteHoliday removes a holiday
func (r *CalendarRepository) DeleteHoliday(ctx context.Context, id string) error {
	return r.helper.ExecOne(ctx, `DELETE FROM holidays WHERE id = ?`, id)
}

// CreateNonWorkingDay inserts a personal day off; (user, date) is unique
func (r *CalendarRepository) CreateNonWorkingDay(ctx context.Context, day persistence.NonWorkingDay) error {
	if day.ID == "" || day.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO non_working_days (id, user_id, date, type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		day.ID,
		day.UserID,
		planning.FormatDay(day.Date),
		day.Type,
		nullString(day.Description),
		formatInstant(day.CreatedAt),
	)
	return err
}

// GetNonWorkingDay retrieves a personal day off by ID
func (r *CalendarRepository) GetNonWorkingDay(ctx context.Context, id string) (persistence.NonWorkingDay, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT id, user_id, date, type, description, created_at FROM non_working_days WHERE id = ?
	`, id)
	return scanNonWorkingDay(row, r.helper.mapper)
}

// ListNonWorkingDays returns the days off of a user ordered by date
func (r *CalendarRepository) ListNonWorkingDays(ctx context.Context, userID string) ([]persistence.NonWorkingDay, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, user_id, date, type, description, created_at FROM non_working_days
		WHERE user_id = ?
		ORDER BY date ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []persistence.NonWorkingDay{}
	for rows.Next() {
		day, err := scanNonWorkingDay(rows, r.helper.mapper)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, r.helper.mapper.MapError(err)
	}
	return days, nil
}

// DeleteNonWorkingDay removes a personal day off
func (r *CalendarRepository) DeleteNonWorkingDay(ctx context.Context, id string) error {
	return r.helper.ExecOne(ctx, `DELETE FROM non_working_days WHERE id = ?`, id)
}

func scanHoliday(row scanner, mapper *ErrorMapper) (persistence.Holiday, error) {
	var (
		holiday         persistence.Holiday
		date, createdAt string
		description     sql.NullString
	)
	if err := row.Scan(&holiday.ID, &date, &description, &createdAt); err != nil {
		return persistence.Holiday{}, mapper.MapError(err)
	}

	var err error
	holiday.Description = stringPtr(description)
	if holiday.Date, err = planning.ParseDay(date); err != nil {
		return persistence.Holiday{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if holiday.CreatedAt, err = parseInstant(createdAt); err != nil {
		return persistence.Holiday{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return holiday, nil
}

func scanNonWorkingDay(row scanner, mapper *ErrorMapper) (persistence.NonWorkingDay, error) {
	var (
		day             persistence.NonWorkingDay
		date, createdAt string
		description     sql.NullString
	)
	if err := row.Scan(&day.ID, &day.UserID, &date, &day.Type, &description, &createdAt); err != nil {
		return persistence.NonWorkingDay{}, mapper.MapError(err)
	}

	var err error
	day.Description = stringPtr(description)
	if day.Date, err = planning.ParseDay(date); err != nil {
		return persistence.NonWorkingDay{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if day.CreatedAt, err = parseInstant(createdAt); err != nil {
		return persistence.NonWorkingDay{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return day, nil
}

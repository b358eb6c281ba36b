package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// CalendarService manages company holidays and personal days off.
type CalendarService struct {
	serviceDeps
}

// NewCalendarService wires dependencies for the calendar service.
func NewCalendarService(tx persistence.Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CalendarService {
	return &CalendarService{serviceDeps: newServiceDeps(tx, idGenerator, now, logger)}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

// ListHolidays returns every holiday ordered by date.
func (s *CalendarService) ListHolidays(ctx context.Context, principal Principal) (holidays []Holiday, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := repos.Calendar().ListHolidays(ctx, nil, nil)
		if err != nil {
			return err
		}
		holidays = lo.Map(stored, func(h persistence.Holiday, _ int) Holiday { return toHoliday(h) })
		return nil
	})
	return
}

// CreateHoliday adds a company holiday. One holiday per date.
func (s *CalendarService) CreateHoliday(ctx context.Context, principal Principal, date time.Time, description *string) (holiday Holiday, err error) {
	logger := s.loggerWith(ctx, "CreateHoliday", "principal_id", principal.UserID, "date", planning.FormatDay(date))
	defer func() { logOutcome(ctx, logger, "holiday creation", err, "holiday_id", holiday.ID) }()

	if err = requireAdmin(principal); err != nil {
		return
	}
	if date.IsZero() {
		err = validationError("date", "date is required")
		return
	}

	day := planning.Day(date)
	record := persistence.Holiday{
		ID:          s.idGenerator(),
		Date:        day,
		Description: trimOptional(description),
		CreatedAt:   s.clock(),
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		existing, err := repos.Calendar().ListHolidays(ctx, &day, &day)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return conflictf("a holiday already exists on %s", planning.FormatDay(day))
		}
		if err := repos.Calendar().CreateHoliday(ctx, record); err != nil {
			return err
		}
		holiday = toHoliday(record)
		return nil
	})
	return
}

// DeleteHoliday removes a company holiday.
func (s *CalendarService) DeleteHoliday(ctx context.Context, principal Principal, holidayID string) (err error) {
	logger := s.loggerWith(ctx, "DeleteHoliday", "principal_id", principal.UserID, "holiday_id", holidayID)
	defer func() { logOutcome(ctx, logger, "holiday deletion", err) }()

	if err = requireAdmin(principal); err != nil {
		return
	}
	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		return repos.Calendar().DeleteHoliday(ctx, holidayID)
	})
	return
}

// ListNonWorkingDays returns the days off of a user ordered by date.
func (s *CalendarService) ListNonWorkingDays(ctx context.Context, principal Principal, userID string) (days []NonWorkingDay, err error) {
	if err = requireSelfOrAdmin(principal, userID); err != nil {
		return
	}
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := repos.Calendar().ListNonWorkingDays(ctx, userID)
		if err != nil {
			return err
		}
		days = lo.Map(stored, func(d persistence.NonWorkingDay, _ int) NonWorkingDay { return toNonWorkingDay(d) })
		return nil
	})
	return
}

// CreateNonWorkingDay records a day off for a user. One entry per user and date.
func (s *CalendarService) CreateNonWorkingDay(ctx context.Context, principal Principal, userID string, date time.Time, kind NonWorkingDayType, description *string) (day NonWorkingDay, err error) {
	logger := s.loggerWith(ctx, "CreateNonWorkingDay", "principal_id", principal.UserID, "user_id", userID)
	defer func() { logOutcome(ctx, logger, "non-working day creation", err, "day_id", day.ID) }()

	if err = requireSelfOrAdmin(principal, userID); err != nil {
		return
	}
	if kind == "" {
		kind = NonWorkingPersonalLeave
	}
	vErr := &ValidationError{}
	if date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !kind.Valid() {
		vErr.add("type", "type must be PersonalLeave, Vacation or Sick")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record := persistence.NonWorkingDay{
		ID:          s.idGenerator(),
		UserID:      userID,
		Date:        planning.Day(date),
		Type:        string(kind),
		Description: trimOptional(description),
		CreatedAt:   s.clock(),
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := repos.Users().GetUser(ctx, userID); err != nil {
			return err
		}
		existing, err := repos.Calendar().ListNonWorkingDays(ctx, userID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(existing, func(d persistence.NonWorkingDay) bool { return d.Date.Equal(record.Date) }) {
			return conflictf("a non-working day already exists on %s", planning.FormatDay(record.Date))
		}
		if err := repos.Calendar().CreateNonWorkingDay(ctx, record); err != nil {
			return err
		}
		day = toNonWorkingDay(record)
		return nil
	})
	return
}

// DeleteNonWorkingDay removes a day off of a user.
func (s *CalendarService) DeleteNonWorkingDay(ctx context.Context, principal Principal, userID, dayID string) (err error) {
	logger := s.loggerWith(ctx, "DeleteNonWorkingDay", "principal_id", principal.UserID, "user_id", userID, "day_id", dayID)
	defer func() { logOutcome(ctx, logger, "non-working day deletion", err) }()

	if err = requireSelfOrAdmin(principal, userID); err != nil {
		return
	}
	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := repos.Calendar().GetNonWorkingDay(ctx, dayID)
		if err != nil {
			return err
		}
		if stored.UserID != userID {
			return ErrNotFound
		}
		return repos.Calendar().DeleteNonWorkingDay(ctx, dayID)
	})
	return
}

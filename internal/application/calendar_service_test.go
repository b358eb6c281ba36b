package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/testfixtures"
)

func TestCalendarService_Holidays(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := e.factory.NewCalendarService(e.harness.Transactor())
	newYear := testfixtures.Day("2025-01-01")

	_, err := svc.CreateHoliday(ctx, e.manager.Principal(), newYear, nil)
	assert.ErrorIs(t, err, application.ErrUnauthorized)

	description := " New Year "
	holiday, err := svc.CreateHoliday(ctx, e.admin.Principal(), newYear, &description)
	require.NoError(t, err)
	require.NotNil(t, holiday.Description)
	assert.Equal(t, "New Year", *holiday.Description)

	_, err = svc.CreateHoliday(ctx, e.admin.Principal(), newYear.Add(10), nil)
	assert.ErrorIs(t, err, application.ErrConflict)

	holidays, err := svc.ListHolidays(ctx, e.executor.Principal())
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, holiday.ID, holidays[0].ID)

	require.NoError(t, svc.DeleteHoliday(ctx, e.admin.Principal(), holiday.ID))
	assert.ErrorIs(t, svc.DeleteHoliday(ctx, e.admin.Principal(), holiday.ID), application.ErrNotFound)
}

func TestCalendarService_NonWorkingDays(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := e.factory.NewCalendarService(e.harness.Transactor())
	date := testfixtures.Day("2025-01-10")

	day, err := svc.CreateNonWorkingDay(ctx, e.executor.Principal(), e.executor.ID, date, "", nil)
	require.NoError(t, err)
	assert.Equal(t, application.NonWorkingPersonalLeave, day.Type)

	_, err = svc.CreateNonWorkingDay(ctx, e.admin.Principal(), e.executor.ID, date, application.NonWorkingSick, nil)
	assert.ErrorIs(t, err, application.ErrConflict)

	_, err = svc.CreateNonWorkingDay(ctx, e.executor.Principal(), e.executor.ID, date.AddDate(0, 0, 1), "Holiday", nil)
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "type")

	_, err = svc.CreateNonWorkingDay(ctx, e.manager.Principal(), e.executor.ID, date.AddDate(0, 0, 3), application.NonWorkingVacation, nil)
	assert.ErrorIs(t, err, application.ErrUnauthorized)

	_, err = svc.ListNonWorkingDays(ctx, e.outsider.Principal(), e.executor.ID)
	assert.ErrorIs(t, err, application.ErrUnauthorized)

	days, err := svc.ListNonWorkingDays(ctx, e.admin.Principal(), e.executor.ID)
	require.NoError(t, err)
	require.Len(t, days, 1)

	err = svc.DeleteNonWorkingDay(ctx, e.outsider.Principal(), e.outsider.ID, day.ID)
	assert.ErrorIs(t, err, application.ErrNotFound)

	require.NoError(t, svc.DeleteNonWorkingDay(ctx, e.executor.Principal(), e.executor.ID, day.ID))
}

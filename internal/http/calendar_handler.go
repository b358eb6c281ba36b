package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/application"
)

type calendarService interface {
	ListHolidays(ctx context.Context, principal application.Principal) ([]application.Holiday, error)
	CreateHoliday(ctx context.Context, principal application.Principal, date time.Time, description *string) (application.Holiday, error)
	DeleteHoliday(ctx context.Context, principal application.Principal, holidayID string) error
	ListNonWorkingDays(ctx context.Context, principal application.Principal, userID string) ([]application.NonWorkingDay, error)
	CreateNonWorkingDay(ctx context.Context, principal application.Principal, userID string, date time.Time, kind application.NonWorkingDayType, description *string) (application.NonWorkingDay, error)
	DeleteNonWorkingDay(ctx context.Context, principal application.Principal, userID, dayID string) error
}

// CalendarHandler serves the global holidays and per-user non-working days.
type CalendarHandler struct {
	handlerBase
	service calendarService
}

// NewCalendarHandler builds a handler over the calendar service.
func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{handlerBase: newHandlerBase("CalendarHandler", logger), service: service}
}

func (h *CalendarHandler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	logger := h.log(r.Context(), "ListHolidays", "principal_id", principal.UserID)

	holidays, err := h.service.ListHolidays(r.Context(), principal)
	if err != nil {
		h.fail(w, r, logger, "holiday listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lo.Map(holidays, func(d application.Holiday, _ int) holidayDTO { return toHolidayDTO(d) }))
}

func (h *CalendarHandler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)

	var req holidayRequest
	if !h.decode(w, r, "CreateHoliday", &req) {
		return
	}
	errs := fieldErrors{}
	date := errs.day("date", req.Date)
	if h.rejectFields(w, r, "CreateHoliday", errs) {
		return
	}

	logger := h.log(r.Context(), "CreateHoliday", "principal_id", principal.UserID, "date", req.Date)
	holiday, err := h.service.CreateHoliday(r.Context(), principal, date, req.Description)
	if err != nil {
		h.fail(w, r, logger, "holiday creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "holiday created", "holiday_id", holiday.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toHolidayDTO(holiday))
}

func (h *CalendarHandler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	holidayID := pathVar(r, "holidayID")
	logger := h.log(r.Context(), "DeleteHoliday", "principal_id", principal.UserID, "holiday_id", holidayID)

	if err := h.service.DeleteHoliday(r.Context(), principal, holidayID); err != nil {
		h.fail(w, r, logger, "holiday deletion failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CalendarHandler) ListNonWorkingDays(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	userID := pathVar(r, "userID")
	logger := h.log(r.Context(), "ListNonWorkingDays", "principal_id", principal.UserID, "user_id", userID)

	days, err := h.service.ListNonWorkingDays(r.Context(), principal, userID)
	if err != nil {
		h.fail(w, r, logger, "non-working day listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lo.Map(days, func(d application.NonWorkingDay, _ int) nonWorkingDayDTO { return toNonWorkingDayDTO(d) }))
}

func (h *CalendarHandler) CreateNonWorkingDay(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	userID := pathVar(r, "userID")

	var req nonWorkingDayRequest
	if !h.decode(w, r, "CreateNonWorkingDay", &req) {
		return
	}
	errs := fieldErrors{}
	date := errs.day("date", req.Date)
	if h.rejectFields(w, r, "CreateNonWorkingDay", errs) {
		return
	}

	logger := h.log(r.Context(), "CreateNonWorkingDay", "principal_id", principal.UserID, "user_id", userID, "date", req.Date)
	day, err := h.service.CreateNonWorkingDay(r.Context(), principal, userID, date, application.NonWorkingDayType(req.Type), req.Description)
	if err != nil {
		h.fail(w, r, logger, "non-working day creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "non-working day created", "day_id", day.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toNonWorkingDayDTO(day))
}

func (h *CalendarHandler) DeleteNonWorkingDay(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	userID, dayID := pathVar(r, "userID"), pathVar(r, "dayID")
	logger := h.log(r.Context(), "DeleteNonWorkingDay", "principal_id", principal.UserID, "user_id", userID, "day_id", dayID)

	if err := h.service.DeleteNonWorkingDay(r.Context(), principal, userID, dayID); err != nil {
		h.fail(w, r, logger, "non-working day deletion failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

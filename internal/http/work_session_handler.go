package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/application"
)

type workSessionService interface {
	ListTaskSessions(ctx context.Context, principal application.Principal, projectID, taskID string) ([]application.WorkSession, error)
	CreateSession(ctx context.Context, principal application.Principal, projectID, taskID string, input application.WorkSessionInput) (application.WorkSession, error)
	UpdateSession(ctx context.Context, principal application.Principal, projectID, taskID, sessionID string, patch application.WorkSessionPatch) (application.WorkSession, error)
	DeleteSession(ctx context.Context, principal application.Principal, projectID, taskID, sessionID string) error
	ListUserSessions(ctx context.Context, principal application.Principal, userID string, from, to time.Time) ([]application.WorkSession, error)
}

// WorkSessionHandler serves logged work sessions.
type WorkSessionHandler struct {
	handlerBase
	service workSessionService
}

// NewWorkSessionHandler builds a handler over the work session service.
func NewWorkSessionHandler(service workSessionService, logger *slog.Logger) *WorkSessionHandler {
	return &WorkSessionHandler{handlerBase: newHandlerBase("WorkSessionHandler", logger), service: service}
}

func toWorkSessionDTOs(sessions []application.WorkSession) []workSessionDTO {
	return lo.Map(sessions, func(s application.WorkSession, _ int) workSessionDTO { return toWorkSessionDTO(s) })
}

func (h *WorkSessionHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, taskID := pathVar(r, "projectID"), pathVar(r, "workItemID")
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", taskID)

	sessions, err := h.service.ListTaskSessions(r.Context(), principal, projectID, taskID)
	if err != nil {
		h.fail(w, r, logger, "work session listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkSessionDTOs(sessions))
}

func (h *WorkSessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, taskID := pathVar(r, "projectID"), pathVar(r, "workItemID")

	var req workSessionRequest
	if !h.decode(w, r, "Create", &req) {
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", taskID)
	session, err := h.service.CreateSession(r.Context(), principal, projectID, taskID, application.WorkSessionInput{
		Description: req.Description,
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
	})
	if err != nil {
		h.fail(w, r, logger, "work session creation failed", err)
		return
	}

	logger.With("session_id", session.ID, "open", session.EndedAt == nil).InfoContext(r.Context(), "work session created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toWorkSessionDTO(session))
}

func (h *WorkSessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, taskID, sessionID := pathVar(r, "projectID"), pathVar(r, "workItemID"), pathVar(r, "sessionID")

	var req workSessionPatchRequest
	if !h.decode(w, r, "Update", &req) {
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", taskID, "session_id", sessionID)
	session, err := h.service.UpdateSession(r.Context(), principal, projectID, taskID, sessionID, application.WorkSessionPatch{
		Description: req.Description,
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
		Reopen:      req.Reopen,
	})
	if err != nil {
		h.fail(w, r, logger, "work session update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "work session updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkSessionDTO(session))
}

func (h *WorkSessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, taskID, sessionID := pathVar(r, "projectID"), pathVar(r, "workItemID"), pathVar(r, "sessionID")
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", taskID, "session_id", sessionID)

	if err := h.service.DeleteSession(r.Context(), principal, projectID, taskID, sessionID); err != nil {
		h.fail(w, r, logger, "work session deletion failed", err)
		return
	}

	logger.InfoContext(r.Context(), "work session deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListForUser requires date_from and date_to, both inclusive.
func (h *WorkSessionHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	userID := pathVar(r, "userID")

	errs := fieldErrors{}
	query := r.URL.Query()
	from := errs.day("date_from", query.Get("date_from"))
	to := errs.day("date_to", query.Get("date_to"))
	if h.rejectFields(w, r, "ListForUser", errs) {
		return
	}

	logger := h.log(r.Context(), "ListForUser", "principal_id", principal.UserID, "user_id", userID)
	sessions, err := h.service.ListUserSessions(r.Context(), principal, userID, from, to)
	if err != nil {
		h.fail(w, r, logger, "user session listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkSessionDTOs(sessions))
}

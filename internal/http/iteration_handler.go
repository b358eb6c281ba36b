package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/application"
)

type iterationService interface {
	CreateIteration(ctx context.Context, principal application.Principal, projectID string, input application.IterationInput) (application.Iteration, error)
	GetIteration(ctx context.Context, principal application.Principal, projectID, iterationID string) (application.Iteration, error)
	ListIterations(ctx context.Context, principal application.Principal, projectID string) ([]application.Iteration, error)
	UpdateIteration(ctx context.Context, principal application.Principal, projectID, iterationID string, patch application.IterationPatch) (application.Iteration, error)
	DeleteIteration(ctx context.Context, principal application.Principal, projectID, iterationID string) error
	ListIterationWorkItems(ctx context.Context, principal application.Principal, projectID, iterationID string) ([]application.WorkItem, error)
}

// IterationHandler serves the sprints of a project.
type IterationHandler struct {
	handlerBase
	service iterationService
}

// NewIterationHandler builds a handler over the iteration service.
func NewIterationHandler(service iterationService, logger *slog.Logger) *IterationHandler {
	return &IterationHandler{handlerBase: newHandlerBase("IterationHandler", logger), service: service}
}

func (h *IterationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "project_id", projectID)

	iterations, err := h.service.ListIterations(r.Context(), principal, projectID)
	if err != nil {
		h.fail(w, r, logger, "iteration listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lo.Map(iterations, func(it application.Iteration, _ int) iterationDTO { return toIterationDTO(it) }))
}

func (h *IterationHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")

	var req iterationRequest
	if !h.decode(w, r, "Create", &req) {
		return
	}
	input, errs := req.toInput()
	if h.rejectFields(w, r, "Create", errs) {
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "project_id", projectID)
	iteration, err := h.service.CreateIteration(r.Context(), principal, projectID, input)
	if err != nil {
		h.fail(w, r, logger, "iteration creation failed", err)
		return
	}

	logger.With("iteration_id", iteration.ID).InfoContext(r.Context(), "iteration created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toIterationDTO(iteration))
}

func (h *IterationHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, iterationID := pathVar(r, "projectID"), pathVar(r, "iterationID")
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "project_id", projectID, "iteration_id", iterationID)

	iteration, err := h.service.GetIteration(r.Context(), principal, projectID, iterationID)
	if err != nil {
		h.fail(w, r, logger, "iteration lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toIterationDTO(iteration))
}

func (h *IterationHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, iterationID := pathVar(r, "projectID"), pathVar(r, "iterationID")

	var req iterationPatchRequest
	if !h.decode(w, r, "Update", &req) {
		return
	}
	patch, errs := req.toPatch()
	if h.rejectFields(w, r, "Update", errs) {
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "project_id", projectID, "iteration_id", iterationID)
	iteration, err := h.service.UpdateIteration(r.Context(), principal, projectID, iterationID, patch)
	if err != nil {
		h.fail(w, r, logger, "iteration update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "iteration updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toIterationDTO(iteration))
}

func (h *IterationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, iterationID := pathVar(r, "projectID"), pathVar(r, "iterationID")
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "project_id", projectID, "iteration_id", iterationID)

	if err := h.service.DeleteIteration(r.Context(), principal, projectID, iterationID); err != nil {
		h.fail(w, r, logger, "iteration deletion failed", err)
		return
	}

	logger.InfoContext(r.Context(), "iteration deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *IterationHandler) ListWorkItems(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, iterationID := pathVar(r, "projectID"), pathVar(r, "iterationID")
	logger := h.log(r.Context(), "ListWorkItems", "principal_id", principal.UserID, "project_id", projectID, "iteration_id", iterationID)

	items, err := h.service.ListIterationWorkItems(r.Context(), principal, projectID, iterationID)
	if err != nil {
		h.fail(w, r, logger, "iteration work item listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkItemDTOs(items))
}

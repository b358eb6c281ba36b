package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/planning"
)

type workItemService interface {
	CreateWorkItem(ctx context.Context, principal application.Principal, projectID string, input application.WorkItemInput) (application.WorkItem, error)
	GetWorkItem(ctx context.Context, principal application.Principal, projectID, workItemID string) (application.WorkItem, error)
	ListWorkItems(ctx context.Context, principal application.Principal, projectID string, filter application.WorkItemFilter) ([]application.WorkItem, error)
	ListChildren(ctx context.Context, principal application.Principal, projectID, workItemID string) ([]application.WorkItem, error)
	UpdateWorkItem(ctx context.Context, principal application.Principal, projectID, workItemID string, patch application.WorkItemPatch) (application.WorkItem, error)
	DeleteWorkItem(ctx context.Context, principal application.Principal, projectID, workItemID string) error
}

// WorkItemHandler serves the work items of a project.
type WorkItemHandler struct {
	handlerBase
	service workItemService
}

// NewWorkItemHandler builds a handler over the work item service.
func NewWorkItemHandler(service workItemService, logger *slog.Logger) *WorkItemHandler {
	return &WorkItemHandler{handlerBase: newHandlerBase("WorkItemHandler", logger), service: service}
}

func toWorkItemDTOs(items []application.WorkItem) []workItemDTO {
	return lo.Map(items, func(item application.WorkItem, _ int) workItemDTO { return toWorkItemDTO(item) })
}

// List accepts type, state, assigned_to, iteration_id and parent_id filters.
func (h *WorkItemHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "project_id", projectID)

	filter := application.WorkItemFilter{
		AssignedTo:  queryParam(r, "assigned_to"),
		IterationID: queryParam(r, "iteration_id"),
		ParentID:    queryParam(r, "parent_id"),
	}
	if value := queryParam(r, "type"); value != nil {
		filter.Type = lo.ToPtr(planning.ItemType(*value))
	}
	if value := queryParam(r, "state"); value != nil {
		filter.State = lo.ToPtr(planning.ItemState(*value))
	}

	items, err := h.service.ListWorkItems(r.Context(), principal, projectID, filter)
	if err != nil {
		h.fail(w, r, logger, "work item listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkItemDTOs(items))
}

func (h *WorkItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")

	var req workItemRequest
	if !h.decode(w, r, "Create", &req) {
		return
	}
	input, errs := req.toInput()
	if h.rejectFields(w, r, "Create", errs) {
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "project_id", projectID, "type", req.Type)
	item, err := h.service.CreateWorkItem(r.Context(), principal, projectID, input)
	if err != nil {
		h.fail(w, r, logger, "work item creation failed", err)
		return
	}

	logger.With("work_item_id", item.ID).InfoContext(r.Context(), "work item created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toWorkItemDTO(item))
}

func (h *WorkItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, workItemID := pathVar(r, "projectID"), pathVar(r, "workItemID")
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", workItemID)

	item, err := h.service.GetWorkItem(r.Context(), principal, projectID, workItemID)
	if err != nil {
		h.fail(w, r, logger, "work item lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkItemDTO(item))
}

func (h *WorkItemHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, workItemID := pathVar(r, "projectID"), pathVar(r, "workItemID")
	logger := h.log(r.Context(), "ListChildren", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", workItemID)

	items, err := h.service.ListChildren(r.Context(), principal, projectID, workItemID)
	if err != nil {
		h.fail(w, r, logger, "child listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkItemDTOs(items))
}

func (h *WorkItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, workItemID := pathVar(r, "projectID"), pathVar(r, "workItemID")

	var req workItemPatchRequest
	if !h.decode(w, r, "Update", &req) {
		return
	}
	patch, errs := req.toPatch()
	if h.rejectFields(w, r, "Update", errs) {
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", workItemID)
	item, err := h.service.UpdateWorkItem(r.Context(), principal, projectID, workItemID, patch)
	if err != nil {
		h.fail(w, r, logger, "work item update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "work item updated", "state", item.State)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkItemDTO(item))
}

func (h *WorkItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID, workItemID := pathVar(r, "projectID"), pathVar(r, "workItemID")
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", workItemID)

	if err := h.service.DeleteWorkItem(r.Context(), principal, projectID, workItemID); err != nil {
		h.fail(w, r, logger, "work item deletion failed", err)
		return
	}

	logger.InfoContext(r.Context(), "work item deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

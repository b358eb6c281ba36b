package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/dropplan/internal/application"
)

type dropPlanService interface {
	TasksForSprint(ctx context.Context, principal application.Principal, projectID, sprintID string, assignedUserID *string) ([]application.TaskView, error)
	SprintOverview(ctx context.Context, principal application.Principal, projectID, sprintID string) (application.SprintOverview, error)
	UserTasks(ctx context.Context, principal application.Principal, projectID, sprintID, userID string) (application.UserTasks, error)
	UserDropPlan(ctx context.Context, principal application.Principal, projectID, sprintID, userID string) (application.UserDropPlan, error)
	SprintCapacity(ctx context.Context, principal application.Principal, projectID, sprintID string) (application.SprintCapacity, error)
	MoveTask(ctx context.Context, principal application.Principal, projectID, sprintID, taskID string, newStart, newEnd time.Time) (application.TaskView, error)
	AddItem(ctx context.Context, principal application.Principal, projectID, sprintID string, input application.DropPlanItemInput) (application.DropPlanItem, error)
	UpdateItem(ctx context.Context, principal application.Principal, projectID, sprintID, itemID string, patch application.DropPlanItemPatch) (application.DropPlanItem, error)
	RemoveItem(ctx context.Context, principal application.Principal, projectID, sprintID, itemID string) error
}

// DropPlanHandler serves the sprint board under
// /projects/{projectID}/iterations/{iterationID}/dropplan.
type DropPlanHandler struct {
	handlerBase
	service dropPlanService
}

// NewDropPlanHandler builds a handler over the drop plan service.
func NewDropPlanHandler(service dropPlanService, logger *slog.Logger) *DropPlanHandler {
	return &DropPlanHandler{handlerBase: newHandlerBase("DropPlanHandler", logger), service: service}
}

func (h *DropPlanHandler) scope(r *http.Request, operation string, attrs ...any) (application.Principal, string, string, *slog.Logger) {
	principal := principalOf(r)
	projectID, sprintID := pathVar(r, "projectID"), pathVar(r, "iterationID")
	pairs := append([]any{"principal_id", principal.UserID, "project_id", projectID, "iteration_id", sprintID}, attrs...)
	return principal, projectID, sprintID, h.log(r.Context(), operation, pairs...)
}

func (h *DropPlanHandler) Overview(w http.ResponseWriter, r *http.Request) {
	principal, projectID, sprintID, logger := h.scope(r, "Overview")

	overview, err := h.service.SprintOverview(r.Context(), principal, projectID, sprintID)
	if err != nil {
		h.fail(w, r, logger, "sprint overview failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSprintOverviewDTO(overview))
}

// Tasks lists the tasks of the member named by assigned_to, or the
// unassigned tasks when the parameter is absent.
func (h *DropPlanHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	assignee := queryParam(r, "assigned_to")
	principal, projectID, sprintID, logger := h.scope(r, "Tasks", "assigned", assignee != nil)

	tasks, err := h.service.TasksForSprint(r.Context(), principal, projectID, sprintID, assignee)
	if err != nil {
		h.fail(w, r, logger, "sprint task listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTaskViewDTOs(tasks))
}

func (h *DropPlanHandler) UserTasks(w http.ResponseWriter, r *http.Request) {
	userID := pathVar(r, "userID")
	principal, projectID, sprintID, logger := h.scope(r, "UserTasks", "user_id", userID)

	result, err := h.service.UserTasks(r.Context(), principal, projectID, sprintID, userID)
	if err != nil {
		h.fail(w, r, logger, "user task listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserTasksDTO(result))
}

func (h *DropPlanHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	taskID := pathVar(r, "taskID")
	principal, projectID, sprintID, logger := h.scope(r, "MoveTask", "task_id", taskID)

	var req moveTaskRequest
	if !h.decode(w, r, "MoveTask", &req) {
		return
	}
	errs := fieldErrors{}
	start := errs.day("start_date", req.StartDate)
	end := errs.day("end_date", req.EndDate)
	if h.rejectFields(w, r, "MoveTask", errs) {
		return
	}

	task, err := h.service.MoveTask(r.Context(), principal, projectID, sprintID, taskID, start, end)
	if err != nil {
		h.fail(w, r, logger, "task move failed", err)
		return
	}

	logger.InfoContext(r.Context(), "task moved", "start_date", req.StartDate, "end_date", req.EndDate)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTaskViewDTO(task))
}

func (h *DropPlanHandler) UserPlan(w http.ResponseWriter, r *http.Request) {
	userID := pathVar(r, "userID")
	principal, projectID, sprintID, logger := h.scope(r, "UserPlan", "user_id", userID)

	plan, err := h.service.UserDropPlan(r.Context(), principal, projectID, sprintID, userID)
	if err != nil {
		h.fail(w, r, logger, "user drop plan failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDropPlanDTO(plan))
}

func (h *DropPlanHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	principal, projectID, sprintID, logger := h.scope(r, "Capacity")

	capacity, err := h.service.SprintCapacity(r.Context(), principal, projectID, sprintID)
	if err != nil {
		h.fail(w, r, logger, "sprint capacity failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSprintCapacityDTO(capacity))
}

func (h *DropPlanHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	principal, projectID, sprintID, logger := h.scope(r, "AddItem")

	var req dropPlanItemRequest
	if !h.decode(w, r, "AddItem", &req) {
		return
	}
	errs := fieldErrors{}
	planned := errs.day("planned_date", req.PlannedDate)
	if h.rejectFields(w, r, "AddItem", errs) {
		return
	}

	item, err := h.service.AddItem(r.Context(), principal, projectID, sprintID, application.DropPlanItemInput{
		WorkItemID:     req.WorkItemID,
		AssignedUserID: req.AssignedUserID,
		PlannedDate:    planned,
		OrderIndex:     req.OrderIndex,
	})
	if err != nil {
		h.fail(w, r, logger, "drop plan item creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "drop plan item added", "item_id", item.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toDropPlanItemDTO(item))
}

func (h *DropPlanHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := pathVar(r, "itemID")
	principal, projectID, sprintID, logger := h.scope(r, "UpdateItem", "item_id", itemID)

	var req dropPlanItemPatchRequest
	if !h.decode(w, r, "UpdateItem", &req) {
		return
	}
	errs := fieldErrors{}
	planned := errs.optionalDay("planned_date", req.PlannedDate)
	if h.rejectFields(w, r, "UpdateItem", errs) {
		return
	}

	item, err := h.service.UpdateItem(r.Context(), principal, projectID, sprintID, itemID, application.DropPlanItemPatch{
		AssignedUserID: req.AssignedUserID,
		PlannedDate:    planned,
		OrderIndex:     req.OrderIndex,
	})
	if err != nil {
		h.fail(w, r, logger, "drop plan item update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "drop plan item updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDropPlanItemDTO(item))
}

func (h *DropPlanHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := pathVar(r, "itemID")
	principal, projectID, sprintID, logger := h.scope(r, "RemoveItem", "item_id", itemID)

	if err := h.service.RemoveItem(r.Context(), principal, projectID, sprintID, itemID); err != nil {
		h.fail(w, r, logger, "drop plan item removal failed", err)
		return
	}

	logger.InfoContext(r.Context(), "drop plan item removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

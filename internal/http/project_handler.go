package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/application"
)

type projectService interface {
	CreateProject(ctx context.Context, principal application.Principal, input application.ProjectInput) (application.Project, error)
	ListProjects(ctx context.Context, principal application.Principal) ([]application.Project, error)
	GetProject(ctx context.Context, principal application.Principal, projectID string) (application.Project, error)
	UpdateProject(ctx context.Context, principal application.Principal, projectID string, patch application.ProjectPatch) (application.Project, error)
	DeleteProject(ctx context.Context, principal application.Principal, projectID string) error
	ListMembers(ctx context.Context, principal application.Principal, projectID string) ([]application.ProjectMember, error)
	AddMember(ctx context.Context, principal application.Principal, projectID, userID string) (application.ProjectMember, error)
	RemoveMember(ctx context.Context, principal application.Principal, projectID, userID string) error
}

// ProjectHandler serves /projects and the member list of a project.
type ProjectHandler struct {
	handlerBase
	service projectService
}

// NewProjectHandler builds a handler over the project service.
func NewProjectHandler(service projectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{handlerBase: newHandlerBase("ProjectHandler", logger), service: service}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	projects, err := h.service.ListProjects(r.Context(), principal)
	if err != nil {
		h.fail(w, r, logger, "project listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lo.Map(projects, func(p application.Project, _ int) projectDTO { return toProjectDTO(p) }))
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)

	var req projectRequest
	if !h.decode(w, r, "Create", &req) {
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)
	project, err := h.service.CreateProject(r.Context(), principal, application.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, logger, "project creation failed", err)
		return
	}

	logger.With("project_id", project.ID).InfoContext(r.Context(), "project created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toProjectDTO(project))
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "project_id", projectID)

	project, err := h.service.GetProject(r.Context(), principal, projectID)
	if err != nil {
		h.fail(w, r, logger, "project lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProjectDTO(project))
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")

	var req projectPatchRequest
	if !h.decode(w, r, "Update", &req) {
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "project_id", projectID)
	project, err := h.service.UpdateProject(r.Context(), principal, projectID, application.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.fail(w, r, logger, "project update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "project updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProjectDTO(project))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "project_id", projectID)

	if err := h.service.DeleteProject(r.Context(), principal, projectID); err != nil {
		h.fail(w, r, logger, "project deletion failed", err)
		return
	}

	logger.InfoContext(r.Context(), "project deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")
	logger := h.log(r.Context(), "ListMembers", "principal_id", principal.UserID, "project_id", projectID)

	members, err := h.service.ListMembers(r.Context(), principal, projectID)
	if err != nil {
		h.fail(w, r, logger, "member listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lo.Map(members, func(m application.ProjectMember, _ int) memberDTO { return toMemberDTO(m) }))
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")

	var req addMemberRequest
	if !h.decode(w, r, "AddMember", &req) {
		return
	}

	logger := h.log(r.Context(), "AddMember", "principal_id", principal.UserID, "project_id", projectID, "user_id", req.UserID)
	member, err := h.service.AddMember(r.Context(), principal, projectID, req.UserID)
	if err != nil {
		h.fail(w, r, logger, "member addition failed", err)
		return
	}

	logger.InfoContext(r.Context(), "member added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toMemberDTO(member))
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	projectID := pathVar(r, "projectID")
	userID := pathVar(r, "userID")
	logger := h.log(r.Context(), "RemoveMember", "principal_id", principal.UserID, "project_id", projectID, "user_id", userID)

	if err := h.service.RemoveMember(r.Context(), principal, projectID, userID); err != nil {
		h.fail(w, r, logger, "member removal failed", err)
		return
	}

	logger.InfoContext(r.Context(), "member removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

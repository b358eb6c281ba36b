package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/application"
)

type userService interface {
	CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error)
	GetUser(ctx context.Context, principal application.Principal, userID string) (application.User, error)
	Me(ctx context.Context, principal application.Principal) (application.User, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error)
	DeactivateUser(ctx context.Context, principal application.Principal, userID string) error
	ListUserProjects(ctx context.Context, principal application.Principal, userID string) ([]application.Project, error)
}

// UserHandler serves /users.
type UserHandler struct {
	handlerBase
	service userService
}

// NewUserHandler builds a handler over the user service.
func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{handlerBase: newHandlerBase("UserHandler", logger), service: service}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	logger := h.log(r.Context(), "Me", "principal_id", principal.UserID)

	user, err := h.service.Me(r.Context(), principal)
	if err != nil {
		h.fail(w, r, logger, "current user lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.fail(w, r, logger, "user listing failed", err)
		return
	}

	logger.InfoContext(r.Context(), "users listed", "count", len(users))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lo.Map(users, func(u application.User, _ int) userDTO { return toUserDTO(u) }))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)

	var req userRequest
	if !h.decode(w, r, "Create", &req) {
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)
	user, err := h.service.CreateUser(r.Context(), application.CreateUserParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.fail(w, r, logger, "user creation failed", err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "user created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	userID := pathVar(r, "userID")
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "user_id", userID)

	user, err := h.service.GetUser(r.Context(), principal, userID)
	if err != nil {
		h.fail(w, r, logger, "user lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	userID := pathVar(r, "userID")

	var req userPatchRequest
	if !h.decode(w, r, "Update", &req) {
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "user_id", userID)
	user, err := h.service.UpdateUser(r.Context(), application.UpdateUserParams{
		Principal: principal,
		UserID:    userID,
		Patch:     req.toPatch(),
	})
	if err != nil {
		h.fail(w, r, logger, "user update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "user updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// Delete deactivates the account; the user row is kept.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	userID := pathVar(r, "userID")
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "user_id", userID)

	if err := h.service.DeactivateUser(r.Context(), principal, userID); err != nil {
		h.fail(w, r, logger, "user deactivation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "user deactivated")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *UserHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	principal := principalOf(r)
	userID := pathVar(r, "userID")
	logger := h.log(r.Context(), "ListProjects", "principal_id", principal.UserID, "user_id", userID)

	projects, err := h.service.ListUserProjects(r.Context(), principal, userID)
	if err != nil {
		h.fail(w, r, logger, "user project listing failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lo.Map(projects, func(p application.Project, _ int) projectDTO { return toProjectDTO(p) }))
}

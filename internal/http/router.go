package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Projects     *ProjectHandler
	Iterations   *IterationHandler
	WorkItems    *WorkItemHandler
	WorkSessions *WorkSessionHandler
	DropPlan     *DropPlanHandler
	Calendar     *CalendarHandler

	// Sessions validates the token of every route except login, logout,
	// health and metrics.
	Sessions SessionValidator
	// Health reports whether the server can reach its storage.
	Health func(ctx context.Context) error
	// Requests, when set, observes every matched request.
	Requests RequestObserver
	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	res := newResponder(logger)

	root := mux.NewRouter()
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: statusMessage(http.StatusNotFound)})
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: http.StatusText(http.StatusMethodNotAllowed)})
	})
	if cfg.Requests != nil {
		root.Use(Instrument(cfg.Requests))
	}

	root.HandleFunc("/healthz", healthHandler(res, cfg.Health)).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		root.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	if cfg.Auth != nil {
		root.HandleFunc("/sessions", cfg.Auth.CreateSession).Methods(http.MethodPost)
		root.HandleFunc("/sessions/current", cfg.Auth.DeleteCurrentSession).Methods(http.MethodDelete)
		root.HandleFunc("/sessions/current/refresh", cfg.Auth.RefreshCurrentSession).Methods(http.MethodPost)
	}

	api := root.NewRoute().Subrouter()
	if cfg.Sessions != nil {
		api.Use(mux.MiddlewareFunc(RequireSession(cfg.Sessions, logger)))
	}

	if h := cfg.Users; h != nil {
		api.HandleFunc("/users/me", h.Me).Methods(http.MethodGet)
		api.HandleFunc("/users", h.List).Methods(http.MethodGet)
		api.HandleFunc("/users", h.Create).Methods(http.MethodPost)
		api.HandleFunc("/users/{userID}", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/users/{userID}", h.Update).Methods(http.MethodPatch)
		api.HandleFunc("/users/{userID}", h.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/users/{userID}/projects", h.ListProjects).Methods(http.MethodGet)
	}
	if h := cfg.WorkSessions; h != nil {
		api.HandleFunc("/users/{userID}/sessions", h.ListForUser).Methods(http.MethodGet)
	}
	if h := cfg.Calendar; h != nil {
		api.HandleFunc("/users/{userID}/nonworkingdays", h.ListNonWorkingDays).Methods(http.MethodGet)
		api.HandleFunc("/users/{userID}/nonworkingdays", h.CreateNonWorkingDay).Methods(http.MethodPost)
		api.HandleFunc("/users/{userID}/nonworkingdays/{dayID}", h.DeleteNonWorkingDay).Methods(http.MethodDelete)
		api.HandleFunc("/holidays", h.ListHolidays).Methods(http.MethodGet)
		api.HandleFunc("/holidays", h.CreateHoliday).Methods(http.MethodPost)
		api.HandleFunc("/holidays/{holidayID}", h.DeleteHoliday).Methods(http.MethodDelete)
	}

	if h := cfg.Projects; h != nil {
		api.HandleFunc("/projects", h.List).Methods(http.MethodGet)
		api.HandleFunc("/projects", h.Create).Methods(http.MethodPost)
		api.HandleFunc("/projects/{projectID}", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/projects/{projectID}", h.Update).Methods(http.MethodPatch)
		api.HandleFunc("/projects/{projectID}", h.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/projects/{projectID}/members", h.ListMembers).Methods(http.MethodGet)
		api.HandleFunc("/projects/{projectID}/members", h.AddMember).Methods(http.MethodPost)
		api.HandleFunc("/projects/{projectID}/members/{userID}", h.RemoveMember).Methods(http.MethodDelete)
	}

	project := api.PathPrefix("/projects/{projectID}").Subrouter()
	if h := cfg.Iterations; h != nil {
		project.HandleFunc("/iterations", h.List).Methods(http.MethodGet)
		project.HandleFunc("/iterations", h.Create).Methods(http.MethodPost)
		project.HandleFunc("/iterations/{iterationID}", h.Get).Methods(http.MethodGet)
		project.HandleFunc("/iterations/{iterationID}", h.Update).Methods(http.MethodPatch)
		project.HandleFunc("/iterations/{iterationID}", h.Delete).Methods(http.MethodDelete)
		project.HandleFunc("/iterations/{iterationID}/workitems", h.ListWorkItems).Methods(http.MethodGet)
	}
	if h := cfg.WorkItems; h != nil {
		project.HandleFunc("/workitems", h.List).Methods(http.MethodGet)
		project.HandleFunc("/workitems", h.Create).Methods(http.MethodPost)
		project.HandleFunc("/workitems/{workItemID}", h.Get).Methods(http.MethodGet)
		project.HandleFunc("/workitems/{workItemID}", h.Update).Methods(http.MethodPatch)
		project.HandleFunc("/workitems/{workItemID}", h.Delete).Methods(http.MethodDelete)
		project.HandleFunc("/workitems/{workItemID}/children", h.ListChildren).Methods(http.MethodGet)
	}
	if h := cfg.WorkSessions; h != nil {
		project.HandleFunc("/workitems/{workItemID}/sessions", h.List).Methods(http.MethodGet)
		project.HandleFunc("/workitems/{workItemID}/sessions", h.Create).Methods(http.MethodPost)
		project.HandleFunc("/workitems/{workItemID}/sessions/{sessionID}", h.Update).Methods(http.MethodPatch)
		project.HandleFunc("/workitems/{workItemID}/sessions/{sessionID}", h.Delete).Methods(http.MethodDelete)
	}
	if h := cfg.DropPlan; h != nil {
		plan := project.PathPrefix("/iterations/{iterationID}/dropplan").Subrouter()
		plan.HandleFunc("", h.Overview).Methods(http.MethodGet)
		plan.HandleFunc("/tasks", h.Tasks).Methods(http.MethodGet)
		plan.HandleFunc("/tasks/users/{userID}", h.UserTasks).Methods(http.MethodGet)
		plan.HandleFunc("/tasks/{taskID}/move", h.MoveTask).Methods(http.MethodPatch)
		plan.HandleFunc("/users/{userID}", h.UserPlan).Methods(http.MethodGet)
		plan.HandleFunc("/capacity", h.Capacity).Methods(http.MethodGet)
		plan.HandleFunc("/items", h.AddItem).Methods(http.MethodPost)
		plan.HandleFunc("/items/{itemID}", h.UpdateItem).Methods(http.MethodPatch)
		plan.HandleFunc("/items/{itemID}", h.RemoveItem).Methods(http.MethodDelete)
	}

	var handler http.Handler = root
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

func healthHandler(res responder, check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				res.loggerFor(r.Context()).ErrorContext(r.Context(), "health check failed", "error", err)
				res.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		res.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/testfixtures"
)

const testPassword = "correct horse"

// apiEnv is a router over a migrated SQLite database seeded with one user
// per role and a project the manager created and the executor joined.
type apiEnv struct {
	server   *httptest.Server
	harness  *testfixtures.SQLiteHarness
	requests *requestRecorder
	admin    testfixtures.UserFixture
	manager  testfixtures.UserFixture
	executor testfixtures.UserFixture
	outsider testfixtures.UserFixture
	project  testfixtures.ProjectFixture
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	h := testfixtures.NewSQLiteHarness(t)
	password := testfixtures.WithUserPasswordHash("plain:" + testPassword)
	e := &apiEnv{
		harness:  h,
		requests: &requestRecorder{},
		admin:    h.SeedUser(testfixtures.NewUserFixture(password, testfixtures.WithUserRole(application.RoleAdministrator))),
		manager:  h.SeedUser(testfixtures.NewUserFixture(password, testfixtures.WithUserRole(application.RoleManager))),
		executor: h.SeedUser(testfixtures.NewUserFixture(password, testfixtures.WithUserCapacity("6"))),
		outsider: h.SeedUser(testfixtures.NewUserFixture(password)),
	}
	e.project = h.SeedProject(testfixtures.NewProjectFixture(e.manager.ID, testfixtures.WithProjectMembers(e.executor.ID)))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := testfixtures.NewServiceFactory(testfixtures.WithLogger(logger))
	tx := h.Transactor()
	auth := factory.NewStoreAuthService(tx, time.Hour)

	router := NewRouter(RouterConfig{
		Auth:         NewAuthHandler(auth, logger),
		Users:        NewUserHandler(factory.NewUserService(tx, application.WithPasswordHasher(testfixtures.PlainHasher)), logger),
		Projects:     NewProjectHandler(factory.NewProjectService(tx), logger),
		Iterations:   NewIterationHandler(factory.NewIterationService(tx), logger),
		WorkItems:    NewWorkItemHandler(factory.NewWorkItemService(tx), logger),
		WorkSessions: NewWorkSessionHandler(factory.NewWorkSessionService(tx), logger),
		DropPlan:     NewDropPlanHandler(factory.NewDropPlanService(tx), logger),
		Calendar:     NewCalendarHandler(factory.NewCalendarService(tx), logger),
		Sessions:     auth,
		Health:       h.Store.Ping,
		Requests:     e.requests,
		Logger:       logger,
		Middleware:   []func(http.Handler) http.Handler{RequestLogger(logger)},
	})
	e.server = httptest.NewServer(router)
	t.Cleanup(e.server.Close)
	return e
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, data
}

// expect performs a request and decodes the response into out when the
// status matches.
func (e *apiEnv) expect(t *testing.T, status int, method, path, token string, body, out any) {
	t.Helper()

	got, data := e.do(t, method, path, token, body)
	if got != status {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, status, got, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("%s %s: failed to decode %s: %v", method, path, data, err)
		}
	}
}

func (e *apiEnv) login(t *testing.T, user testfixtures.UserFixture) string {
	t.Helper()

	var resp loginResponse
	e.expect(t, http.StatusCreated, http.MethodPost, "/sessions", "", loginRequest{Email: user.Email, Password: testPassword}, &resp)
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	return resp.Token
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("login issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()
		e := newAPIEnv(t)

		payload, _ := json.Marshal(loginRequest{Email: e.executor.Email, Password: testPassword})
		resp, err := e.server.Client().Post(e.server.URL+"/sessions", "application/json", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		token := resp.Header.Get("X-Session-Token")
		if token == "" {
			t.Fatal("expected X-Session-Token header")
		}
		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == sessionCookieName {
				cookie = c
			}
		}
		if cookie == nil || cookie.Value != token || !cookie.HttpOnly {
			t.Fatalf("unexpected session cookie %#v", cookie)
		}

		var me userDTO
		e.expect(t, http.StatusOK, http.MethodGet, "/users/me", token, nil, &me)
		if me.ID != e.executor.ID || me.CapacityPerDay != "6.00" {
			t.Fatalf("unexpected current user %#v", me)
		}
	})

	t.Run("wrong passwords are rejected", func(t *testing.T) {
		t.Parallel()
		e := newAPIEnv(t)

		var body errorResponse
		e.expect(t, http.StatusUnauthorized, http.MethodPost, "/sessions", "", loginRequest{Email: e.executor.Email, Password: "nope"}, &body)
		if body.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("unexpected error code %q", body.ErrorCode)
		}
		e.expect(t, http.StatusBadRequest, http.MethodPost, "/sessions", "", "{", nil)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		t.Parallel()
		e := newAPIEnv(t)
		token := e.login(t, e.executor)

		e.expect(t, http.StatusNoContent, http.MethodDelete, "/sessions/current", token, nil, nil)

		var body errorResponse
		e.expect(t, http.StatusUnauthorized, http.MethodGet, "/users/me", token, nil, &body)
		if body.ErrorCode != "AUTH_SESSION_REVOKED" {
			t.Fatalf("unexpected error code %q", body.ErrorCode)
		}
		e.expect(t, http.StatusUnauthorized, http.MethodGet, "/projects", "", nil, nil)
	})
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	admin, executor := e.login(t, e.admin), e.login(t, e.executor)

	newUser := userRequest{Email: "lead@example.com", DisplayName: "Lead", Password: "long-enough", Role: "Manager"}

	t.Run("require administrator authorization", func(t *testing.T) {
		var body errorResponse
		e.expect(t, http.StatusForbidden, http.MethodPost, "/users", executor, newUser, &body)
		if body.ErrorCode != "AUTH_FORBIDDEN" {
			t.Fatalf("unexpected error code %q", body.ErrorCode)
		}
	})

	t.Run("return field validation errors", func(t *testing.T) {
		var body errorResponse
		e.expect(t, http.StatusUnprocessableEntity, http.MethodPost, "/users", admin, userRequest{Email: "nope"}, &body)
		for _, field := range []string{"email", "display_name", "password"} {
			if _, ok := body.Errors[field]; !ok {
				t.Fatalf("expected a %s error in %#v", field, body.Errors)
			}
		}
	})

	t.Run("administrators create, update and deactivate users", func(t *testing.T) {
		var created userDTO
		e.expect(t, http.StatusCreated, http.MethodPost, "/users", admin, newUser, &created)
		if created.Role != "Manager" || created.CapacityPerDay != "8.00" {
			t.Fatalf("unexpected user %#v", created)
		}
		e.expect(t, http.StatusConflict, http.MethodPost, "/users", admin, newUser, nil)

		var updated userDTO
		e.expect(t, http.StatusOK, http.MethodPatch, "/users/"+created.ID, admin, map[string]any{"capacity_per_day": "7.5"}, &updated)
		if updated.CapacityPerDay != "7.50" {
			t.Fatalf("expected capacity 7.50, got %s", updated.CapacityPerDay)
		}

		e.expect(t, http.StatusNoContent, http.MethodDelete, "/users/"+created.ID, admin, nil, nil)
		var fetched userDTO
		e.expect(t, http.StatusOK, http.MethodGet, "/users/"+created.ID, executor, nil, &fetched)
		if fetched.IsActive {
			t.Fatal("expected the user to be deactivated")
		}
		e.expect(t, http.StatusNotFound, http.MethodGet, "/users/ghost", executor, nil, nil)
	})

	t.Run("users list their projects", func(t *testing.T) {
		var projects []projectDTO
		e.expect(t, http.StatusOK, http.MethodGet, "/users/"+e.executor.ID+"/projects", executor, nil, &projects)
		if len(projects) != 1 || projects[0].MemberCount != 2 {
			t.Fatalf("unexpected projects %#v", projects)
		}
	})
}

func TestProjectHandlers(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	manager, executor, outsider := e.login(t, e.manager), e.login(t, e.executor), e.login(t, e.outsider)
	base := "/projects/" + e.project.ID

	var created projectDTO
	e.expect(t, http.StatusCreated, http.MethodPost, "/projects", manager, projectRequest{Name: "  Platform  "}, &created)
	if created.Name != "Platform" || created.MemberCount != 1 {
		t.Fatalf("unexpected project %#v", created)
	}
	e.expect(t, http.StatusForbidden, http.MethodPost, "/projects", executor, projectRequest{Name: "Rogue"}, nil)

	e.expect(t, http.StatusForbidden, http.MethodGet, base, outsider, nil, nil)
	e.expect(t, http.StatusNotFound, http.MethodGet, "/projects/missing", manager, nil, nil)

	var member memberDTO
	e.expect(t, http.StatusCreated, http.MethodPost, base+"/members", manager, addMemberRequest{UserID: e.outsider.ID}, &member)
	if member.UserID != e.outsider.ID || member.AddedBy != e.manager.ID {
		t.Fatalf("unexpected member %#v", member)
	}
	e.expect(t, http.StatusConflict, http.MethodPost, base+"/members", manager, addMemberRequest{UserID: e.outsider.ID}, nil)

	var members []memberDTO
	e.expect(t, http.StatusOK, http.MethodGet, base+"/members", outsider, nil, &members)
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}

	e.expect(t, http.StatusNoContent, http.MethodDelete, base+"/members/"+e.outsider.ID, manager, nil, nil)
	e.expect(t, http.StatusMethodNotAllowed, http.MethodPut, base, manager, projectRequest{Name: "Nope"}, nil)
}

func TestDropPlanHandlers(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	manager, executor := e.login(t, e.manager), e.login(t, e.executor)
	base := "/projects/" + e.project.ID

	var sprint iterationDTO
	e.expect(t, http.StatusCreated, http.MethodPost, base+"/iterations", manager, iterationRequest{
		Name:      "Sprint 1",
		StartDate: "2025-01-06",
		EndDate:   "2025-01-17",
		WorkingDays: []string{
			"2025-01-10", "2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09",
			"2025-01-13", "2025-01-14", "2025-01-15", "2025-01-16", "2025-01-17",
		},
	}, &sprint)
	if len(sprint.WorkingDays) != 10 || sprint.WorkingDays[0] != "2025-01-06" {
		t.Fatalf("unexpected working days %v", sprint.WorkingDays)
	}
	e.expect(t, http.StatusConflict, http.MethodPost, base+"/iterations", manager, iterationRequest{
		Name:      "Overlap",
		StartDate: "2025-01-10",
		EndDate:   "2025-01-24",
	}, nil)
	e.expect(t, http.StatusUnprocessableEntity, http.MethodPost, base+"/iterations", manager, iterationRequest{
		Name:      "Bad dates",
		StartDate: "06/01/2025",
		EndDate:   "2025-01-24",
	}, nil)

	create := func(req map[string]any) workItemDTO {
		t.Helper()
		var item workItemDTO
		e.expect(t, http.StatusCreated, http.MethodPost, base+"/workitems", manager, req, &item)
		return item
	}
	epic := create(map[string]any{"type": "Epic", "title": "Billing"})
	feature := create(map[string]any{"type": "Feature", "title": "Invoices", "parent_id": epic.ID})
	story := create(map[string]any{"type": "UserStory", "title": "Send invoices", "parent_id": feature.ID})
	task := create(map[string]any{
		"type":             "Task",
		"title":            "Render PDF",
		"parent_id":        story.ID,
		"assigned_to":      e.executor.ID,
		"iteration_id":     sprint.ID,
		"estimation_hours": "10",
	})
	if task.EstimationHours == nil || *task.EstimationHours != "10.00" || task.CompletedHours != "0.00" {
		t.Fatalf("unexpected task hours %#v", task)
	}

	plan := base + "/iterations/" + sprint.ID + "/dropplan"

	var tasks []taskViewDTO
	e.expect(t, http.StatusOK, http.MethodGet, plan+"/tasks?assigned_to="+e.executor.ID, executor, nil, &tasks)
	if len(tasks) != 1 || tasks[0].ID != task.ID || tasks[0].ParentTitle == nil || *tasks[0].ParentTitle != "Send invoices" {
		t.Fatalf("unexpected tasks %#v", tasks)
	}
	e.expect(t, http.StatusOK, http.MethodGet, plan+"/tasks", executor, nil, &tasks)
	if len(tasks) != 0 {
		t.Fatalf("expected no unassigned tasks, got %d", len(tasks))
	}

	var item dropPlanItemDTO
	e.expect(t, http.StatusCreated, http.MethodPost, plan+"/items", manager, dropPlanItemRequest{
		WorkItemID:     task.ID,
		AssignedUserID: e.executor.ID,
		PlannedDate:    "2025-01-06",
	}, &item)
	e.expect(t, http.StatusConflict, http.MethodPost, plan+"/items", manager, dropPlanItemRequest{
		WorkItemID:     task.ID,
		AssignedUserID: e.executor.ID,
		PlannedDate:    "2025-01-07",
	}, nil)

	var userPlan userDropPlanDTO
	e.expect(t, http.StatusOK, http.MethodGet, plan+"/users/"+e.executor.ID, executor, nil, &userPlan)
	if userPlan.User.TotalCapacity != "60.00" || userPlan.User.TotalPlanned != "10.00" {
		t.Fatalf("unexpected user capacity %#v", userPlan.User)
	}
	if len(userPlan.Items) != 1 || userPlan.Items[0].ID != item.ID || userPlan.Items[0].Title != "Render PDF" {
		t.Fatalf("unexpected planned items %#v", userPlan.Items)
	}
	if day := userPlan.LoadByDay[0]; day.Date != "2025-01-06" || day.Planned != "10.00" || !day.IsOvercommitted {
		t.Fatalf("unexpected first day %#v", day)
	}

	var capacity sprintCapacityDTO
	e.expect(t, http.StatusOK, http.MethodGet, plan+"/capacity", executor, nil, &capacity)
	if capacity.TotalCapacity != "140.00" || capacity.TotalPlanned != "10.00" || capacity.UtilizationPercent != "7.14" {
		t.Fatalf("unexpected sprint capacity %#v", capacity)
	}
	if len(capacity.ByDay) != 10 || len(capacity.ByUser) != 2 {
		t.Fatalf("unexpected breakdown: %d days, %d users", len(capacity.ByDay), len(capacity.ByUser))
	}

	var rejected errorResponse
	e.expect(t, http.StatusUnprocessableEntity, http.MethodPatch, plan+"/tasks/"+task.ID+"/move", manager,
		moveTaskRequest{StartDate: "2025-01-20", EndDate: "2025-01-21"}, &rejected)
	if _, ok := rejected.Errors["start_date"]; !ok {
		t.Fatalf("expected a start_date error, got %#v", rejected.Errors)
	}

	var moved taskViewDTO
	e.expect(t, http.StatusOK, http.MethodPatch, plan+"/tasks/"+task.ID+"/move", manager,
		moveTaskRequest{StartDate: "2025-01-07", EndDate: "2025-01-08"}, &moved)
	if moved.StartDate == nil || *moved.StartDate != "2025-01-07" || *moved.EndDate != "2025-01-08" {
		t.Fatalf("unexpected moved task %#v", moved)
	}

	var overview sprintOverviewDTO
	e.expect(t, http.StatusOK, http.MethodGet, plan, executor, nil, &overview)
	if overview.TotalTasks != 1 || overview.TotalEstimation != "10.00" || len(overview.Members) != 2 {
		t.Fatalf("unexpected overview %#v", overview)
	}

	e.expect(t, http.StatusNoContent, http.MethodDelete, plan+"/items/"+item.ID, manager, nil, nil)
	e.expect(t, http.StatusNotFound, http.MethodDelete, plan+"/items/"+item.ID, manager, nil, nil)

	var observed bool
	for _, r := range e.requests.requests {
		if r.route == "/projects/{projectID}/iterations/{iterationID}/dropplan/capacity" && r.status == http.StatusOK {
			observed = true
		}
	}
	if !observed {
		t.Fatal("expected the capacity route to be observed by its template")
	}
}

func TestWorkSessionHandlers(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	manager, executor := e.login(t, e.manager), e.login(t, e.executor)
	base := "/projects/" + e.project.ID

	create := func(req map[string]any) workItemDTO {
		t.Helper()
		var item workItemDTO
		e.expect(t, http.StatusCreated, http.MethodPost, base+"/workitems", manager, req, &item)
		return item
	}
	epic := create(map[string]any{"type": "Epic", "title": "Search"})
	feature := create(map[string]any{"type": "Feature", "title": "Indexing", "parent_id": epic.ID})
	story := create(map[string]any{"type": "UserStory", "title": "Index docs", "parent_id": feature.ID})
	task := create(map[string]any{"type": "Task", "title": "Tokenizer", "parent_id": story.ID, "estimation_hours": "4"})

	sessions := base + "/workitems/" + task.ID + "/sessions"
	start := testfixtures.ReferenceTime().Add(-3 * time.Hour)
	end := start.Add(90 * time.Minute)

	var closed workSessionDTO
	e.expect(t, http.StatusCreated, http.MethodPost, sessions, executor, map[string]any{"started_at": start, "ended_at": end}, &closed)
	if closed.TotalHours == nil || *closed.TotalHours != "1.50" {
		t.Fatalf("unexpected session hours %#v", closed.TotalHours)
	}

	var open workSessionDTO
	e.expect(t, http.StatusCreated, http.MethodPost, sessions, executor, map[string]any{"started_at": end}, &open)
	e.expect(t, http.StatusConflict, http.MethodPost, sessions, executor, map[string]any{"started_at": end}, nil)

	var item workItemDTO
	e.expect(t, http.StatusOK, http.MethodGet, base+"/workitems/"+task.ID, executor, nil, &item)
	if item.CompletedHours != "3.00" || item.RemainingHours == nil || *item.RemainingHours != "1.00" {
		t.Fatalf("unexpected hours completed=%s remaining=%v", item.CompletedHours, item.RemainingHours)
	}

	e.expect(t, http.StatusOK, http.MethodPatch, sessions+"/"+open.ID, executor, map[string]any{"ended_at": testfixtures.ReferenceTime()}, nil)

	var listed []workSessionDTO
	e.expect(t, http.StatusOK, http.MethodGet, "/users/"+e.executor.ID+"/sessions?date_from=2025-01-06&date_to=2025-01-06", manager, nil, &listed)
	if len(listed) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(listed))
	}
	e.expect(t, http.StatusUnprocessableEntity, http.MethodGet, "/users/"+e.executor.ID+"/sessions?date_from=2025-01-06", manager, nil, nil)

	e.expect(t, http.StatusNoContent, http.MethodDelete, sessions+"/"+closed.ID, executor, nil, nil)
}

func TestCalendarHandlers(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)
	admin, executor := e.login(t, e.admin), e.login(t, e.executor)

	var holiday holidayDTO
	e.expect(t, http.StatusCreated, http.MethodPost, "/holidays", admin, holidayRequest{Date: "2025-01-01"}, &holiday)
	e.expect(t, http.StatusConflict, http.MethodPost, "/holidays", admin, holidayRequest{Date: "2025-01-01"}, nil)
	e.expect(t, http.StatusForbidden, http.MethodPost, "/holidays", executor, holidayRequest{Date: "2025-01-02"}, nil)
	e.expect(t, http.StatusUnprocessableEntity, http.MethodPost, "/holidays", admin, holidayRequest{Date: "soon"}, nil)

	var holidays []holidayDTO
	e.expect(t, http.StatusOK, http.MethodGet, "/holidays", executor, nil, &holidays)
	if len(holidays) != 1 || holidays[0].Date != "2025-01-01" {
		t.Fatalf("unexpected holidays %#v", holidays)
	}
	e.expect(t, http.StatusNoContent, http.MethodDelete, "/holidays/"+holiday.ID, admin, nil, nil)

	days := "/users/" + e.executor.ID + "/nonworkingdays"
	var day nonWorkingDayDTO
	e.expect(t, http.StatusCreated, http.MethodPost, days, executor, nonWorkingDayRequest{Date: "2025-01-10", Type: "Vacation"}, &day)
	if day.Type != "Vacation" || day.UserID != e.executor.ID {
		t.Fatalf("unexpected day %#v", day)
	}
	e.expect(t, http.StatusNoContent, http.MethodDelete, days+"/"+day.ID, executor, nil, nil)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	t.Parallel()
	e := newAPIEnv(t)

	var health healthResponse
	e.expect(t, http.StatusOK, http.MethodGet, "/healthz", "", nil, &health)
	if health.Status != "ok" {
		t.Fatalf("unexpected health %#v", health)
	}
	e.expect(t, http.StatusNotFound, http.MethodGet, "/nowhere", "", nil, nil)
}

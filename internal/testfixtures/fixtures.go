package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

var (
	userCounter      uint64
	projectCounter   uint64
	iterationCounter uint64
	workItemCounter  uint64
	sessionCounter   uint64
)

var referenceTime = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday.
func ReferenceTime() time.Time {
	return referenceTime
}

// Day parses a YYYY-MM-DD date and panics on malformed input.
func Day(value string) time.Time {
	d, err := planning.ParseDay(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Hours parses a decimal hour figure and panics on malformed input.
func Hours(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// HoursPtr is Hours returning a pointer.
func HoursPtr(value string) *decimal.Decimal {
	h := Hours(value)
	return &h
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID             string
	Email          string
	DisplayName    string
	PasswordHash   string
	Role           application.Role
	CapacityPerDay decimal.Decimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic executor with 8 hours of daily capacity.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:             id,
		Email:          fmt.Sprintf("%s@example.com", id),
		DisplayName:    fmt.Sprintf("User %03d", idx),
		PasswordHash:   fmt.Sprintf("hash-%03d", idx),
		Role:           application.RoleExecutor,
		CapacityPerDay: decimal.NewFromInt(8),
		IsActive:       true,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserRole sets the role of the generated fixture.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserCapacity sets the daily capacity in hours.
func WithUserCapacity(hours string) UserOption {
	return func(f *UserFixture) {
		f.CapacityPerDay = Hours(hours)
	}
}

// WithUserInactive marks the fixture as deactivated.
func WithUserInactive() UserOption {
	return func(f *UserFixture) {
		f.IsActive = false
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:             f.ID,
		Email:          f.Email,
		DisplayName:    f.DisplayName,
		PasswordHash:   f.PasswordHash,
		Role:           string(f.Role),
		CapacityPerDay: f.CapacityPerDay,
		IsActive:       f.IsActive,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User: application.User{
			ID:             f.ID,
			Email:          f.Email,
			DisplayName:    f.DisplayName,
			Role:           f.Role,
			CapacityPerDay: f.CapacityPerDay,
			IsActive:       f.IsActive,
			CreatedAt:      f.CreatedAt,
			UpdatedAt:      f.UpdatedAt,
		},
		PasswordHash: f.PasswordHash,
		Disabled:     !f.IsActive,
	}
}

// ----------------------------- Project fixtures -----------------------------

// ProjectFixture represents a deterministic project with its member list.
type ProjectFixture struct {
	ID        string
	Name      string
	CreatedBy string
	Members   []string
	CreatedAt time.Time
}

// ProjectOption configures the generated project fixture.
type ProjectOption func(*ProjectFixture)

// NewProjectFixture returns a project created by createdBy, who is also its
// first member.
func NewProjectFixture(createdBy string, opts ...ProjectOption) ProjectFixture {
	idx := atomic.AddUint64(&projectCounter, 1)
	fixture := ProjectFixture{
		ID:        fmt.Sprintf("project-%03d", idx),
		Name:      fmt.Sprintf("Project %03d", idx),
		CreatedBy: createdBy,
		Members:   []string{createdBy},
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithProjectID overrides the generated project ID.
func WithProjectID(id string) ProjectOption {
	return func(f *ProjectFixture) {
		f.ID = id
	}
}

// WithProjectMembers adds members besides the creator.
func WithProjectMembers(userIDs ...string) ProjectOption {
	return func(f *ProjectFixture) {
		f.Members = append(f.Members, userIDs...)
	}
}

// Persistence returns the fixture as a persistence.Project value.
func (f ProjectFixture) Persistence() persistence.Project {
	return persistence.Project{
		ID:        f.ID,
		Name:      f.Name,
		IsActive:  true,
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// ----------------------------- Iteration fixtures -----------------------------

// IterationFixture represents a deterministic sprint.
type IterationFixture struct {
	ID          string
	ProjectID   string
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	State       planning.IterationState
	WorkingDays []time.Time
	CreatedAt   time.Time
}

// IterationOption configures the generated iteration fixture.
type IterationOption func(*IterationFixture)

// NewIterationFixture returns a two-week sprint from 2025-01-06 to 2025-01-17
// working Monday to Friday.
func NewIterationFixture(projectID string, opts ...IterationOption) IterationFixture {
	idx := atomic.AddUint64(&iterationCounter, 1)
	start, end := Day("2025-01-06"), Day("2025-01-17")
	fixture := IterationFixture{
		ID:          fmt.Sprintf("iteration-%03d", idx),
		ProjectID:   projectID,
		Name:        fmt.Sprintf("Sprint %03d", idx),
		StartDate:   start,
		EndDate:     end,
		State:       planning.IterationCurrent,
		WorkingDays: planning.SuggestWorkingDays(start, end, nil, nil),
		CreatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithIterationID overrides the generated iteration ID.
func WithIterationID(id string) IterationOption {
	return func(f *IterationFixture) {
		f.ID = id
	}
}

// WithIterationRange sets the sprint range and recomputes its weekdays.
func WithIterationRange(start, end time.Time) IterationOption {
	return func(f *IterationFixture) {
		f.StartDate, f.EndDate = start, end
		f.WorkingDays = planning.SuggestWorkingDays(start, end, nil, nil)
	}
}

// WithIterationWorkingDays overrides the working days.
func WithIterationWorkingDays(days ...time.Time) IterationOption {
	return func(f *IterationFixture) {
		f.WorkingDays = days
	}
}

// Persistence returns the fixture as a persistence.Iteration value.
func (f IterationFixture) Persistence() persistence.Iteration {
	return persistence.Iteration{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		Name:        f.Name,
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		State:       string(f.State),
		WorkingDays: f.WorkingDays,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// ----------------------------- Work item fixtures -----------------------------

// WorkItemFixture represents a deterministic work item.
type WorkItemFixture struct {
	ID          string
	ProjectID   string
	Type        planning.ItemType
	Title       string
	State       planning.ItemState
	ParentID    *string
	AssignedTo  *string
	IterationID *string
	Estimation  *decimal.Decimal
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedBy   string
	CreatedAt   time.Time
}

// WorkItemOption configures the generated work item fixture.
type WorkItemOption func(*WorkItemFixture)

// NewWorkItemFixture returns a New, Medium priority item of type itemType.
func NewWorkItemFixture(projectID string, itemType planning.ItemType, createdBy string, opts ...WorkItemOption) WorkItemFixture {
	idx := atomic.AddUint64(&workItemCounter, 1)
	fixture := WorkItemFixture{
		ID:        fmt.Sprintf("item-%03d", idx),
		ProjectID: projectID,
		Type:      itemType,
		Title:     fmt.Sprintf("%s %03d", itemType, idx),
		State:     planning.StateNew,
		CreatedBy: createdBy,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithWorkItemID overrides the generated ID.
func WithWorkItemID(id string) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.ID = id
	}
}

// WithWorkItemTitle overrides the generated title.
func WithWorkItemTitle(title string) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.Title = title
	}
}

// WithWorkItemParent sets the parent item.
func WithWorkItemParent(parentID string) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.ParentID = &parentID
	}
}

// WithWorkItemAssignee sets the assignee.
func WithWorkItemAssignee(userID string) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.AssignedTo = &userID
	}
}

// WithWorkItemIteration places the item in a sprint.
func WithWorkItemIteration(iterationID string) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.IterationID = &iterationID
	}
}

// WithWorkItemEstimation sets the estimation in hours.
func WithWorkItemEstimation(hours string) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.Estimation = HoursPtr(hours)
	}
}

// WithWorkItemDates sets the start and end dates.
func WithWorkItemDates(start, end time.Time) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.StartDate, f.EndDate = &start, &end
	}
}

// WithWorkItemState overrides the state.
func WithWorkItemState(state planning.ItemState) WorkItemOption {
	return func(f *WorkItemFixture) {
		f.State = state
	}
}

// Persistence returns the fixture as a persistence.WorkItem value.
func (f WorkItemFixture) Persistence() persistence.WorkItem {
	return persistence.WorkItem{
		ID:              f.ID,
		ProjectID:       f.ProjectID,
		Type:            string(f.Type),
		Title:           f.Title,
		State:           string(f.State),
		Priority:        string(planning.PriorityMedium),
		ParentID:        f.ParentID,
		AssignedTo:      f.AssignedTo,
		IterationID:     f.IterationID,
		EstimationHours: f.Estimation,
		Tags:            []string{},
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		CreatedBy:       f.CreatedBy,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// ----------------------------- Session fixtures -----------------------------

// SessionFixture represents a deterministic authentication session.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session for userID valid for one day.
func NewSessionFixture(userID string, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:          fmt.Sprintf("session-%03d", idx),
		UserID:      userID,
		Token:       fmt.Sprintf("token-%03d", idx),
		Fingerprint: fmt.Sprintf("fp-%03d", idx),
		ExpiresAt:   referenceTime.Add(24 * time.Hour),
		CreatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt overrides the expiry.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt marks the session revoked.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &t
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
		RevokedAt:   f.RevokedAt,
	}
}

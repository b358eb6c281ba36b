package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/dropplan/internal/planning"
)

// Role is the global permission level of a user.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleManager       Role = "Manager"
	RoleExecutor      Role = "Executor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleExecutor:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal is an administrator.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdministrator
}

// CanManage reports whether the principal may plan work: managers and administrators.
func (p Principal) CanManage() bool {
	return p.Role == RoleAdministrator || p.Role == RoleManager
}

// ----------------------------- Users -----------------------------

// User represents an account exposed by the application services.
type User struct {
	ID             string
	Email          string
	DisplayName    string
	Role           Role
	AvatarURL      *string
	CapacityPerDay decimal.Decimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserInput captures caller provided attributes for a new user.
type UserInput struct {
	Email          string
	DisplayName    string
	Password       string
	Role           Role
	AvatarURL      *string
	CapacityPerDay *decimal.Decimal
}

// UserPatch carries the fields of a partial user update. Nil fields are left unchanged.
type UserPatch struct {
	Email          *string
	DisplayName    *string
	Password       *string
	Role           *Role
	AvatarURL      *string
	CapacityPerDay *decimal.Decimal
	IsActive       *bool
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Patch     UserPatch
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// ----------------------------- Sessions -----------------------------

// Session represents an authenticated session issued to a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}

// ----------------------------- Projects -----------------------------

// Project groups members, iterations and work items.
type Project struct {
	ID          string
	Name        string
	Description *string
	IsActive    bool
	CreatedBy   string
	MemberCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectInput captures caller provided project fields.
type ProjectInput struct {
	Name        string
	Description *string
}

// ProjectPatch carries the fields of a partial project update.
type ProjectPatch struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// ProjectMember is a user participating in a project.
type ProjectMember struct {
	ProjectID      string
	UserID         string
	Email          string
	DisplayName    string
	Role           Role
	CapacityPerDay decimal.Decimal
	IsActive       bool
	AddedBy        string
	AddedAt        time.Time
}

// ----------------------------- Iterations -----------------------------

// Iteration is a sprint of a project.
type Iteration struct {
	ID          string
	ProjectID   string
	Name        string
	Goal        *string
	StartDate   time.Time
	EndDate     time.Time
	State       planning.IterationState
	WorkingDays []time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IterationInput captures caller provided fields for a new iteration.
type IterationInput struct {
	Name        string
	Goal        *string
	StartDate   time.Time
	EndDate     time.Time
	State       planning.IterationState
	WorkingDays []time.Time
}

// IterationPatch carries the fields of a partial iteration update.
type IterationPatch struct {
	Name        *string
	Goal        *string
	StartDate   *time.Time
	EndDate     *time.Time
	State       *planning.IterationState
	WorkingDays *[]time.Time
}

// ----------------------------- Work items -----------------------------

// WorkItem is a node of the Epic, Feature, UserStory, Task hierarchy with its
// computed hours.
type WorkItem struct {
	ID              string
	ProjectID       string
	Type            planning.ItemType
	Title           string
	Description     *string
	State           planning.ItemState
	Priority        planning.Priority
	ParentID        *string
	AssignedTo      *string
	IterationID     *string
	EstimationHours *decimal.Decimal
	Tags            []string
	StartDate       *time.Time
	EndDate         *time.Time
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedHours  decimal.Decimal
	RemainingHours  *decimal.Decimal
}

// WorkItemInput captures caller provided fields for a new work item.
type WorkItemInput struct {
	Type            planning.ItemType
	Title           string
	Description     *string
	State           planning.ItemState
	Priority        planning.Priority
	ParentID        *string
	AssignedTo      *string
	IterationID     *string
	EstimationHours *decimal.Decimal
	Tags            []string
	StartDate       *time.Time
	EndDate         *time.Time
}

// WorkItemPatch carries the fields of a partial work item update. The Clear
// flags reset nullable references.
type WorkItemPatch struct {
	Title           *string
	Description     *string
	State           *planning.ItemState
	Priority        *planning.Priority
	ParentID        *string
	ClearParent     bool
	AssignedTo      *string
	ClearAssignee   bool
	IterationID     *string
	ClearIteration  bool
	EstimationHours *decimal.Decimal
	Tags            *[]string
	StartDate       *time.Time
	EndDate         *time.Time
}

// WorkItemFilter narrows ListWorkItems.
type WorkItemFilter struct {
	Type        *planning.ItemType
	State       *planning.ItemState
	AssignedTo  *string
	IterationID *string
	ParentID    *string
}

// ----------------------------- Work sessions -----------------------------

// WorkSession is time tracked against a task.
type WorkSession struct {
	ID          string
	WorkItemID  string
	UserID      string
	Description *string
	StartedAt   time.Time
	EndedAt     *time.Time
	TotalHours  *decimal.Decimal
	CreatedAt   time.Time
}

// WorkSessionInput captures caller provided fields for a new session.
type WorkSessionInput struct {
	Description *string
	StartedAt   time.Time
	EndedAt     *time.Time
}

// WorkSessionPatch carries the fields of a partial session update.
type WorkSessionPatch struct {
	Description *string
	StartedAt   *time.Time
	EndedAt     *time.Time
	Reopen      bool
}

// ----------------------------- Drop plan -----------------------------

// IterationHeader summarizes the sprint a drop plan view belongs to.
type IterationHeader struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	State     planning.IterationState
}

// TaskView is a task as shown on the drop plan board.
type TaskView struct {
	ID              string
	Title           string
	State           planning.ItemState
	Priority        planning.Priority
	AssignedTo      *string
	ParentID        *string
	ParentTitle     *string
	EstimationHours *decimal.Decimal
	CompletedHours  decimal.Decimal
	RemainingHours  *decimal.Decimal
	StartDate       *time.Time
	EndDate         *time.Time
	Tags            []string
}

// MemberSummary is a project member with their daily capacity.
type MemberSummary struct {
	UserID         string
	DisplayName    string
	Email          string
	AvatarURL      *string
	CapacityPerDay decimal.Decimal
}

// SprintOverview is the header of the drop plan board.
type SprintOverview struct {
	Iteration       IterationHeader
	WorkingDays     []time.Time
	Members         []MemberSummary
	TotalTasks      int
	TotalEstimation decimal.Decimal
	TotalCompleted  decimal.Decimal
}

// UserTasks lists the tasks of one member within a sprint.
type UserTasks struct {
	Iteration       IterationHeader
	WorkingDays     []time.Time
	Member          *MemberSummary
	Tasks           []TaskView
	TotalEstimation decimal.Decimal
	TotalCompleted  decimal.Decimal
}

// DropPlanItem places a work item on a day of an iteration.
type DropPlanItem struct {
	ID             string
	IterationID    string
	WorkItemID     string
	AssignedUserID string
	PlannedDate    time.Time
	OrderIndex     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DropPlanItemInput captures the fields of a new drop plan entry.
type DropPlanItemInput struct {
	WorkItemID     string
	AssignedUserID string
	PlannedDate    time.Time
	OrderIndex     int
}

// DropPlanItemPatch carries the fields of a partial drop plan entry update.
type DropPlanItemPatch struct {
	AssignedUserID *string
	PlannedDate    *time.Time
	OrderIndex     *int
}

// PlannedItemView is a drop plan entry joined with its work item.
type PlannedItemView struct {
	DropPlanItem
	Title           string
	Type            planning.ItemType
	State           planning.ItemState
	Priority        planning.Priority
	Tags            []string
	ParentTitle     *string
	EstimationHours *decimal.Decimal
	CompletedHours  decimal.Decimal
	RemainingHours  *decimal.Decimal
}

// UserCapacitySummary is a member's capacity over a sprint.
type UserCapacitySummary struct {
	UserID         string
	DisplayName    string
	AvatarURL      *string
	CapacityPerDay decimal.Decimal
	TotalCapacity  decimal.Decimal
	TotalPlanned   decimal.Decimal
}

// UserDropPlan is one member's day-by-day plan within a sprint.
type UserDropPlan struct {
	Iteration   IterationHeader
	WorkingDays []time.Time
	User        UserCapacitySummary
	Items       []PlannedItemView
	LoadByDay   []planning.DayLoad
}

// SprintCapacity is the capacity aggregation of a sprint.
type SprintCapacity struct {
	Iteration   IterationHeader
	WorkingDays []time.Time
	planning.Capacity
}

// ----------------------------- Calendar -----------------------------

// Holiday is a company-wide day off.
type Holiday struct {
	ID          string
	Date        time.Time
	Description *string
	CreatedAt   time.Time
}

// NonWorkingDayType classifies personal days off.
type NonWorkingDayType string

const (
	NonWorkingPersonalLeave NonWorkingDayType = "PersonalLeave"
	NonWorkingVacation      NonWorkingDayType = "Vacation"
	NonWorkingSick          NonWorkingDayType = "Sick"
)

// Valid reports whether t is a known day-off type.
func (t NonWorkingDayType) Valid() bool {
	switch t {
	case NonWorkingPersonalLeave, NonWorkingVacation, NonWorkingSick:
		return true
	}
	return false
}

// NonWorkingDay is a personal day off for one user.
type NonWorkingDay struct {
	ID          string
	UserID      string
	Date        time.Time
	Type        NonWorkingDayType
	Description *string
	CreatedAt   time.Time
}

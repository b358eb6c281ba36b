package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// ProjectFilter narrows project queries. A nil MemberID lists every project.
type ProjectFilter struct {
	MemberID   *string
	ActiveOnly bool
}

// ProjectRepository stores projects and their membership.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project Project) error
	UpdateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error

	AddMember(ctx context.Context, member ProjectMember) error
	GetMember(ctx context.Context, projectID, userID string) (ProjectMember, error)
	ListMembers(ctx context.Context, projectID string) ([]ProjectMember, error)
	// ListMemberUsers returns the user records of the project members,
	// ordered by display name.
	ListMemberUsers(ctx context.Context, projectID string) ([]User, error)
	RemoveMember(ctx context.Context, projectID, userID string) error
}

// IterationRepository stores sprints.
type IterationRepository interface {
	CreateIteration(ctx context.Context, iteration Iteration) error
	UpdateIteration(ctx context.Context, iteration Iteration) error
	GetIteration(ctx context.Context, id string) (Iteration, error)
	// ListIterations returns the iterations of a project ordered by start date.
	ListIterations(ctx context.Context, projectID string) ([]Iteration, error)
	DeleteIteration(ctx context.Context, id string) error
}

// WorkItemFilter narrows work item queries. Nil fields do not filter.
type WorkItemFilter struct {
	ProjectID   string
	Type        *string
	State       *string
	AssignedTo  *string
	IterationID *string
	ParentID    *string
	// Unassigned keeps only items without an assignee and overrides AssignedTo.
	Unassigned bool
}

// WorkItemRepository stores the work item hierarchy.
type WorkItemRepository interface {
	CreateWorkItem(ctx context.Context, item WorkItem) error
	UpdateWorkItem(ctx context.Context, item WorkItem) error
	GetWorkItem(ctx context.Context, id string) (WorkItem, error)
	// ListWorkItems returns matching items, newest first.
	ListWorkItems(ctx context.Context, filter WorkItemFilter) ([]WorkItem, error)
	ListChildIDs(ctx context.Context, parentID string) ([]string, error)
	SetState(ctx context.Context, ids []string, state string, updatedAt time.Time) error
	DeleteWorkItem(ctx context.Context, id string) error
}

// WorkSessionRepository stores time tracking sessions.
type WorkSessionRepository interface {
	CreateWorkSession(ctx context.Context, session WorkSession) error
	UpdateWorkSession(ctx context.Context, session WorkSession) error
	GetWorkSession(ctx context.Context, id string) (WorkSession, error)
	// ListWorkItemSessions returns the sessions of a work item, newest first.
	ListWorkItemSessions(ctx context.Context, workItemID string) ([]WorkSession, error)
	// ListUserSessions returns sessions of a user whose start date falls in
	// [from, to], oldest first.
	ListUserSessions(ctx context.Context, userID string, from, to time.Time) ([]WorkSession, error)
	// FindOpenSession returns the running session of a work item or ErrNotFound.
	FindOpenSession(ctx context.Context, workItemID string) (WorkSession, error)
	DeleteWorkSession(ctx context.Context, id string) error
}

// DropPlanFilter narrows drop plan queries.
type DropPlanFilter struct {
	IterationID    string
	AssignedUserID *string
}

// DropPlanRepository stores day-by-day plan entries.
type DropPlanRepository interface {
	CreateItem(ctx context.Context, item DropPlanItem) error
	UpdateItem(ctx context.Context, item DropPlanItem) error
	GetItem(ctx context.Context, id string) (DropPlanItem, error)
	FindItemForWorkItem(ctx context.Context, iterationID, workItemID string) (DropPlanItem, error)
	// ListItems returns entries ordered by planned date then order index.
	ListItems(ctx context.Context, filter DropPlanFilter) ([]DropPlanItem, error)
	DeleteItem(ctx context.Context, id string) error
}

// CalendarRepository stores holidays and personal days off.
type CalendarRepository interface {
	CreateHoliday(ctx context.Context, holiday Holiday) error
	GetHoliday(ctx context.Context, id string) (Holiday, error)
	// ListHolidays returns holidays ordered by date. Nil bounds are open.
	ListHolidays(ctx context.Context, from, to *time.Time) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error

	CreateNonWorkingDay(ctx context.Context, day NonWorkingDay) error
	GetNonWorkingDay(ctx context.Context, id string) (NonWorkingDay, error)
	ListNonWorkingDays(ctx context.Context, userID string) ([]NonWorkingDay, error)
	DeleteNonWorkingDay(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Repositories is the set of repositories bound to one transaction.
type Repositories interface {
	Users() UserRepository
	Projects() ProjectRepository
	Iterations() IterationRepository
	WorkItems() WorkItemRepository
	WorkSessions() WorkSessionRepository
	DropPlan() DropPlanRepository
	Calendar() CalendarRepository
	Sessions() SessionRepository
}

// TxFunc runs inside a transaction. Returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, repos Repositories) error

// Transactor opens transactions and hands out transaction-scoped repositories.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn TxFunc) error
	// WithinReadOnlyTransaction runs fn against one snapshot and never commits.
	WithinReadOnlyTransaction(ctx context.Context, fn TxFunc) error
}

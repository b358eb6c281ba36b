package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an account that can sign in and be assigned work.
type User struct {
	ID             string
	Email          string
	DisplayName    string
	PasswordHash   string
	Role           string
	AvatarURL      *string
	CapacityPerDay decimal.Decimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Project groups members, iterations and work items.
type Project struct {
	ID          string
	Name        string
	Description *string
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectMember links a user to a project.
type ProjectMember struct {
	ProjectID string
	UserID    string
	AddedBy   string
	AddedAt   time.Time
}

// Iteration is a sprint. StartDate, EndDate and WorkingDays are calendar days
// at UTC midnight.
type Iteration struct {
	ID          string
	ProjectID   string
	Name        string
	Goal        *string
	StartDate   time.Time
	EndDate     time.Time
	State       string
	WorkingDays []time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkItem is a node in the Epic, Feature, UserStory, Task hierarchy.
type WorkItem struct {
	ID              string
	ProjectID       string
	Type            string
	Title           string
	Description     *string
	State           string
	Priority        string
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
}

// WorkSession is one stretch of time tracked against a task. EndedAt is nil
// while the session is running.
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

// Holiday is a company-wide day off.
type Holiday struct {
	ID          string
	Date        time.Time
	Description *string
	CreatedAt   time.Time
}

// NonWorkingDay is a personal day off for one user.
type NonWorkingDay struct {
	ID          string
	UserID      string
	Date        time.Time
	Type        string
	Description *string
	CreatedAt   time.Time
}

// Session represents an authentication session persisted for a user.
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

package application

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

func toUser(model persistence.User) User {
	return User{
		ID:             model.ID,
		Email:          model.Email,
		DisplayName:    model.DisplayName,
		Role:           Role(model.Role),
		AvatarURL:      cloneString(model.AvatarURL),
		CapacityPerDay: model.CapacityPerDay,
		IsActive:       model.IsActive,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toProject(model persistence.Project, memberCount int) Project {
	return Project{
		ID:          model.ID,
		Name:        model.Name,
		Description: cloneString(model.Description),
		IsActive:    model.IsActive,
		CreatedBy:   model.CreatedBy,
		MemberCount: memberCount,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toIteration(model persistence.Iteration) Iteration {
	return Iteration{
		ID:          model.ID,
		ProjectID:   model.ProjectID,
		Name:        model.Name,
		Goal:        cloneString(model.Goal),
		StartDate:   model.StartDate,
		EndDate:     model.EndDate,
		State:       planning.IterationState(model.State),
		WorkingDays: append([]time.Time(nil), model.WorkingDays...),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toIterationHeader(model persistence.Iteration) IterationHeader {
	return IterationHeader{
		ID:        model.ID,
		Name:      model.Name,
		StartDate: model.StartDate,
		EndDate:   model.EndDate,
		State:     planning.IterationState(model.State),
	}
}

func toWorkItem(model persistence.WorkItem, hours planning.Hours) WorkItem {
	return WorkItem{
		ID:              model.ID,
		ProjectID:       model.ProjectID,
		Type:            planning.ItemType(model.Type),
		Title:           model.Title,
		Description:     cloneString(model.Description),
		State:           planning.ItemState(model.State),
		Priority:        planning.Priority(model.Priority),
		ParentID:        cloneString(model.ParentID),
		AssignedTo:      cloneString(model.AssignedTo),
		IterationID:     cloneString(model.IterationID),
		EstimationHours: cloneDecimal(model.EstimationHours),
		Tags:            append([]string{}, model.Tags...),
		StartDate:       cloneTime(model.StartDate),
		EndDate:         cloneTime(model.EndDate),
		CreatedBy:       model.CreatedBy,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
		CompletedHours:  hours.Completed,
		RemainingHours:  hours.Remaining,
	}
}

func toTaskView(model persistence.WorkItem, parentTitle *string, hours planning.Hours) TaskView {
	return TaskView{
		ID:              model.ID,
		Title:           model.Title,
		State:           planning.ItemState(model.State),
		Priority:        planning.Priority(model.Priority),
		AssignedTo:      cloneString(model.AssignedTo),
		ParentID:        cloneString(model.ParentID),
		ParentTitle:     cloneString(parentTitle),
		EstimationHours: cloneDecimal(model.EstimationHours),
		CompletedHours:  hours.Completed,
		RemainingHours:  hours.Remaining,
		StartDate:       cloneTime(model.StartDate),
		EndDate:         cloneTime(model.EndDate),
		Tags:            append([]string{}, model.Tags...),
	}
}

func toWorkSession(model persistence.WorkSession) WorkSession {
	return WorkSession{
		ID:          model.ID,
		WorkItemID:  model.WorkItemID,
		UserID:      model.UserID,
		Description: cloneString(model.Description),
		StartedAt:   model.StartedAt,
		EndedAt:     cloneTime(model.EndedAt),
		TotalHours:  cloneDecimal(model.TotalHours),
		CreatedAt:   model.CreatedAt,
	}
}

func toWorkSessions(models []persistence.WorkSession) []WorkSession {
	return lo.Map(models, func(m persistence.WorkSession, _ int) WorkSession { return toWorkSession(m) })
}

func toPlanningSessions(models []persistence.WorkSession) []planning.Session {
	return lo.Map(models, func(m persistence.WorkSession, _ int) planning.Session {
		return planning.Session{StartedAt: m.StartedAt, EndedAt: m.EndedAt, TotalHours: m.TotalHours}
	})
}

func toDropPlanItem(model persistence.DropPlanItem) DropPlanItem {
	return DropPlanItem{
		ID:             model.ID,
		IterationID:    model.IterationID,
		WorkItemID:     model.WorkItemID,
		AssignedUserID: model.AssignedUserID,
		PlannedDate:    model.PlannedDate,
		OrderIndex:     model.OrderIndex,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toHoliday(model persistence.Holiday) Holiday {
	return Holiday{
		ID:          model.ID,
		Date:        model.Date,
		Description: cloneString(model.Description),
		CreatedAt:   model.CreatedAt,
	}
}

func toNonWorkingDay(model persistence.NonWorkingDay) NonWorkingDay {
	return NonWorkingDay{
		ID:          model.ID,
		UserID:      model.UserID,
		Date:        model.Date,
		Type:        NonWorkingDayType(model.Type),
		Description: cloneString(model.Description),
		CreatedAt:   model.CreatedAt,
	}
}

func toSession(model persistence.Session) Session {
	return Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneDecimal(value *decimal.Decimal) *decimal.Decimal {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func dayPtr(t time.Time) *time.Time {
	d := planning.Day(t)
	return &d
}

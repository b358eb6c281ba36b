package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// Capacity computation kinds reported to a CapacityObserver.
const (
	CapacityKindUser   = "user"
	CapacityKindSprint = "sprint"
)

// CapacityObserver receives the outcome of every capacity computation.
type CapacityObserver interface {
	ObserveCapacity(kind string, overcommittedDays int)
}

type nopCapacityObserver struct{}

func (nopCapacityObserver) ObserveCapacity(string, int) {}

// DropPlanService computes sprint views and capacity, moves tasks within a
// sprint and maintains drop plan entries.
type DropPlanService struct {
	serviceDeps
	observer CapacityObserver
}

// DropPlanServiceOption configures a DropPlanService.
type DropPlanServiceOption func(*DropPlanService)

// WithCapacityObserver reports capacity computations to observer.
func WithCapacityObserver(observer CapacityObserver) DropPlanServiceOption {
	return func(s *DropPlanService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewDropPlanService wires dependencies for the drop plan service.
func NewDropPlanService(tx persistence.Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...DropPlanServiceOption) *DropPlanService {
	svc := &DropPlanService{
		serviceDeps: newServiceDeps(tx, idGenerator, now, logger),
		observer:    nopCapacityObserver{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *DropPlanService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DropPlanService", operation, attrs...)
}

// TasksForSprint returns the tasks of a sprint assigned to assignedUserID, or
// the unassigned ones when it is nil, ordered by start date then title.
func (s *DropPlanService) TasksForSprint(ctx context.Context, principal Principal, projectID, sprintID string, assignedUserID *string) (tasks []TaskView, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		if _, err := loadIteration(ctx, repos, projectID, sprintID); err != nil {
			return err
		}
		stored, err := sprintTasks(ctx, repos, projectID, sprintID, assignedUserID, assignedUserID == nil)
		if err != nil {
			return err
		}
		tasks, err = taskViews(ctx, repos, stored, s.clock())
		return err
	})
	return
}

// SprintOverview summarizes a sprint: calendar, active members and task totals.
func (s *DropPlanService) SprintOverview(ctx context.Context, principal Principal, projectID, sprintID string) (overview SprintOverview, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		sprint, err := loadIteration(ctx, repos, projectID, sprintID)
		if err != nil {
			return err
		}
		users, err := activeMemberUsers(ctx, repos, projectID)
		if err != nil {
			return err
		}
		stored, err := sprintTasks(ctx, repos, projectID, sprintID, nil, false)
		if err != nil {
			return err
		}
		views, err := taskViews(ctx, repos, stored, s.clock())
		if err != nil {
			return err
		}

		estimation, completed := taskTotals(views)
		overview = SprintOverview{
			Iteration:       toIterationHeader(sprint),
			WorkingDays:     sprint.WorkingDays,
			Members:         lo.Map(users, func(u persistence.User, _ int) MemberSummary { return toMemberSummary(u) }),
			TotalTasks:      len(views),
			TotalEstimation: estimation,
			TotalCompleted:  completed,
		}
		return nil
	})
	return
}

// UserTasks lists the tasks of one user within a sprint. Member is nil when
// the user does not belong to the project.
func (s *DropPlanService) UserTasks(ctx context.Context, principal Principal, projectID, sprintID, userID string) (result UserTasks, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		sprint, err := loadIteration(ctx, repos, projectID, sprintID)
		if err != nil {
			return err
		}

		var member *MemberSummary
		isProjectMember, err := isMember(ctx, repos, projectID, userID)
		if err != nil {
			return err
		}
		if isProjectMember {
			user, err := repos.Users().GetUser(ctx, userID)
			if err != nil {
				return err
			}
			member = lo.ToPtr(toMemberSummary(user))
		}

		stored, err := sprintTasks(ctx, repos, projectID, sprintID, &userID, false)
		if err != nil {
			return err
		}
		views, err := taskViews(ctx, repos, stored, s.clock())
		if err != nil {
			return err
		}

		estimation, completed := taskTotals(views)
		result = UserTasks{
			Iteration:       toIterationHeader(sprint),
			WorkingDays:     sprint.WorkingDays,
			Member:          member,
			Tasks:           views,
			TotalEstimation: estimation,
			TotalCompleted:  completed,
		}
		return nil
	})
	return
}

// UserDropPlan returns the day-by-day plan of one user within a sprint with
// their load per working day.
func (s *DropPlanService) UserDropPlan(ctx context.Context, principal Principal, projectID, sprintID, userID string) (plan UserDropPlan, err error) {
	logger := s.loggerWith(ctx, "UserDropPlan", "principal_id", principal.UserID, "iteration_id", sprintID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, "user capacity computation", err, "overcommitted_days", overcommittedDays(plan.LoadByDay))
	}()

	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		sprint, err := loadIteration(ctx, repos, projectID, sprintID)
		if err != nil {
			return err
		}
		user, err := repos.Users().GetUser(ctx, userID)
		if err != nil {
			return err
		}

		entries, err := repos.DropPlan().ListItems(ctx, persistence.DropPlanFilter{IterationID: sprintID, AssignedUserID: &userID})
		if err != nil {
			return err
		}
		now := s.clock()
		items := make([]PlannedItemView, 0, len(entries))
		planned := make([]planning.PlannedItem, 0, len(entries))
		parents := parentTitles{}
		for _, entry := range entries {
			workItem, err := repos.WorkItems().GetWorkItem(ctx, entry.WorkItemID)
			if err != nil {
				return err
			}
			view, err := plannedItemView(ctx, repos, entry, workItem, parents, now)
			if err != nil {
				return err
			}
			items = append(items, view)
			planned = append(planned, toPlannedItem(entry, workItem))
		}

		days := len(sprint.WorkingDays)
		plan = UserDropPlan{
			Iteration:   toIterationHeader(sprint),
			WorkingDays: sprint.WorkingDays,
			User: UserCapacitySummary{
				UserID:         user.ID,
				DisplayName:    user.DisplayName,
				AvatarURL:      cloneString(user.AvatarURL),
				CapacityPerDay: user.CapacityPerDay,
				TotalCapacity:  user.CapacityPerDay.Mul(decimal.NewFromInt(int64(days))),
				TotalPlanned:   planning.SumPlanned(planned),
			},
			Items:     items,
			LoadByDay: planning.LoadByDay(sprint.WorkingDays, user.CapacityPerDay, planned),
		}
		return nil
	})
	if err == nil {
		s.observer.ObserveCapacity(CapacityKindUser, overcommittedDays(plan.LoadByDay))
	}
	return
}

// SprintCapacity aggregates the capacity of the active project members over
// the working days of a sprint against every drop plan entry of the sprint.
func (s *DropPlanService) SprintCapacity(ctx context.Context, principal Principal, projectID, sprintID string) (capacity SprintCapacity, err error) {
	logger := s.loggerWith(ctx, "SprintCapacity", "principal_id", principal.UserID, "iteration_id", sprintID)
	defer func() {
		logOutcome(ctx, logger, "sprint capacity computation", err,
			"overcommitted_days", capacity.OvercommittedDays(),
			"utilization_percent", capacity.UtilizationPercent.StringFixed(2))
	}()

	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		sprint, err := loadIteration(ctx, repos, projectID, sprintID)
		if err != nil {
			return err
		}
		users, err := activeMemberUsers(ctx, repos, projectID)
		if err != nil {
			return err
		}
		entries, err := repos.DropPlan().ListItems(ctx, persistence.DropPlanFilter{IterationID: sprintID})
		if err != nil {
			return err
		}

		planned := make([]planning.PlannedItem, 0, len(entries))
		for _, entry := range entries {
			workItem, err := repos.WorkItems().GetWorkItem(ctx, entry.WorkItemID)
			if err != nil {
				return err
			}
			planned = append(planned, toPlannedItem(entry, workItem))
		}
		members := lo.Map(users, func(u persistence.User, _ int) planning.Member {
			return planning.Member{UserID: u.ID, DisplayName: u.DisplayName, CapacityPerDay: u.CapacityPerDay}
		})

		capacity = SprintCapacity{
			Iteration:   toIterationHeader(sprint),
			WorkingDays: sprint.WorkingDays,
			Capacity:    planning.SprintCapacity(sprint.WorkingDays, members, planned),
		}
		return nil
	})
	if err == nil {
		s.observer.ObserveCapacity(CapacityKindSprint, capacity.OvercommittedDays())
	}
	return
}

// MoveTask sets new start and end dates of a task within its sprint. Managers
// and the assignee of the task may move it.
func (s *DropPlanService) MoveTask(ctx context.Context, principal Principal, projectID, sprintID, taskID string, newStart, newEnd time.Time) (task TaskView, err error) {
	logger := s.loggerWith(ctx, "MoveTask", "principal_id", principal.UserID, "iteration_id", sprintID, "work_item_id", taskID)
	defer func() { logOutcome(ctx, logger, "task move", err) }()

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		sprint, err := loadIteration(ctx, repos, projectID, sprintID)
		if err != nil {
			return err
		}
		item, err := loadWorkItem(ctx, repos, projectID, taskID)
		if err != nil {
			return err
		}
		if !principal.CanManage() && (item.AssignedTo == nil || *item.AssignedTo != principal.UserID) {
			return ErrUnauthorized
		}
		if planning.ItemType(item.Type) != planning.TypeTask {
			return validationError("work_item_id", "only tasks can be moved")
		}
		if item.IterationID == nil || *item.IterationID != sprintID {
			return validationError("iteration_id", "task does not belong to this sprint")
		}
		if err := planning.ValidateMove(sprint.StartDate, sprint.EndDate, newStart, newEnd); err != nil {
			return err
		}

		now := s.clock()
		item.StartDate = dayPtr(newStart)
		item.EndDate = dayPtr(newEnd)
		item.UpdatedAt = now
		if err := repos.WorkItems().UpdateWorkItem(ctx, item); err != nil {
			return err
		}

		views, err := taskViews(ctx, repos, []persistence.WorkItem{item}, now)
		if err != nil {
			return err
		}
		task = views[0]
		return nil
	})
	return
}

// AddItem places a work item on a day of a sprint. A work item appears at
// most once per sprint.
func (s *DropPlanService) AddItem(ctx context.Context, principal Principal, projectID, sprintID string, input DropPlanItemInput) (item DropPlanItem, err error) {
	logger := s.loggerWith(ctx, "AddItem", "principal_id", principal.UserID, "iteration_id", sprintID, "work_item_id", input.WorkItemID)
	defer func() { logOutcome(ctx, logger, "drop plan item creation", err, "item_id", item.ID) }()

	if err = requireManager(principal); err != nil {
		return
	}
	if input.OrderIndex < 0 {
		err = validationError("order_index", "order index must not be negative")
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		sprint, err := loadIteration(ctx, repos, projectID, sprintID)
		if err != nil {
			return err
		}
		if _, err := loadWorkItem(ctx, repos, projectID, input.WorkItemID); err != nil {
			return err
		}
		if _, err := repos.DropPlan().FindItemForWorkItem(ctx, sprintID, input.WorkItemID); err == nil {
			return conflictf("work item %s is already in the drop plan of this sprint", input.WorkItemID)
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}
		if err := validatePlannedDate(sprint, input.PlannedDate); err != nil {
			return err
		}
		if err := validatePlanAssignee(ctx, repos, projectID, input.AssignedUserID); err != nil {
			return err
		}

		now := s.clock()
		record := persistence.DropPlanItem{
			ID:             s.idGenerator(),
			IterationID:    sprintID,
			WorkItemID:     input.WorkItemID,
			AssignedUserID: input.AssignedUserID,
			PlannedDate:    planning.Day(input.PlannedDate),
			OrderIndex:     input.OrderIndex,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repos.DropPlan().CreateItem(ctx, record); err != nil {
			return err
		}
		item = toDropPlanItem(record)
		return nil
	})
	return
}

// UpdateItem changes the day, assignee or order of a drop plan entry.
func (s *DropPlanService) UpdateItem(ctx context.Context, principal Principal, projectID, sprintID, itemID string, patch DropPlanItemPatch) (item DropPlanItem, err error) {
	logger := s.loggerWith(ctx, "UpdateItem", "principal_id", principal.UserID, "iteration_id", sprintID, "item_id", itemID)
	defer func() { logOutcome(ctx, logger, "drop plan item update", err) }()

	if err = requireManager(principal); err != nil {
		return
	}
	if patch.OrderIndex != nil && *patch.OrderIndex < 0 {
		err = validationError("order_index", "order index must not be negative")
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		sprint, current, err := loadDropPlanItem(ctx, repos, principal, projectID, sprintID, itemID)
		if err != nil {
			return err
		}
		if patch.PlannedDate != nil {
			if err := validatePlannedDate(sprint, *patch.PlannedDate); err != nil {
				return err
			}
			current.PlannedDate = planning.Day(*patch.PlannedDate)
		}
		if patch.AssignedUserID != nil {
			if err := validatePlanAssignee(ctx, repos, projectID, *patch.AssignedUserID); err != nil {
				return err
			}
			current.AssignedUserID = *patch.AssignedUserID
		}
		if patch.OrderIndex != nil {
			current.OrderIndex = *patch.OrderIndex
		}
		current.UpdatedAt = s.clock()

		if err := repos.DropPlan().UpdateItem(ctx, current); err != nil {
			return err
		}
		item = toDropPlanItem(current)
		return nil
	})
	return
}

// RemoveItem deletes a drop plan entry.
func (s *DropPlanService) RemoveItem(ctx context.Context, principal Principal, projectID, sprintID, itemID string) (err error) {
	logger := s.loggerWith(ctx, "RemoveItem", "principal_id", principal.UserID, "iteration_id", sprintID, "item_id", itemID)
	defer func() { logOutcome(ctx, logger, "drop plan item removal", err) }()

	if err = requireManager(principal); err != nil {
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, _, err := loadDropPlanItem(ctx, repos, principal, projectID, sprintID, itemID); err != nil {
			return err
		}
		return repos.DropPlan().DeleteItem(ctx, itemID)
	})
	return
}

func loadDropPlanItem(ctx context.Context, repos persistence.Repositories, principal Principal, projectID, sprintID, itemID string) (persistence.Iteration, persistence.DropPlanItem, error) {
	if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
		return persistence.Iteration{}, persistence.DropPlanItem{}, err
	}
	sprint, err := loadIteration(ctx, repos, projectID, sprintID)
	if err != nil {
		return persistence.Iteration{}, persistence.DropPlanItem{}, err
	}
	item, err := repos.DropPlan().GetItem(ctx, itemID)
	if err != nil {
		return persistence.Iteration{}, persistence.DropPlanItem{}, translateError(err)
	}
	if item.IterationID != sprintID {
		return persistence.Iteration{}, persistence.DropPlanItem{}, ErrNotFound
	}
	return sprint, item, nil
}

// validatePlannedDate requires a working day of the sprint, or a day within
// its range when the sprint lists no working days.
func validatePlannedDate(sprint persistence.Iteration, day time.Time) error {
	if len(sprint.WorkingDays) > 0 {
		if !planning.ContainsDay(sprint.WorkingDays, day) {
			return validationError("planned_date", "planned date "+planning.FormatDay(day)+" is not a working day of the sprint")
		}
		return nil
	}
	if !planning.WithinRange(day, sprint.StartDate, sprint.EndDate) {
		return validationError("planned_date", "planned date "+planning.FormatDay(day)+" is outside the sprint")
	}
	return nil
}

func validatePlanAssignee(ctx context.Context, repos persistence.Repositories, projectID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return validationError("assigned_user_id", "assigned user is required")
	}
	member, err := isMember(ctx, repos, projectID, userID)
	if err != nil {
		return err
	}
	if !member {
		return validationError("assigned_user_id", "assigned user is not a member of this project")
	}
	return nil
}

// sprintTasks returns the Task items of a sprint. assignee narrows to one
// user; unassigned keeps only tasks without an assignee.
func sprintTasks(ctx context.Context, repos persistence.Repositories, projectID, sprintID string, assignee *string, unassigned bool) ([]persistence.WorkItem, error) {
	stored, err := repos.WorkItems().ListWorkItems(ctx, persistence.WorkItemFilter{
		ProjectID:   projectID,
		Type:        lo.ToPtr(string(planning.TypeTask)),
		IterationID: &sprintID,
		AssignedTo:  assignee,
		Unassigned:  unassigned,
	})
	if err != nil {
		return nil, err
	}
	sortTasks(stored)
	return stored, nil
}

// sortTasks orders by start date then title; tasks without a start date come last.
func sortTasks(items []persistence.WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].StartDate, items[j].StartDate
		switch {
		case a == nil && b != nil:
			return false
		case a != nil && b == nil:
			return true
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return items[i].Title < items[j].Title
	})
}

// parentTitles caches parent titles so each parent is read once per view.
type parentTitles map[string]*string

func (p parentTitles) lookup(ctx context.Context, repos persistence.Repositories, parentID *string) (*string, error) {
	if parentID == nil {
		return nil, nil
	}
	if title, ok := p[*parentID]; ok {
		return title, nil
	}
	parent, err := repos.WorkItems().GetWorkItem(ctx, *parentID)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		p[*parentID] = nil
		return nil, nil
	case err != nil:
		return nil, err
	}
	p[*parentID] = &parent.Title
	return &parent.Title, nil
}

func taskViews(ctx context.Context, repos persistence.Repositories, items []persistence.WorkItem, now time.Time) ([]TaskView, error) {
	parents := parentTitles{}
	out := make([]TaskView, 0, len(items))
	for _, item := range items {
		title, err := parents.lookup(ctx, repos, item.ParentID)
		if err != nil {
			return nil, err
		}
		hours, err := computeHours(ctx, repos, item, now)
		if err != nil {
			return nil, err
		}
		out = append(out, toTaskView(item, title, hours))
	}
	return out, nil
}

func plannedItemView(ctx context.Context, repos persistence.Repositories, entry persistence.DropPlanItem, item persistence.WorkItem, parents parentTitles, now time.Time) (PlannedItemView, error) {
	title, err := parents.lookup(ctx, repos, item.ParentID)
	if err != nil {
		return PlannedItemView{}, err
	}
	hours, err := computeHours(ctx, repos, item, now)
	if err != nil {
		return PlannedItemView{}, err
	}
	return PlannedItemView{
		DropPlanItem:    toDropPlanItem(entry),
		Title:           item.Title,
		Type:            planning.ItemType(item.Type),
		State:           planning.ItemState(item.State),
		Priority:        planning.Priority(item.Priority),
		Tags:            append([]string{}, item.Tags...),
		ParentTitle:     title,
		EstimationHours: cloneDecimal(item.EstimationHours),
		CompletedHours:  hours.Completed,
		RemainingHours:  hours.Remaining,
	}, nil
}

func toPlannedItem(entry persistence.DropPlanItem, item persistence.WorkItem) planning.PlannedItem {
	return planning.PlannedItem{
		ID:             entry.ID,
		WorkItemID:     entry.WorkItemID,
		AssignedUserID: entry.AssignedUserID,
		PlannedDate:    entry.PlannedDate,
		Estimation:     item.EstimationHours,
	}
}

func activeMemberUsers(ctx context.Context, repos persistence.Repositories, projectID string) ([]persistence.User, error) {
	users, err := repos.Projects().ListMemberUsers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(users, func(u persistence.User, _ int) bool { return u.IsActive }), nil
}

func toMemberSummary(user persistence.User) MemberSummary {
	return MemberSummary{
		UserID:         user.ID,
		DisplayName:    user.DisplayName,
		Email:          user.Email,
		AvatarURL:      cloneString(user.AvatarURL),
		CapacityPerDay: user.CapacityPerDay,
	}
}

func taskTotals(tasks []TaskView) (estimation, completed decimal.Decimal) {
	for _, task := range tasks {
		if task.EstimationHours != nil {
			estimation = estimation.Add(*task.EstimationHours)
		}
		completed = completed.Add(task.CompletedHours)
	}
	return estimation, completed
}

func overcommittedDays(loads []planning.DayLoad) int {
	return lo.CountBy(loads, func(d planning.DayLoad) bool { return d.IsOvercommitted })
}

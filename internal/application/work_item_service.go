package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// WorkItemService manages the Epic, Feature, UserStory, Task hierarchy.
type WorkItemService struct {
	serviceDeps
}

// NewWorkItemService wires dependencies for the work item service.
func NewWorkItemService(tx persistence.Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WorkItemService {
	return &WorkItemService{serviceDeps: newServiceDeps(tx, idGenerator, now, logger)}
}

func (s *WorkItemService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WorkItemService", operation, attrs...)
}

// CreateWorkItem validates the hierarchy and references of a new item and stores it.
func (s *WorkItemService) CreateWorkItem(ctx context.Context, principal Principal, projectID string, input WorkItemInput) (item WorkItem, err error) {
	logger := s.loggerWith(ctx, "CreateWorkItem", "principal_id", principal.UserID, "project_id", projectID)
	defer func() { logOutcome(ctx, logger, "work item creation", err, "work_item_id", item.ID) }()

	if err = requireManager(principal); err != nil {
		return
	}

	now := s.clock()
	record := persistence.WorkItem{
		ID:              s.idGenerator(),
		ProjectID:       projectID,
		Type:            string(input.Type),
		Title:           strings.TrimSpace(input.Title),
		Description:     trimOptional(input.Description),
		State:           string(lo.Ternary(input.State == "", planning.StateNew, input.State)),
		Priority:        string(lo.Ternary(input.Priority == "", planning.PriorityMedium, input.Priority)),
		ParentID:        cloneString(input.ParentID),
		AssignedTo:      cloneString(input.AssignedTo),
		IterationID:     cloneString(input.IterationID),
		EstimationHours: cloneDecimal(input.EstimationHours),
		Tags:            normalizeTags(input.Tags),
		StartDate:       dayOrNil(input.StartDate),
		EndDate:         dayOrNil(input.EndDate),
		CreatedBy:       principal.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	vErr := validateWorkItemFields(record)
	if !input.Type.Valid() {
		vErr.add("type", "type must be Epic, Feature, UserStory or Task")
	}
	if input.Type == planning.TypeTask && record.EstimationHours == nil {
		vErr.add("estimation_hours", "tasks require an estimation")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		if err := s.validateReferences(ctx, repos, &record, checkAllReferences); err != nil {
			return err
		}
		if err := repos.WorkItems().CreateWorkItem(ctx, record); err != nil {
			return err
		}
		item = toWorkItem(record, planning.ComputeHours(nil, record.EstimationHours, now))
		return nil
	})
	return
}

// GetWorkItem returns one item with its computed hours.
func (s *WorkItemService) GetWorkItem(ctx context.Context, principal Principal, projectID, workItemID string) (item WorkItem, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		stored, err := loadWorkItem(ctx, repos, projectID, workItemID)
		if err != nil {
			return err
		}
		hours, err := computeHours(ctx, repos, stored, s.clock())
		if err != nil {
			return err
		}
		item = toWorkItem(stored, hours)
		return nil
	})
	return
}

// ListWorkItems returns the items of a project matching filter, newest first.
func (s *WorkItemService) ListWorkItems(ctx context.Context, principal Principal, projectID string, filter WorkItemFilter) (items []WorkItem, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		query := persistence.WorkItemFilter{
			ProjectID:   projectID,
			AssignedTo:  filter.AssignedTo,
			IterationID: filter.IterationID,
			ParentID:    filter.ParentID,
		}
		if filter.Type != nil {
			query.Type = lo.ToPtr(string(*filter.Type))
		}
		if filter.State != nil {
			query.State = lo.ToPtr(string(*filter.State))
		}
		stored, err := repos.WorkItems().ListWorkItems(ctx, query)
		if err != nil {
			return err
		}
		items, err = withHours(ctx, repos, stored, s.clock())
		return err
	})
	return
}

// ListChildren returns the direct children of an item.
func (s *WorkItemService) ListChildren(ctx context.Context, principal Principal, projectID, workItemID string) (items []WorkItem, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		if _, err := loadWorkItem(ctx, repos, projectID, workItemID); err != nil {
			return err
		}
		stored, err := repos.WorkItems().ListWorkItems(ctx, persistence.WorkItemFilter{
			ProjectID: projectID,
			ParentID:  &workItemID,
		})
		if err != nil {
			return err
		}
		items, err = withHours(ctx, repos, stored, s.clock())
		return err
	})
	return
}

// UpdateWorkItem applies a partial update for any project member. Moving an
// item to Removed marks its whole subtree Removed.
func (s *WorkItemService) UpdateWorkItem(ctx context.Context, principal Principal, projectID, workItemID string, patch WorkItemPatch) (item WorkItem, err error) {
	logger := s.loggerWith(ctx, "UpdateWorkItem", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", workItemID)
	defer func() { logOutcome(ctx, logger, "work item update", err) }()

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		current, err := loadWorkItem(ctx, repos, projectID, workItemID)
		if err != nil {
			return err
		}
		previousState := planning.ItemState(current.State)
		iterationChanged := false

		vErr := &ValidationError{}
		if patch.State != nil {
			vErr.addRule(planning.ValidateTransition(previousState, *patch.State))
			current.State = string(*patch.State)
		}
		if patch.Title != nil {
			current.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			current.Description = trimOptional(patch.Description)
		}
		if patch.Priority != nil {
			current.Priority = string(*patch.Priority)
		}
		switch {
		case patch.ClearParent:
			current.ParentID = nil
		case patch.ParentID != nil:
			if *patch.ParentID == current.ID {
				vErr.add("parent_id", "a work item cannot be its own parent")
			}
			current.ParentID = cloneString(patch.ParentID)
		}
		switch {
		case patch.ClearAssignee:
			current.AssignedTo = nil
		case patch.AssignedTo != nil:
			current.AssignedTo = cloneString(patch.AssignedTo)
		}
		switch {
		case patch.ClearIteration:
			current.IterationID = nil
		case patch.IterationID != nil:
			current.IterationID = cloneString(patch.IterationID)
			iterationChanged = true
		}
		if patch.EstimationHours != nil {
			current.EstimationHours = cloneDecimal(patch.EstimationHours)
		}
		if patch.Tags != nil {
			current.Tags = normalizeTags(*patch.Tags)
		}
		if patch.StartDate != nil {
			current.StartDate = dayOrNil(patch.StartDate)
		}
		if patch.EndDate != nil {
			current.EndDate = dayOrNil(patch.EndDate)
		}

		vErr.merge(validateWorkItemFields(current))
		if vErr.HasErrors() {
			return vErr
		}

		if err := s.validateReferences(ctx, repos, &current, referenceChecks{
			parent:    patch.ParentID != nil || patch.ClearParent,
			assignee:  patch.AssignedTo != nil,
			iteration: iterationChanged,
		}); err != nil {
			return err
		}

		now := s.clock()
		current.UpdatedAt = now
		if err := repos.WorkItems().UpdateWorkItem(ctx, current); err != nil {
			return err
		}

		if planning.ItemState(current.State) == planning.StateRemoved && previousState != planning.StateRemoved {
			descendants, err := planning.CollectDescendants(current.ID, func(parentID string) ([]string, error) {
				return repos.WorkItems().ListChildIDs(ctx, parentID)
			})
			if err != nil {
				return err
			}
			if err := repos.WorkItems().SetState(ctx, descendants, string(planning.StateRemoved), now); err != nil {
				return err
			}
		}

		hours, err := computeHours(ctx, repos, current, now)
		if err != nil {
			return err
		}
		item = toWorkItem(current, hours)
		return nil
	})
	return
}

// DeleteWorkItem removes an item with its descendants, sessions and plan entries.
func (s *WorkItemService) DeleteWorkItem(ctx context.Context, principal Principal, projectID, workItemID string) (err error) {
	logger := s.loggerWith(ctx, "DeleteWorkItem", "principal_id", principal.UserID, "project_id", projectID, "work_item_id", workItemID)
	defer func() { logOutcome(ctx, logger, "work item deletion", err) }()

	if err = requireManager(principal); err != nil {
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		if _, err := loadWorkItem(ctx, repos, projectID, workItemID); err != nil {
			return err
		}
		return repos.WorkItems().DeleteWorkItem(ctx, workItemID)
	})
	return
}

// referenceChecks selects which references validateReferences looks at.
type referenceChecks struct {
	parent, assignee, iteration bool
}

var checkAllReferences = referenceChecks{parent: true, assignee: true, iteration: true}

// validateReferences checks the parent, assignee and iteration of item against
// its project and fills the default task dates from a newly set iteration.
func (s *WorkItemService) validateReferences(ctx context.Context, repos persistence.Repositories, item *persistence.WorkItem, check referenceChecks) error {
	vErr := &ValidationError{}

	if check.parent {
		var parentType *planning.ItemType
		if item.ParentID != nil {
			parent, err := repos.WorkItems().GetWorkItem(ctx, *item.ParentID)
			switch {
			case err == nil && parent.ProjectID == item.ProjectID:
				parentType = lo.ToPtr(planning.ItemType(parent.Type))
			case err == nil || errors.Is(err, persistence.ErrNotFound):
				vErr.add("parent_id", "parent not found in this project")
			default:
				return err
			}
		}
		if !vErr.HasErrors() {
			vErr.addRule(planning.ValidateParent(planning.ItemType(item.Type), parentType))
		}
	}

	if check.assignee && item.AssignedTo != nil {
		member, err := isMember(ctx, repos, item.ProjectID, *item.AssignedTo)
		if err != nil {
			return err
		}
		if !member {
			vErr.add("assigned_to", "assigned user is not a member of this project")
		}
	}

	if check.iteration && item.IterationID != nil {
		iteration, err := loadIteration(ctx, repos, item.ProjectID, *item.IterationID)
		switch {
		case err == nil:
			if planning.ItemType(item.Type) == planning.TypeTask && item.StartDate == nil {
				item.StartDate = dayPtr(iteration.StartDate)
				item.EndDate = dayPtr(iteration.StartDate)
			}
		case errors.Is(err, ErrNotFound):
			vErr.add("iteration_id", "iteration not found in this project")
		default:
			return err
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func validateWorkItemFields(item persistence.WorkItem) *ValidationError {
	vErr := &ValidationError{}
	if n := utf8.RuneCountInString(item.Title); n < 3 || n > 500 {
		vErr.add("title", "title must be between 3 and 500 characters")
	}
	if !planning.ItemState(item.State).Valid() {
		vErr.add("state", "state must be New, Active, InProgress, Resolved, Closed or Removed")
	}
	if !planning.Priority(item.Priority).Valid() {
		vErr.add("priority", "priority must be Critical, High, Medium or Low")
	}
	if e := item.EstimationHours; e != nil && !e.IsPositive() {
		vErr.add("estimation_hours", "estimation must be greater than 0")
	}
	if item.StartDate != nil && item.EndDate != nil && item.EndDate.Before(*item.StartDate) {
		vErr.add("end_date", "end date must not be before start date")
	}
	return vErr
}

// withHours attaches computed hours to each stored item.
func withHours(ctx context.Context, repos persistence.Repositories, stored []persistence.WorkItem, now time.Time) ([]WorkItem, error) {
	out := make([]WorkItem, 0, len(stored))
	for _, model := range stored {
		hours, err := computeHours(ctx, repos, model, now)
		if err != nil {
			return nil, err
		}
		out = append(out, toWorkItem(model, hours))
	}
	return out, nil
}

func normalizeTags(tags []string) []string {
	cleaned := lo.FilterMap(tags, func(tag string, _ int) (string, bool) {
		tag = strings.TrimSpace(tag)
		return tag, tag != ""
	})
	return lo.Uniq(cleaned)
}

func dayOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return dayPtr(*t)
}

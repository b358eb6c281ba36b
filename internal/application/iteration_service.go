package application

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

// IterationService manages the sprints of a project.
type IterationService struct {
	serviceDeps
}

// NewIterationService wires dependencies for the iteration service.
func NewIterationService(tx persistence.Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *IterationService {
	return &IterationService{serviceDeps: newServiceDeps(tx, idGenerator, now, logger)}
}

func (s *IterationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IterationService", operation, attrs...)
}

// CreateIteration validates the calendar of a new sprint and stores it. The
// working days are stored exactly as given; an empty list is allowed.
func (s *IterationService) CreateIteration(ctx context.Context, principal Principal, projectID string, input IterationInput) (iteration Iteration, err error) {
	logger := s.loggerWith(ctx, "CreateIteration", "principal_id", principal.UserID, "project_id", projectID)
	defer func() { logOutcome(ctx, logger, "iteration creation", err, "iteration_id", iteration.ID) }()

	if err = requireManager(principal); err != nil {
		return
	}

	name := strings.TrimSpace(input.Name)
	start, end := planning.Day(input.StartDate), planning.Day(input.EndDate)
	state := input.State
	if state == "" {
		state = planning.IterationFuture
	}

	vErr := validateIterationFields(name, state)
	vErr.addRule(planning.ValidateDates(start, end))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}

		days, err := planning.WorkingDays(lo.ToAnySlice(input.WorkingDays))
		if err != nil {
			return validationError("working_days", err.Error())
		}
		if err := planning.ValidateWorkingDays(days, start, end); err != nil {
			return err
		}
		if err := validateNoOverlap(ctx, repos, projectID, start, end, ""); err != nil {
			return err
		}

		now := s.clock()
		record := persistence.Iteration{
			ID:          s.idGenerator(),
			ProjectID:   projectID,
			Name:        name,
			Goal:        trimOptional(input.Goal),
			StartDate:   start,
			EndDate:     end,
			State:       string(state),
			WorkingDays: days,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repos.Iterations().CreateIteration(ctx, record); err != nil {
			return err
		}
		iteration = toIteration(record)
		return nil
	})
	return
}

// GetIteration returns one sprint of a project.
func (s *IterationService) GetIteration(ctx context.Context, principal Principal, projectID, iterationID string) (iteration Iteration, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		stored, err := loadIteration(ctx, repos, projectID, iterationID)
		if err != nil {
			return err
		}
		iteration = toIteration(stored)
		return nil
	})
	return
}

// ListIterations returns the sprints of a project ordered by start date.
func (s *IterationService) ListIterations(ctx context.Context, principal Principal, projectID string) (iterations []Iteration, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		stored, err := repos.Iterations().ListIterations(ctx, projectID)
		if err != nil {
			return err
		}
		iterations = lo.Map(stored, func(it persistence.Iteration, _ int) Iteration { return toIteration(it) })
		return nil
	})
	return
}

// UpdateIteration applies a partial update. Dates are re-validated only when
// they change. The resulting working days, stored or patched, must lie within
// the resulting range.
func (s *IterationService) UpdateIteration(ctx context.Context, principal Principal, projectID, iterationID string, patch IterationPatch) (iteration Iteration, err error) {
	logger := s.loggerWith(ctx, "UpdateIteration", "principal_id", principal.UserID, "project_id", projectID, "iteration_id", iterationID)
	defer func() { logOutcome(ctx, logger, "iteration update", err) }()

	if err = requireManager(principal); err != nil {
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		current, err := loadIteration(ctx, repos, projectID, iterationID)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			current.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Goal != nil {
			current.Goal = trimOptional(patch.Goal)
		}
		if patch.State != nil {
			current.State = string(*patch.State)
		}
		vErr := validateIterationFields(current.Name, planning.IterationState(current.State))

		datesChanged := patch.StartDate != nil || patch.EndDate != nil
		if patch.StartDate != nil {
			current.StartDate = planning.Day(*patch.StartDate)
		}
		if patch.EndDate != nil {
			current.EndDate = planning.Day(*patch.EndDate)
		}
		if datesChanged {
			vErr.addRule(planning.ValidateDates(current.StartDate, current.EndDate))
		}
		if patch.WorkingDays != nil {
			days, err := planning.WorkingDays(lo.ToAnySlice(*patch.WorkingDays))
			if err != nil {
				vErr.add("working_days", err.Error())
			} else {
				current.WorkingDays = days
			}
		}
		if datesChanged || patch.WorkingDays != nil {
			vErr.addRule(planning.ValidateWorkingDays(current.WorkingDays, current.StartDate, current.EndDate))
		}
		if vErr.HasErrors() {
			return vErr
		}

		if datesChanged {
			if err := validateNoOverlap(ctx, repos, projectID, current.StartDate, current.EndDate, current.ID); err != nil {
				return err
			}
		}

		current.UpdatedAt = s.clock()
		if err := repos.Iterations().UpdateIteration(ctx, current); err != nil {
			return err
		}
		iteration = toIteration(current)
		return nil
	})
	return
}

// DeleteIteration removes a sprint and its drop plan. Work items stay in the
// project without an iteration.
func (s *IterationService) DeleteIteration(ctx context.Context, principal Principal, projectID, iterationID string) (err error) {
	logger := s.loggerWith(ctx, "DeleteIteration", "principal_id", principal.UserID, "project_id", projectID, "iteration_id", iterationID)
	defer func() { logOutcome(ctx, logger, "iteration deletion", err) }()

	if err = requireManager(principal); err != nil {
		return
	}

	err = s.write(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		if _, err := loadIteration(ctx, repos, projectID, iterationID); err != nil {
			return err
		}
		return repos.Iterations().DeleteIteration(ctx, iterationID)
	})
	return
}

// ListIterationWorkItems returns every work item planned into a sprint.
func (s *IterationService) ListIterationWorkItems(ctx context.Context, principal Principal, projectID, iterationID string) (items []WorkItem, err error) {
	err = s.read(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		if _, err := loadProject(ctx, repos, principal, projectID); err != nil {
			return err
		}
		if _, err := loadIteration(ctx, repos, projectID, iterationID); err != nil {
			return err
		}
		stored, err := repos.WorkItems().ListWorkItems(ctx, persistence.WorkItemFilter{
			ProjectID:   projectID,
			IterationID: &iterationID,
		})
		if err != nil {
			return err
		}
		items, err = withHours(ctx, repos, stored, s.clock())
		return err
	})
	return
}

func validateIterationFields(name string, state planning.IterationState) *ValidationError {
	vErr := &ValidationError{}
	if n := utf8.RuneCountInString(name); n == 0 || n > 100 {
		vErr.add("name", "name must be between 1 and 100 characters")
	}
	if !state.Valid() {
		vErr.add("state", "state must be Future, Current or Past")
	}
	return vErr
}

// validateNoOverlap rejects a range that intersects another sprint of the
// project. excludeID skips the sprint being updated.
func validateNoOverlap(ctx context.Context, repos persistence.Repositories, projectID string, start, end time.Time, excludeID string) error {
	existing, err := repos.Iterations().ListIterations(ctx, projectID)
	if err != nil {
		return err
	}
	spans := lo.Map(existing, func(it persistence.Iteration, _ int) planning.Span {
		return planning.Span{ID: it.ID, Name: it.Name, Start: it.StartDate, End: it.EndDate}
	})
	if clash, ok := planning.FindOverlap(spans, start, end, excludeID); ok {
		return conflictf("iteration overlaps with existing iteration %q (%s to %s)",
			clash.Name, planning.FormatDay(clash.Start), planning.FormatDay(clash.End))
	}
	return nil
}

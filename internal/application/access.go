package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/dropplan/internal/persistence"
	"github.com/example/dropplan/internal/planning"
)

var errTransactorMissing = errors.New("transactor not configured")

// serviceDeps is embedded by the transactional services.
type serviceDeps struct {
	tx          persistence.Transactor
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

func newServiceDeps(tx persistence.Transactor, idGenerator func() string, now func() time.Time, logger *slog.Logger) serviceDeps {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return serviceDeps{tx: tx, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// read runs fn in a read-only transaction and translates its error.
func (d serviceDeps) read(ctx context.Context, fn persistence.TxFunc) error {
	if d.tx == nil {
		return errTransactorMissing
	}
	return translateError(d.tx.WithinReadOnlyTransaction(ctx, fn))
}

// write runs fn in a read-write transaction and translates its error.
func (d serviceDeps) write(ctx context.Context, fn persistence.TxFunc) error {
	if d.tx == nil {
		return errTransactorMissing
	}
	return translateError(d.tx.WithinTransaction(ctx, fn))
}

// clock returns the current instant in UTC.
func (d serviceDeps) clock() time.Time {
	return d.now().UTC()
}

func requireManager(p Principal) error {
	if !p.CanManage() {
		return ErrUnauthorized
	}
	return nil
}

func requireAdmin(p Principal) error {
	if !p.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}

// requireSelfOrAdmin allows a principal to act on their own records.
func requireSelfOrAdmin(p Principal, userID string) error {
	if p.IsAdmin() || p.UserID == userID {
		return nil
	}
	return ErrUnauthorized
}

func isMember(ctx context.Context, repos persistence.Repositories, projectID, userID string) (bool, error) {
	if _, err := repos.Projects().GetMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// loadProject returns the project when the principal is a member or an
// administrator. A missing project is ErrNotFound, a foreign one ErrUnauthorized.
func loadProject(ctx context.Context, repos persistence.Repositories, p Principal, projectID string) (persistence.Project, error) {
	project, err := repos.Projects().GetProject(ctx, projectID)
	if err != nil {
		return persistence.Project{}, translateError(err)
	}
	if p.IsAdmin() {
		return project, nil
	}
	member, err := isMember(ctx, repos, projectID, p.UserID)
	if err != nil {
		return persistence.Project{}, err
	}
	if !member {
		return persistence.Project{}, ErrUnauthorized
	}
	return project, nil
}

// loadIteration returns an iteration of the project; iterations of other
// projects are reported as missing.
func loadIteration(ctx context.Context, repos persistence.Repositories, projectID, iterationID string) (persistence.Iteration, error) {
	iteration, err := repos.Iterations().GetIteration(ctx, iterationID)
	if err != nil {
		return persistence.Iteration{}, translateError(err)
	}
	if iteration.ProjectID != projectID {
		return persistence.Iteration{}, ErrNotFound
	}
	return iteration, nil
}

// loadWorkItem returns a work item of the project; items of other projects
// are reported as missing.
func loadWorkItem(ctx context.Context, repos persistence.Repositories, projectID, workItemID string) (persistence.WorkItem, error) {
	item, err := repos.WorkItems().GetWorkItem(ctx, workItemID)
	if err != nil {
		return persistence.WorkItem{}, translateError(err)
	}
	if item.ProjectID != projectID {
		return persistence.WorkItem{}, ErrNotFound
	}
	return item, nil
}

// computeHours reads the sessions of a work item and derives its completed
// and remaining hours at now.
func computeHours(ctx context.Context, repos persistence.Repositories, item persistence.WorkItem, now time.Time) (planning.Hours, error) {
	sessions, err := repos.WorkSessions().ListWorkItemSessions(ctx, item.ID)
	if err != nil {
		return planning.Hours{}, err
	}
	return planning.ComputeHours(toPlanningSessions(sessions), item.EstimationHours, now), nil
}

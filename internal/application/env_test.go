package application_test

import (
	"testing"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/testfixtures"
)

// env is a migrated database seeded with one user per role and a project
// the manager created and the executor joined.
type env struct {
	harness  *testfixtures.SQLiteHarness
	factory  *testfixtures.ServiceFactory
	admin    testfixtures.UserFixture
	manager  testfixtures.UserFixture
	executor testfixtures.UserFixture
	outsider testfixtures.UserFixture
	project  testfixtures.ProjectFixture
}

func newEnv(t *testing.T) *env {
	t.Helper()

	h := testfixtures.NewSQLiteHarness(t)
	e := &env{
		harness:  h,
		factory:  testfixtures.NewServiceFactory(),
		admin:    h.SeedUser(testfixtures.NewUserFixture(testfixtures.WithUserRole(application.RoleAdministrator))),
		manager:  h.SeedUser(testfixtures.NewUserFixture(testfixtures.WithUserRole(application.RoleManager))),
		executor: h.SeedUser(testfixtures.NewUserFixture(testfixtures.WithUserCapacity("6"))),
		outsider: h.SeedUser(testfixtures.NewUserFixture()),
	}
	e.project = h.SeedProject(testfixtures.NewProjectFixture(e.manager.ID, testfixtures.WithProjectMembers(e.executor.ID)))
	return e
}

// sprint seeds the default two-week sprint of the project.
func (e *env) sprint(opts ...testfixtures.IterationOption) testfixtures.IterationFixture {
	return e.harness.SeedIteration(testfixtures.NewIterationFixture(e.project.ID, opts...))
}

// story seeds an Epic, Feature and UserStory chain and returns the story.
func (e *env) story() testfixtures.WorkItemFixture {
	h, p, by := e.harness, e.project.ID, e.manager.ID
	epic := h.SeedWorkItem(testfixtures.NewWorkItemFixture(p, "Epic", by))
	feature := h.SeedWorkItem(testfixtures.NewWorkItemFixture(p, "Feature", by, testfixtures.WithWorkItemParent(epic.ID)))
	return h.SeedWorkItem(testfixtures.NewWorkItemFixture(p, "UserStory", by, testfixtures.WithWorkItemParent(feature.ID)))
}

// task seeds a Task under parentID.
func (e *env) task(parentID string, opts ...testfixtures.WorkItemOption) testfixtures.WorkItemFixture {
	opts = append([]testfixtures.WorkItemOption{testfixtures.WithWorkItemParent(parentID)}, opts...)
	return e.harness.SeedWorkItem(testfixtures.NewWorkItemFixture(e.project.ID, "Task", e.manager.ID, opts...))
}

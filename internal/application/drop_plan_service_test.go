package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/planning"
	"github.com/example/dropplan/internal/testfixtures"
)

type recordingObserver struct {
	mu    sync.Mutex
	kinds []string
	days  []int
}

func (r *recordingObserver) ObserveCapacity(kind string, overcommittedDays int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	r.days = append(r.days, overcommittedDays)
}

func TestDropPlanService_SprintViews(t *testing.T) {
	ctx := context.Background()
	day := testfixtures.Day
	e := newEnv(t)
	sprint := e.sprint()
	story := e.story()
	late := e.task(story.ID,
		testfixtures.WithWorkItemTitle("b late"),
		testfixtures.WithWorkItemIteration(sprint.ID),
		testfixtures.WithWorkItemAssignee(e.executor.ID),
		testfixtures.WithWorkItemEstimation("3"),
		testfixtures.WithWorkItemDates(day("2025-01-08"), day("2025-01-09")))
	early := e.task(story.ID,
		testfixtures.WithWorkItemTitle("a early"),
		testfixtures.WithWorkItemIteration(sprint.ID),
		testfixtures.WithWorkItemAssignee(e.executor.ID),
		testfixtures.WithWorkItemEstimation("5"),
		testfixtures.WithWorkItemDates(day("2025-01-06"), day("2025-01-07")))
	undated := e.task(story.ID,
		testfixtures.WithWorkItemTitle("0 undated"),
		testfixtures.WithWorkItemIteration(sprint.ID),
		testfixtures.WithWorkItemAssignee(e.executor.ID),
		testfixtures.WithWorkItemEstimation("1"))
	open := e.task(story.ID,
		testfixtures.WithWorkItemIteration(sprint.ID),
		testfixtures.WithWorkItemEstimation("2"))
	svc := e.factory.NewDropPlanService(e.harness.Transactor())

	t.Run("tasks of a user ordered by start date", func(t *testing.T) {
		tasks, err := svc.TasksForSprint(ctx, e.executor.Principal(), e.project.ID, sprint.ID, &e.executor.ID)
		require.NoError(t, err)
		ids := make([]string, 0, len(tasks))
		for _, task := range tasks {
			ids = append(ids, task.ID)
		}
		assert.Equal(t, []string{early.ID, late.ID, undated.ID}, ids)
		require.NotNil(t, tasks[0].ParentTitle)
		assert.Equal(t, story.Title, *tasks[0].ParentTitle)
	})

	t.Run("unassigned tasks", func(t *testing.T) {
		tasks, err := svc.TasksForSprint(ctx, e.executor.Principal(), e.project.ID, sprint.ID, nil)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, open.ID, tasks[0].ID)
	})

	t.Run("overview totals", func(t *testing.T) {
		overview, err := svc.SprintOverview(ctx, e.executor.Principal(), e.project.ID, sprint.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, overview.TotalTasks)
		assert.True(t, overview.TotalEstimation.Equal(testfixtures.Hours("11")))
		assert.True(t, overview.TotalCompleted.IsZero())
		assert.Len(t, overview.Members, 2)
		assert.Len(t, overview.WorkingDays, 10)
	})

	t.Run("user tasks", func(t *testing.T) {
		result, err := svc.UserTasks(ctx, e.manager.Principal(), e.project.ID, sprint.ID, e.executor.ID)
		require.NoError(t, err)
		require.NotNil(t, result.Member)
		assert.True(t, result.Member.CapacityPerDay.Equal(testfixtures.Hours("6")))
		assert.Len(t, result.Tasks, 3)
		assert.True(t, result.TotalEstimation.Equal(testfixtures.Hours("9")))

		stranger, err := svc.UserTasks(ctx, e.manager.Principal(), e.project.ID, sprint.ID, e.outsider.ID)
		require.NoError(t, err)
		assert.Nil(t, stranger.Member)
		assert.Empty(t, stranger.Tasks)
	})

	t.Run("outsiders cannot read the board", func(t *testing.T) {
		_, err := svc.SprintOverview(ctx, e.outsider.Principal(), e.project.ID, sprint.ID)
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})
}

func TestDropPlanService_Capacity(t *testing.T) {
	ctx := context.Background()
	day := testfixtures.Day
	e := newEnv(t)
	sprint := e.sprint()
	story := e.story()
	big := e.task(story.ID, testfixtures.WithWorkItemIteration(sprint.ID), testfixtures.WithWorkItemEstimation("10"))
	small := e.task(story.ID, testfixtures.WithWorkItemIteration(sprint.ID), testfixtures.WithWorkItemEstimation("2.5"))
	observer := &recordingObserver{}
	svc := e.factory.NewDropPlanService(e.harness.Transactor(), application.WithCapacityObserver(observer))

	item, err := svc.AddItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, application.DropPlanItemInput{
		WorkItemID:     big.ID,
		AssignedUserID: e.executor.ID,
		PlannedDate:    day("2025-01-06"),
	})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, application.DropPlanItemInput{
		WorkItemID:     small.ID,
		AssignedUserID: e.manager.ID,
		PlannedDate:    day("2025-01-07"),
	})
	require.NoError(t, err)

	plan, err := svc.UserDropPlan(ctx, e.executor.Principal(), e.project.ID, sprint.ID, e.executor.ID)
	require.NoError(t, err)
	require.Len(t, plan.Items, 1)
	assert.Equal(t, item.ID, plan.Items[0].ID)
	assert.True(t, plan.User.TotalCapacity.Equal(testfixtures.Hours("60")))
	assert.True(t, plan.User.TotalPlanned.Equal(testfixtures.Hours("10")))
	require.Len(t, plan.LoadByDay, 10)
	assert.True(t, plan.LoadByDay[0].IsOvercommitted)
	assert.False(t, plan.LoadByDay[1].IsOvercommitted)

	capacity, err := svc.SprintCapacity(ctx, e.manager.Principal(), e.project.ID, sprint.ID)
	require.NoError(t, err)
	assert.True(t, capacity.TotalCapacity.Equal(testfixtures.Hours("140")), capacity.TotalCapacity.String())
	assert.True(t, capacity.TotalPlanned.Equal(testfixtures.Hours("12.5")))
	assert.Equal(t, "8.93", capacity.UtilizationPercent.StringFixed(2))
	assert.False(t, capacity.IsOvercommitted)
	assert.Equal(t, 0, capacity.OvercommittedDays())
	require.Len(t, capacity.ByUser, 2)

	assert.Equal(t, []string{application.CapacityKindUser, application.CapacityKindSprint}, observer.kinds)
	assert.Equal(t, []int{1, 0}, observer.days)

	require.NoError(t, svc.RemoveItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, item.ID))
	plan, err = svc.UserDropPlan(ctx, e.executor.Principal(), e.project.ID, sprint.ID, e.executor.ID)
	require.NoError(t, err)
	assert.Empty(t, plan.Items)
	assert.True(t, plan.User.TotalPlanned.IsZero())
}

func TestDropPlanService_CapacityWithoutMembers(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	retired := e.harness.SeedUser(testfixtures.NewUserFixture(testfixtures.WithUserInactive()))
	project := e.harness.SeedProject(testfixtures.NewProjectFixture(retired.ID))
	sprint := e.harness.SeedIteration(testfixtures.NewIterationFixture(project.ID))
	svc := e.factory.NewDropPlanService(e.harness.Transactor())

	capacity, err := svc.SprintCapacity(ctx, e.admin.Principal(), project.ID, sprint.ID)
	require.NoError(t, err)
	assert.True(t, capacity.TotalCapacity.IsZero())
	assert.True(t, capacity.UtilizationPercent.IsZero())
	assert.Empty(t, capacity.ByUser)
	assert.False(t, capacity.IsOvercommitted)
}

func TestDropPlanService_AddItemRules(t *testing.T) {
	ctx := context.Background()
	day := testfixtures.Day
	e := newEnv(t)
	sprint := e.sprint()
	story := e.story()
	task := e.task(story.ID, testfixtures.WithWorkItemIteration(sprint.ID), testfixtures.WithWorkItemEstimation("4"))
	svc := e.factory.NewDropPlanService(e.harness.Transactor())
	input := application.DropPlanItemInput{WorkItemID: task.ID, AssignedUserID: e.executor.ID, PlannedDate: day("2025-01-07")}

	_, err := svc.AddItem(ctx, e.executor.Principal(), e.project.ID, sprint.ID, input)
	assert.ErrorIs(t, err, application.ErrUnauthorized)

	weekend := input
	weekend.PlannedDate = day("2025-01-11")
	_, err = svc.AddItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, weekend)
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "planned_date")

	stranger := input
	stranger.AssignedUserID = e.outsider.ID
	_, err = svc.AddItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, stranger)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "assigned_user_id")

	item, err := svc.AddItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, input)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, input)
	assert.ErrorIs(t, err, application.ErrConflict)

	moved := day("2025-01-09")
	order := 3
	updated, err := svc.UpdateItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, item.ID, application.DropPlanItemPatch{PlannedDate: &moved, OrderIndex: &order})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-09", planning.FormatDay(updated.PlannedDate))
	assert.Equal(t, 3, updated.OrderIndex)

	err = svc.RemoveItem(ctx, e.manager.Principal(), e.project.ID, sprint.ID, "missing")
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestDropPlanService_MoveTask(t *testing.T) {
	ctx := context.Background()
	day := testfixtures.Day
	e := newEnv(t)
	sprint := e.sprint()
	story := e.story()
	task := e.task(story.ID,
		testfixtures.WithWorkItemIteration(sprint.ID),
		testfixtures.WithWorkItemAssignee(e.executor.ID),
		testfixtures.WithWorkItemEstimation("4"),
		testfixtures.WithWorkItemDates(day("2025-01-06"), day("2025-01-06")))
	unplanned := e.task(story.ID, testfixtures.WithWorkItemEstimation("4"))
	svc := e.factory.NewDropPlanService(e.harness.Transactor())

	moved, err := svc.MoveTask(ctx, e.executor.Principal(), e.project.ID, sprint.ID, task.ID, day("2025-01-13"), day("2025-01-14"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-13", planning.FormatDay(*moved.StartDate))
	assert.Equal(t, "2025-01-14", planning.FormatDay(*moved.EndDate))

	tests := []struct {
		name       string
		taskID     string
		start, end string
		field      string
	}{
		{name: "end after the sprint", taskID: task.ID, start: "2025-01-16", end: "2025-01-18", field: "end_date"},
		{name: "start before the sprint", taskID: task.ID, start: "2025-01-03", end: "2025-01-07", field: "start_date"},
		{name: "end before start", taskID: task.ID, start: "2025-01-10", end: "2025-01-09", field: "end_date"},
		{name: "not a task", taskID: story.ID, start: "2025-01-07", end: "2025-01-08", field: "work_item_id"},
		{name: "task of another sprint", taskID: unplanned.ID, start: "2025-01-07", end: "2025-01-08", field: "iteration_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.MoveTask(ctx, e.manager.Principal(), e.project.ID, sprint.ID, tt.taskID, day(tt.start), day(tt.end))
			var vErr *application.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.FieldErrors, tt.field)
		})
	}

	t.Run("other members cannot move the task", func(t *testing.T) {
		colleague := e.harness.SeedUser(testfixtures.NewUserFixture())
		_, err := e.factory.NewProjectService(e.harness.Transactor()).AddMember(ctx, e.manager.Principal(), e.project.ID, colleague.ID)
		require.NoError(t, err)

		_, err = svc.MoveTask(ctx, colleague.Principal(), e.project.ID, sprint.ID, task.ID, day("2025-01-07"), day("2025-01-08"))
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})
}

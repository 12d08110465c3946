package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "manpower/internal/errors"
	"manpower/internal/model"
	"manpower/internal/repository"
	"manpower/internal/testutil"
)

type taskFixture struct {
	tasks     *taskService
	lifecycle *lifecycleService
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	manager   *model.User
	engineer  *model.User
	engineer2 *model.User
	now       time.Time
}

func newTaskFixture(t *testing.T, opts TaskOptions) *taskFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	ctx := context.Background()

	f := &taskFixture{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		manager:   &model.User{Username: "mgr", Name: "Manager", PasswordHash: "x", Role: model.RoleManager},
		engineer:  &model.User{Username: "eng1", Name: "Ada", PasswordHash: "x", Role: model.RoleEngineer},
		engineer2: &model.User{Username: "eng2", Name: "Brian", PasswordHash: "x", Role: model.RoleEngineer},
		now:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	for _, u := range []*model.User{f.manager, f.engineer, f.engineer2} {
		require.NoError(t, userRepo.Create(ctx, u))
	}

	f.tasks = NewTaskService(taskRepo, userRepo, opts, nil).(*taskService)
	f.tasks.now = func() time.Time { return f.now }
	f.lifecycle = NewLifecycleService(taskRepo, nil).(*lifecycleService)
	f.lifecycle.now = func() time.Time { return f.now }
	return f
}

func (f *taskFixture) slot(from, to time.Duration) model.TimeSlot {
	return model.TimeSlot{StartDateTime: f.now.Add(from), EndDateTime: f.now.Add(to)}
}

func (f *taskFixture) input(project string, slot model.TimeSlot, assigned ...string) CreateTaskInput {
	return CreateTaskInput{
		Project:    project,
		TimeSlots:  []model.TimeSlot{slot},
		AssignedTo: assigned,
		ContactNo:  "555-0100",
	}
}

func TestTaskService_CreateConflict(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	first, err := f.tasks.Create(ctx, f.manager.ID, f.input("Grid", f.slot(time.Hour, 2*time.Hour), f.engineer.ID))
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusActive, first.Status)
	assert.Equal(t, model.PriorityNormal, first.Priority)

	_, err = f.tasks.Create(ctx, f.manager.ID, f.input("Relay", f.slot(90*time.Minute, 150*time.Minute), f.engineer.ID, f.engineer2.ID))
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, first.ID, conflict.Conflicts[0].TaskID)
	assert.Equal(t, "Grid", conflict.Conflicts[0].Project)
	assert.Equal(t, []string{f.engineer.ID}, conflict.Conflicts[0].Engineers)

	// Back-to-back work is allowed.
	_, err = f.tasks.Create(ctx, f.manager.ID, f.input("Relay", f.slot(2*time.Hour, 3*time.Hour), f.engineer.ID))
	assert.NoError(t, err)
}

func TestTaskService_CreatePastTaskCompleted(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})

	task, err := f.tasks.Create(context.Background(), f.manager.ID, f.input("Audit", f.slot(-2*time.Hour, -time.Hour), f.engineer.ID))
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, task.Status)
}

func TestTaskService_CreateRejectPastSlots(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{RejectPastSlots: true})

	_, err := f.tasks.Create(context.Background(), f.manager.ID, f.input("Audit", f.slot(-2*time.Hour, -time.Hour)))
	assert.ErrorIs(t, err, apperrors.ErrSlotInPast)
}

func TestTaskService_CreateValidation(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	_, err := f.tasks.Create(ctx, f.manager.ID, f.input("Bad", f.slot(2*time.Hour, time.Hour)))
	assert.ErrorIs(t, err, apperrors.ErrInvalidTimeSlot)

	_, err = f.tasks.Create(ctx, f.manager.ID, f.input("Bad", f.slot(time.Hour, 2*time.Hour), f.manager.ID))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignees)

	_, err = f.tasks.Create(ctx, f.manager.ID, f.input("Bad", f.slot(time.Hour, 2*time.Hour), "no-such-user"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignees)
}

func TestTaskService_CreateDeduplicatesAssignees(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})

	task, err := f.tasks.Create(context.Background(), f.manager.ID,
		f.input("Grid", f.slot(time.Hour, 2*time.Hour), f.engineer.ID, f.engineer.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{f.engineer.ID}, task.AssignedTo)
	require.Len(t, task.AssignedUsers, 1)
	assert.Equal(t, "Ada", task.AssignedUsers[0].Name)
	require.NotNil(t, task.CreatedBy)
	assert.Equal(t, "mgr", task.CreatedBy.Username)
}

func TestTaskService_SweepCompletesElapsedTask(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, f.manager.ID, f.input("Short", f.slot(-time.Hour, time.Second), f.engineer.ID))
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusActive, task.Status)

	f.now = f.now.Add(2 * time.Second)
	assert.Equal(t, 1, f.lifecycle.Sweep(ctx))
	assert.Equal(t, 0, f.lifecycle.Sweep(ctx))

	active := model.TaskStatusActive
	listed, err := f.tasks.List(ctx, &active)
	require.NoError(t, err)
	assert.Empty(t, listed)

	got, err := f.tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)
}

func TestTaskService_CompletedTaskIsReadOnly(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, f.manager.ID, f.input("Done", f.slot(-2*time.Hour, -time.Hour)))
	require.NoError(t, err)

	project := "Renamed"
	_, err = f.tasks.Update(ctx, task.ID, UpdateTaskInput{Project: &project})
	assert.ErrorIs(t, err, apperrors.ErrTaskCompleted)

	_, err = f.tasks.Update(ctx, task.ID, UpdateTaskInput{TimeSlots: []model.TimeSlot{f.slot(time.Hour, 2*time.Hour)}})
	assert.ErrorIs(t, err, apperrors.ErrTaskCompleted)

	assert.ErrorIs(t, f.tasks.Delete(ctx, task.ID), apperrors.ErrTaskCompleted)

	_, err = f.tasks.Get(ctx, task.ID)
	assert.NoError(t, err)
}

func TestTaskService_UpdateIgnoresOwnSlots(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, f.manager.ID, f.input("Grid", f.slot(time.Hour, 2*time.Hour), f.engineer.ID))
	require.NoError(t, err)

	updated, err := f.tasks.Update(ctx, task.ID, UpdateTaskInput{
		TimeSlots: []model.TimeSlot{f.slot(90*time.Minute, 3*time.Hour)},
	})
	require.NoError(t, err)
	assert.True(t, updated.TimeSlots[0].EndDateTime.Equal(f.now.Add(3*time.Hour)))
	assert.Equal(t, model.TaskStatusActive, updated.Status)
}

func TestTaskService_UpdateDetectsOtherTasks(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	other, err := f.tasks.Create(ctx, f.manager.ID, f.input("Grid", f.slot(time.Hour, 2*time.Hour), f.engineer.ID))
	require.NoError(t, err)
	task, err := f.tasks.Create(ctx, f.manager.ID, f.input("Relay", f.slot(time.Hour, 2*time.Hour), f.engineer2.ID))
	require.NoError(t, err)

	_, err = f.tasks.Update(ctx, task.ID, UpdateTaskInput{AssignedTo: []string{f.engineer.ID, f.engineer2.ID}})
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, other.ID, conflict.Conflicts[0].TaskID)

	cleared, err := f.tasks.Update(ctx, task.ID, UpdateTaskInput{AssignedTo: []string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.AssignedTo)
}

func TestTaskService_UpdateRecomputesStatus(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, f.manager.ID, f.input("Grid", f.slot(time.Hour, 2*time.Hour)))
	require.NoError(t, err)

	priority := model.PriorityHigh
	updated, err := f.tasks.Update(ctx, task.ID, UpdateTaskInput{
		Priority:  &priority,
		TimeSlots: []model.TimeSlot{f.slot(-3*time.Hour, -2*time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, updated.Status)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
}

func TestTaskService_ListAssigned(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	_, err := f.tasks.Create(ctx, f.manager.ID, f.input("Mine", f.slot(time.Hour, 2*time.Hour), f.engineer.ID))
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, f.manager.ID, f.input("Theirs", f.slot(time.Hour, 2*time.Hour), f.engineer2.ID))
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, f.manager.ID, f.input("Old", f.slot(-2*time.Hour, -time.Hour), f.engineer.ID))
	require.NoError(t, err)

	mine, err := f.tasks.ListAssigned(ctx, f.engineer.ID, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	active := model.TaskStatusActive
	mine, err = f.tasks.ListAssigned(ctx, f.engineer.ID, &active)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Project)
}

func TestTaskService_DeleteAndNotFound(t *testing.T) {
	f := newTaskFixture(t, TaskOptions{})
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, f.manager.ID, f.input("Grid", f.slot(time.Hour, 2*time.Hour)))
	require.NoError(t, err)

	require.NoError(t, f.tasks.Delete(ctx, task.ID))
	assert.ErrorIs(t, f.tasks.Delete(ctx, task.ID), apperrors.ErrTaskNotFound)

	_, err = f.tasks.Get(ctx, task.ID)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

	_, err = f.tasks.Update(ctx, task.ID, UpdateTaskInput{})
	assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
}

func TestTaskService_CreateStoreFailure(t *testing.T) {
	mockTasks := new(MockTaskRepository)
	mockUsers := new(MockUserRepository)
	storeErr := errors.New("connection refused")

	mockUsers.On("FindEngineersByIDs", mock.Anything, []string{"e1"}).
		Return([]model.User{{ID: "e1", Role: model.RoleEngineer}}, nil)
	mockTasks.On("ListActive", mock.Anything).Return(nil, storeErr)

	svc := NewTaskService(mockTasks, mockUsers, TaskOptions{}, nil)
	start := time.Now().Add(time.Hour)
	_, err := svc.Create(context.Background(), "m1", CreateTaskInput{
		Project:    "Grid",
		TimeSlots:  []model.TimeSlot{{StartDateTime: start, EndDateTime: start.Add(time.Hour)}},
		AssignedTo: []string{"e1"},
		ContactNo:  "555",
	})
	assert.ErrorIs(t, err, storeErr)
	mockTasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockTasks.AssertExpectations(t)
	mockUsers.AssertExpectations(t)
}

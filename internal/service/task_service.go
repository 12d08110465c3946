package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	apperrors "manpower/internal/errors"
	"manpower/internal/model"
	"manpower/internal/repository"
	"manpower/internal/scheduling"
)

// CreateTaskInput holds the fields of a new task.
type CreateTaskInput struct {
	Project    string
	TimeSlots  []model.TimeSlot
	AssignedTo []string
	ContactNo  string
	Priority   model.Priority
	Remarks    string
}

// UpdateTaskInput holds a partial task edit. Nil fields are left unchanged;
// an empty non-nil AssignedTo unassigns everyone.
type UpdateTaskInput struct {
	Project    *string
	TimeSlots  []model.TimeSlot
	AssignedTo []string
	ContactNo  *string
	Priority   *model.Priority
	Remarks    *string
}

// TaskOptions tunes the task write path.
type TaskOptions struct {
	// RejectPastSlots refuses new tasks with a slot starting before now.
	RejectPastSlots bool
}

// TaskService defines task operations.
type TaskService interface {
	Create(ctx context.Context, creatorID string, in CreateTaskInput) (*model.TaskDetail, error)
	Update(ctx context.Context, id string, in UpdateTaskInput) (*model.TaskDetail, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.TaskDetail, error)
	List(ctx context.Context, status *model.TaskStatus) ([]model.TaskDetail, error)
	ListAssigned(ctx context.Context, userID string, status *model.TaskStatus) ([]model.TaskDetail, error)
}

type taskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	opts     TaskOptions
	logger   *slog.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, opts TaskOptions, logger *slog.Logger) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &taskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates assignees, checks their availability against every
// active task and stores the task with its derived initial status.
// The check and the insert are not atomic.
func (s *taskService) Create(ctx context.Context, creatorID string, in CreateTaskInput) (*model.TaskDetail, error) {
	now := s.now()
	if err := validateSlots(in.TimeSlots); err != nil {
		return nil, err
	}
	if s.opts.RejectPastSlots {
		for _, slot := range in.TimeSlots {
			if slot.StartDateTime.Before(now) {
				return nil, apperrors.ErrSlotInPast
			}
		}
	}

	assignees := uniqueIDs(in.AssignedTo)
	if err := s.ensureEngineers(ctx, assignees); err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, "", assignees, in.TimeSlots); err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	task := &model.Task{
		Project:     in.Project,
		TimeSlots:   in.TimeSlots,
		AssignedTo:  assignees,
		ContactNo:   in.ContactNo,
		Priority:    priority,
		Remarks:     in.Remarks,
		Status:      scheduling.InitialStatus(in.TimeSlots, now),
		CreatedByID: creatorID,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("status", string(task.Status)),
		slog.Int("assignees", len(assignees)),
	)
	return s.enrichOne(ctx, task)
}

// Update applies a partial edit to an active task. Availability is
// re-checked only when assignees or slots change, ignoring the task's own
// persisted slots.
func (s *taskService) Update(ctx context.Context, id string, in UpdateTaskInput) (*model.TaskDetail, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.IsCompleted() {
		return nil, apperrors.ErrTaskCompleted
	}

	if in.TimeSlots != nil {
		if err := validateSlots(in.TimeSlots); err != nil {
			return nil, err
		}
	}

	if in.AssignedTo != nil || in.TimeSlots != nil {
		assignees := task.AssignedTo
		if in.AssignedTo != nil {
			assignees = uniqueIDs(in.AssignedTo)
			if err := s.ensureEngineers(ctx, assignees); err != nil {
				return nil, err
			}
		}
		slots := task.TimeSlots
		if in.TimeSlots != nil {
			slots = in.TimeSlots
		}
		if err := s.ensureAvailable(ctx, task.ID, assignees, slots); err != nil {
			return nil, err
		}
		task.AssignedTo = assignees
		task.TimeSlots = slots
	}

	if in.TimeSlots != nil {
		task.Status = scheduling.InitialStatus(task.TimeSlots, s.now())
	}
	if in.Project != nil {
		task.Project = *in.Project
	}
	if in.ContactNo != nil {
		task.ContactNo = *in.ContactNo
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Remarks != nil {
		task.Remarks = *in.Remarks
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.enrichOne(ctx, task)
}

// Delete removes an active task.
func (s *taskService) Delete(ctx context.Context, id string) error {
	task, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if task.IsCompleted() {
		return apperrors.ErrTaskCompleted
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *taskService) Get(ctx context.Context, id string) (*model.TaskDetail, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, task)
}

func (s *taskService) List(ctx context.Context, status *model.TaskStatus) ([]model.TaskDetail, error) {
	tasks, err := s.taskRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return s.enrich(ctx, tasks)
}

// ListAssigned lists the tasks userID is assigned to, newest first.
func (s *taskService) ListAssigned(ctx context.Context, userID string, status *model.TaskStatus) ([]model.TaskDetail, error) {
	tasks, err := s.taskRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	mine := make([]model.Task, 0, len(tasks))
	for i := range tasks {
		if tasks[i].IsAssigned(userID) {
			mine = append(mine, tasks[i])
		}
	}
	return s.enrich(ctx, mine)
}

func (s *taskService) find(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

func (s *taskService) ensureEngineers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	engineers, err := s.userRepo.FindEngineersByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("find engineers: %w", err)
	}
	if len(engineers) != len(ids) {
		return apperrors.ErrInvalidAssignees
	}
	return nil
}

// ensureAvailable runs the availability check against all active tasks.
// A non-empty selfID drops the conflicts raised by that task.
func (s *taskService) ensureAvailable(ctx context.Context, selfID string, engineerIDs []string, slots []model.TimeSlot) error {
	if len(engineerIDs) == 0 {
		return nil
	}
	active, err := s.taskRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active tasks: %w", err)
	}
	result := scheduling.CheckAvailability(engineerIDs, slots, active)
	if selfID != "" {
		result = result.Excluding(selfID)
	}
	if !result.Available {
		return &apperrors.ConflictError{Conflicts: result.Conflicts}
	}
	return nil
}

func (s *taskService) enrichOne(ctx context.Context, task *model.Task) (*model.TaskDetail, error) {
	details, err := s.enrich(ctx, []model.Task{*task})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// enrich resolves assignees and creators of tasks with a single lookup.
func (s *taskService) enrich(ctx context.Context, tasks []model.Task) ([]model.TaskDetail, error) {
	var ids []string
	for i := range tasks {
		ids = append(ids, tasks[i].AssignedTo...)
		ids = append(ids, tasks[i].CreatedByID)
	}
	users, err := s.userRepo.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	byID := make(map[string]model.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	details := make([]model.TaskDetail, 0, len(tasks))
	for i := range tasks {
		d := model.TaskDetail{Task: tasks[i], AssignedUsers: []model.UserSummary{}}
		for _, id := range tasks[i].AssignedTo {
			if u, ok := byID[id]; ok {
				d.AssignedUsers = append(d.AssignedUsers, u)
			}
		}
		if u, ok := byID[tasks[i].CreatedByID]; ok {
			creator := u
			d.CreatedBy = &creator
		}
		details = append(details, d)
	}
	return details, nil
}

func validateSlots(slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return apperrors.ErrInvalidTimeSlot
	}
	for _, slot := range slots {
		if !slot.EndDateTime.After(slot.StartDateTime) {
			return apperrors.ErrInvalidTimeSlot
		}
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

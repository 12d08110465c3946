package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"manpower/internal/model"
)

// TaskRepository defines task persistence operations.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	// List returns tasks newest first. A nil status lists every task.
	List(ctx context.Context, status *model.TaskStatus) ([]model.Task, error)
	ListActive(ctx context.Context) ([]model.Task, error)
	Delete(ctx context.Context, id string) error
	// MarkCompleted flips the given ACTIVE tasks to COMPLETED in one
	// statement and returns how many rows changed.
	MarkCompleted(ctx context.Context, ids []string, at time.Time) (int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update saves every column of an existing task.
func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// FindByID finds a task by ID.
func (r *taskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, status *model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListActive lists the tasks that still hold engineer commitments.
func (r *taskRepository) ListActive(ctx context.Context) ([]model.Task, error) {
	status := model.TaskStatusActive
	return r.List(ctx, &status)
}

// Delete removes a task by ID.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepository) MarkCompleted(ctx context.Context, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id IN ? AND status = ?", ids, model.TaskStatusActive).
		UpdateColumns(map[string]interface{}{
			"status":     model.TaskStatusCompleted,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

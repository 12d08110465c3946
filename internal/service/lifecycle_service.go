package service

import (
	"context"
	"log/slog"
	"time"

	"manpower/internal/repository"
	"manpower/internal/scheduling"
)

// LifecycleService completes tasks whose slots have all elapsed.
type LifecycleService interface {
	// Sweep returns how many tasks it moved to COMPLETED. Store failures
	// are logged and reported as zero.
	Sweep(ctx context.Context) int
}

type lifecycleService struct {
	taskRepo repository.TaskRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewLifecycleService creates a new lifecycle service.
func NewLifecycleService(taskRepo repository.TaskRepository, logger *slog.Logger) LifecycleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &lifecycleService{
		taskRepo: taskRepo,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *lifecycleService) Sweep(ctx context.Context) int {
	now := s.now()

	active, err := s.taskRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error("status sweep: list active tasks", slog.Any("error", err))
		return 0
	}

	due := scheduling.DueForCompletion(active, now)
	if len(due) == 0 {
		return 0
	}

	updated, err := s.taskRepo.MarkCompleted(ctx, due, now)
	if err != nil {
		s.logger.Error("status sweep: mark completed", slog.Any("error", err), slog.Int("due", len(due)))
		return 0
	}

	s.logger.Info("status sweep completed tasks", slog.Int64("updated", updated))
	return int(updated)
}

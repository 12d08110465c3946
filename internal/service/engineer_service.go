package service

import (
	"context"
	"fmt"

	"manpower/internal/model"
	"manpower/internal/repository"
	"manpower/internal/scheduling"
)

// EngineerAvailability is the roster split by availability for some slots.
type EngineerAvailability struct {
	Available []model.User
	Busy      []scheduling.Conflict
	// Total is the number of engineers that were checked.
	Total int
}

// EngineerService exposes the engineer roster.
type EngineerService interface {
	ListEngineers(ctx context.Context) ([]model.User, error)
	// Available checks candidateIDs, or the whole roster when empty,
	// against every active task. Ids that are not engineers are ignored.
	Available(ctx context.Context, slots []model.TimeSlot, candidateIDs []string) (*EngineerAvailability, error)
}

type engineerService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
}

// NewEngineerService creates a new engineer service.
func NewEngineerService(userRepo repository.UserRepository, taskRepo repository.TaskRepository) EngineerService {
	return &engineerService{userRepo: userRepo, taskRepo: taskRepo}
}

func (s *engineerService) ListEngineers(ctx context.Context) ([]model.User, error) {
	engineers, err := s.userRepo.ListByRole(ctx, model.RoleEngineer)
	if err != nil {
		return nil, fmt.Errorf("list engineers: %w", err)
	}
	return engineers, nil
}

func (s *engineerService) Available(ctx context.Context, slots []model.TimeSlot, candidateIDs []string) (*EngineerAvailability, error) {
	if err := validateSlots(slots); err != nil {
		return nil, err
	}

	roster, err := s.ListEngineers(ctx)
	if err != nil {
		return nil, err
	}
	candidates := roster
	if wanted := uniqueIDs(candidateIDs); len(wanted) > 0 {
		set := make(map[string]struct{}, len(wanted))
		for _, id := range wanted {
			set[id] = struct{}{}
		}
		candidates = make([]model.User, 0, len(wanted))
		for i := range roster {
			if _, ok := set[roster[i].ID]; ok {
				candidates = append(candidates, roster[i])
			}
		}
	}

	active, err := s.taskRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}

	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID
	}
	result := scheduling.CheckAvailability(ids, slots, active)
	busy := result.BusyEngineers()

	available := make([]model.User, 0, len(candidates))
	for i := range candidates {
		if _, taken := busy[candidates[i].ID]; !taken {
			available = append(available, candidates[i])
		}
	}

	return &EngineerAvailability{
		Available: available,
		Busy:      result.Conflicts,
		Total:     len(candidates),
	}, nil
}

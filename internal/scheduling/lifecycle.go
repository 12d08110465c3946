package scheduling

import (
	"time"

	"manpower/internal/model"
)

// AllSlotsElapsed reports whether every slot ended at or before now.
// An empty slot list never counts as elapsed.
func AllSlotsElapsed(slots []model.TimeSlot, now time.Time) bool {
	if len(slots) == 0 {
		return false
	}
	for _, s := range slots {
		if s.EndDateTime.After(now) {
			return false
		}
	}
	return true
}

// InitialStatus is the status a task takes when it is created or when its
// slots are replaced.
func InitialStatus(slots []model.TimeSlot, now time.Time) model.TaskStatus {
	if AllSlotsElapsed(slots, now) {
		return model.TaskStatusCompleted
	}
	return model.TaskStatusActive
}

// DueForCompletion selects the ids of active tasks whose work is entirely
// in the past. Tasks in any other status are ignored.
func DueForCompletion(tasks []model.Task, now time.Time) []string {
	var ids []string
	for i := range tasks {
		if tasks[i].Status != model.TaskStatusActive {
			continue
		}
		if AllSlotsElapsed(tasks[i].TimeSlots, now) {
			ids = append(ids, tasks[i].ID)
		}
	}
	return ids
}

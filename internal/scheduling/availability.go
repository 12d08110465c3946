// Package scheduling holds the engineer availability check and the task
// lifecycle rules. Everything here is pure: callers fetch the data, the
// functions decide.
package scheduling

import (
	"manpower/internal/model"
)

// Overlaps reports whether two half-open slots share any instant.
// Slots that only touch at an endpoint do not overlap.
func Overlaps(a, b model.TimeSlot) bool {
	return a.StartDateTime.Before(b.EndDateTime) && b.StartDateTime.Before(a.EndDateTime)
}

// Conflict describes one existing slot that collides with one requested slot.
type Conflict struct {
	TaskID    string         `json:"taskId"`
	Project   string         `json:"project"`
	Engineers []string       `json:"engineers"`
	Existing  model.TimeSlot `json:"existing"`
	Requested model.TimeSlot `json:"requested"`
}

// Availability is the outcome of CheckAvailability.
type Availability struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts"`
}

// CheckAvailability reports every overlap between the requested slots and
// the slots of existing tasks that share at least one engineer with
// engineerIDs. existing must already be restricted to live commitments;
// no status filtering happens here.
func CheckAvailability(engineerIDs []string, requested []model.TimeSlot, existing []model.Task) Availability {
	candidates := dedupe(engineerIDs)
	conflicts := []Conflict{}
	if len(candidates) == 0 || len(requested) == 0 {
		return Availability{Available: true, Conflicts: conflicts}
	}

	for _, req := range requested {
		for i := range existing {
			task := &existing[i]
			shared := intersect(candidates, task.AssignedTo)
			if len(shared) == 0 {
				continue
			}
			for _, slot := range task.TimeSlots {
				if !Overlaps(req, slot) {
					continue
				}
				conflicts = append(conflicts, Conflict{
					TaskID:    task.ID,
					Project:   task.Project,
					Engineers: shared,
					Existing:  slot,
					Requested: req,
				})
			}
		}
	}

	return Availability{Available: len(conflicts) == 0, Conflicts: conflicts}
}

// Excluding drops conflicts raised by taskID. It is used when a task is
// re-checked against the store while it is being edited, so that its own
// persisted slots are not reported against its revised ones.
func (a Availability) Excluding(taskID string) Availability {
	kept := make([]Conflict, 0, len(a.Conflicts))
	for _, c := range a.Conflicts {
		if c.TaskID != taskID {
			kept = append(kept, c)
		}
	}
	return Availability{Available: len(kept) == 0, Conflicts: kept}
}

// BusyEngineers returns the set of engineer ids named by any conflict.
func (a Availability) BusyEngineers() map[string]struct{} {
	busy := make(map[string]struct{})
	for _, c := range a.Conflicts {
		for _, id := range c.Engineers {
			busy[id] = struct{}{}
		}
	}
	return busy
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// intersect keeps the order of candidates.
func intersect(candidates, assigned []string) []string {
	if len(assigned) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(assigned))
	for _, id := range assigned {
		set[id] = struct{}{}
	}
	var out []string
	for _, id := range candidates {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

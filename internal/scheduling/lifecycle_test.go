package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"manpower/internal/model"
)

func TestInitialStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	tests := []struct {
		name  string
		slots []model.TimeSlot
		want  model.TaskStatus
	}{
		{
			name:  "single slot yesterday",
			slots: []model.TimeSlot{{StartDateTime: yesterday, EndDateTime: yesterday.Add(time.Hour)}},
			want:  model.TaskStatusCompleted,
		},
		{
			name:  "slot ending exactly now",
			slots: []model.TimeSlot{{StartDateTime: now.Add(-time.Hour), EndDateTime: now}},
			want:  model.TaskStatusCompleted,
		},
		{
			name: "one slot still in the future",
			slots: []model.TimeSlot{
				{StartDateTime: yesterday, EndDateTime: yesterday.Add(time.Hour)},
				{StartDateTime: now.Add(time.Hour), EndDateTime: now.Add(2 * time.Hour)},
			},
			want: model.TaskStatusActive,
		},
		{
			name:  "slot in progress",
			slots: []model.TimeSlot{{StartDateTime: now.Add(-time.Minute), EndDateTime: now.Add(time.Second)}},
			want:  model.TaskStatusActive,
		},
		{
			name:  "no slots",
			slots: nil,
			want:  model.TaskStatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InitialStatus(tt.slots, now))
		})
	}
}

func TestDueForCompletion(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := []model.TimeSlot{{StartDateTime: now.Add(-2 * time.Hour), EndDateTime: now.Add(-time.Hour)}}
	future := []model.TimeSlot{{StartDateTime: now.Add(time.Hour), EndDateTime: now.Add(2 * time.Hour)}}

	tasks := []model.Task{
		{ID: "done", Status: model.TaskStatusActive, TimeSlots: past},
		{ID: "pending", Status: model.TaskStatusActive, TimeSlots: future},
		{ID: "empty", Status: model.TaskStatusActive, TimeSlots: nil},
		{ID: "already", Status: model.TaskStatusCompleted, TimeSlots: past},
	}

	assert.Equal(t, []string{"done"}, DueForCompletion(tasks, now))
	assert.Empty(t, DueForCompletion(nil, now))
}

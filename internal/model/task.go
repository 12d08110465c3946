package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusActive    TaskStatus = "ACTIVE"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusActive || s == TaskStatusCompleted
}

// Priority of a task.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
)

// TimeSlot is a half-open interval [StartDateTime, EndDateTime).
type TimeSlot struct {
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
}

// Task is a unit of project work with one or more time slots and the
// engineers committed to them. Time slots and assignees are embedded
// as JSON columns rather than child tables.
type Task struct {
	ID          string     `json:"id" gorm:"type:char(36);primaryKey"`
	Project     string     `json:"project" gorm:"size:255;not null"`
	TimeSlots   []TimeSlot `json:"timeSlots" gorm:"serializer:json;type:text;not null"`
	AssignedTo  []string   `json:"assignedTo" gorm:"serializer:json;type:text"`
	ContactNo   string     `json:"contactNo" gorm:"size:64;not null"`
	Priority    Priority   `json:"priority" gorm:"type:varchar(10);not null;default:'NORMAL'"`
	Remarks     string     `json:"remarks" gorm:"type:text"`
	Status      TaskStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	CreatedByID string     `json:"createdById" gorm:"type:char(36);not null;index"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BeforeCreate sets the id before creating the record.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsCompleted reports whether the task reached its terminal state.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// IsAssigned reports whether userID is among the task's assignees.
func (t *Task) IsAssigned(userID string) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// TaskDetail is a task enriched with resolved user records.
type TaskDetail struct {
	Task
	AssignedUsers []UserSummary `json:"assignedUsers"`
	CreatedBy     *UserSummary  `json:"createdBy,omitempty"`
}

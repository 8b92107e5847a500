package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks tasks and messages
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TaskStatus tracks task progress
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// Task is an assignment from a senior officer to a subordinate
type Task struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	AssignedTo   uuid.UUID  `json:"assigned_to" db:"assigned_to"`
	AssignedBy   uuid.UUID  `json:"assigned_by" db:"assigned_by"`
	Jurisdiction string     `json:"jurisdiction" db:"jurisdiction"`
	Priority     Priority   `json:"priority" db:"priority"`
	Status       TaskStatus `json:"status" db:"status"`
	DueDate      *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	Removed      bool       `json:"-" db:"removed"`
}

// TaskUpdate carries the mutable task fields. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
}

// TaskFilter narrows task listings. Zero values match everything.
type TaskFilter struct {
	AssignedTo   uuid.UUID
	AssignedBy   uuid.UUID
	Status       TaskStatus
	Jurisdiction string
}

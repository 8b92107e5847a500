package communication

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/models"
)

// TaskInput is the caller-supplied part of a new task.
type TaskInput struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	AssignedTo   uuid.UUID       `json:"assigned_to"`
	Jurisdiction string          `json:"jurisdiction"`
	Priority     models.Priority `json:"priority"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
}

// MessageInput is the caller-supplied part of a new message.
type MessageInput struct {
	To       []uuid.UUID        `json:"to"`
	Subject  string             `json:"subject"`
	Content  string             `json:"content"`
	Type     models.MessageType `json:"type"`
	Priority models.Priority    `json:"priority"`
}

// NewTask builds a pending task with a fresh id and timestamps.
func NewTask(in TaskInput, assignedBy uuid.UUID, now time.Time) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, validationError("task title is required")
	}
	if in.AssignedTo == uuid.Nil {
		return models.Task{}, validationError("task assignee is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return models.Task{}, validationError("unknown priority %q", priority)
	}

	return models.Task{
		ID:           uuid.New(),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		AssignedTo:   in.AssignedTo,
		AssignedBy:   assignedBy,
		Jurisdiction: in.Jurisdiction,
		Priority:     priority,
		Status:       models.TaskPending,
		DueDate:      in.DueDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewMessage builds an unread message with a fresh id and timestamp.
func NewMessage(in MessageInput, from uuid.UUID, now time.Time) (models.Message, error) {
	subject := strings.TrimSpace(in.Subject)
	content := strings.TrimSpace(in.Content)
	if subject == "" || content == "" {
		return models.Message{}, validationError("subject and message content are required")
	}

	to := dedupe(in.To)
	if len(to) == 0 {
		return models.Message{}, validationError("at least one recipient is required")
	}

	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageGeneral
	}
	if !msgType.Valid() {
		return models.Message{}, validationError("unknown message type %q", msgType)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return models.Message{}, validationError("unknown priority %q", priority)
	}

	return models.Message{
		ID:        uuid.New(),
		From:      from,
		To:        to,
		Subject:   subject,
		Content:   content,
		Type:      msgType,
		Priority:  priority,
		ReadBy:    map[uuid.UUID]time.Time{},
		CreatedAt: now,
	}, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

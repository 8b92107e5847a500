package communication

import (
	"time"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/models"
)

// State is an immutable snapshot of the communication records. Maps inside a
// State are never written after the State is returned from Reduce, so a
// snapshot may be shared between readers without copying.
type State struct {
	Officers    map[uuid.UUID]models.Officer
	Tasks       map[uuid.UUID]models.Task
	Messages    map[uuid.UUID]models.Message
	Attachments map[uuid.UUID]models.Attachment
}

// EmptyState returns a State with no records.
func EmptyState() State {
	return State{
		Officers:    map[uuid.UUID]models.Officer{},
		Tasks:       map[uuid.UUID]models.Task{},
		Messages:    map[uuid.UUID]models.Message{},
		Attachments: map[uuid.UUID]models.Attachment{},
	}
}

// Action is a state transition applied by Reduce.
type Action interface {
	apply(State) (State, error)
}

// Reduce applies a to s and returns the next state. s is not modified.
func Reduce(s State, a Action) (State, error) {
	return a.apply(s)
}

// AddOfficer registers an officer. Officers are never removed.
type AddOfficer struct{ Officer models.Officer }

// SetOfficerStatus changes an officer's duty status.
type SetOfficerStatus struct {
	ID     uuid.UUID
	Status models.OfficerStatus
}

// SetOfficerPassword replaces an officer's password hash.
type SetOfficerPassword struct {
	ID   uuid.UUID
	Hash string
}

// CreateTask stores a new task.
type CreateTask struct{ Task models.Task }

// UpdateTask applies a partial update to a task.
type UpdateTask struct {
	ID     uuid.UUID
	Update models.TaskUpdate
	At     time.Time
}

// RemoveTask soft-removes a task.
type RemoveTask struct{ ID uuid.UUID }

// SendMessage stores a new message.
type SendMessage struct{ Message models.Message }

// MarkRead records that an officer read a message.
type MarkRead struct {
	ID      uuid.UUID
	Officer uuid.UUID
	At      time.Time
}

// RemoveMessage soft-removes a message.
type RemoveMessage struct{ ID uuid.UUID }

// AddAttachment stores attachment metadata.
type AddAttachment struct{ Attachment models.Attachment }

// RemoveAttachment soft-removes attachment metadata.
type RemoveAttachment struct{ ID uuid.UUID }

func (a AddOfficer) apply(s State) (State, error) {
	if a.Officer.ID == uuid.Nil {
		return s, validationError("officer id is required")
	}
	if _, exists := s.Officers[a.Officer.ID]; exists {
		return s, validationError("officer %s already exists", a.Officer.ID)
	}
	s.Officers = copyMap(s.Officers)
	s.Officers[a.Officer.ID] = a.Officer
	return s, nil
}

func (a SetOfficerStatus) apply(s State) (State, error) {
	o, ok := s.Officers[a.ID]
	if !ok {
		return s, notFound("officer", a.ID)
	}
	if !a.Status.Valid() {
		return s, validationError("unknown officer status %q", a.Status)
	}
	o.Status = a.Status
	s.Officers = copyMap(s.Officers)
	s.Officers[a.ID] = o
	return s, nil
}

func (a SetOfficerPassword) apply(s State) (State, error) {
	o, ok := s.Officers[a.ID]
	if !ok {
		return s, notFound("officer", a.ID)
	}
	o.PasswordHash = a.Hash
	s.Officers = copyMap(s.Officers)
	s.Officers[a.ID] = o
	return s, nil
}

func (a CreateTask) apply(s State) (State, error) {
	if _, ok := s.Officers[a.Task.AssignedTo]; !ok {
		return s, notFound("officer", a.Task.AssignedTo)
	}
	if _, ok := s.Officers[a.Task.AssignedBy]; !ok {
		return s, notFound("officer", a.Task.AssignedBy)
	}
	s.Tasks = copyMap(s.Tasks)
	s.Tasks[a.Task.ID] = a.Task
	return s, nil
}

func (a UpdateTask) apply(s State) (State, error) {
	t, ok := s.Tasks[a.ID]
	if !ok || t.Removed {
		return s, notFound("task", a.ID)
	}
	t, err := applyTaskUpdate(t, a.Update, a.At)
	if err != nil {
		return s, err
	}
	s.Tasks = copyMap(s.Tasks)
	s.Tasks[a.ID] = t
	return s, nil
}

func (a RemoveTask) apply(s State) (State, error) {
	t, ok := s.Tasks[a.ID]
	if !ok || t.Removed {
		return s, notFound("task", a.ID)
	}
	t.Removed = true
	s.Tasks = copyMap(s.Tasks)
	s.Tasks[a.ID] = t
	return s, nil
}

func (a SendMessage) apply(s State) (State, error) {
	if _, ok := s.Officers[a.Message.From]; !ok {
		return s, notFound("officer", a.Message.From)
	}
	for _, to := range a.Message.To {
		if _, ok := s.Officers[to]; !ok {
			return s, notFound("officer", to)
		}
	}
	s.Messages = copyMap(s.Messages)
	s.Messages[a.Message.ID] = cloneMessage(a.Message)
	return s, nil
}

func (a MarkRead) apply(s State) (State, error) {
	m, ok := s.Messages[a.ID]
	if !ok || m.Removed {
		return s, notFound("message", a.ID)
	}
	if !m.HasRecipient(a.Officer) {
		return s, ErrForbidden
	}
	if m.IsReadBy(a.Officer) {
		return s, nil
	}
	m = cloneMessage(m)
	m.ReadBy[a.Officer] = a.At
	s.Messages = copyMap(s.Messages)
	s.Messages[a.ID] = m
	return s, nil
}

func (a RemoveMessage) apply(s State) (State, error) {
	m, ok := s.Messages[a.ID]
	if !ok || m.Removed {
		return s, notFound("message", a.ID)
	}
	m = cloneMessage(m)
	m.Removed = true
	s.Messages = copyMap(s.Messages)
	s.Messages[a.ID] = m
	return s, nil
}

func (a AddAttachment) apply(s State) (State, error) {
	if _, ok := s.Officers[a.Attachment.UploadedBy]; !ok {
		return s, notFound("officer", a.Attachment.UploadedBy)
	}
	s.Attachments = copyMap(s.Attachments)
	s.Attachments[a.Attachment.ID] = a.Attachment
	return s, nil
}

func (a RemoveAttachment) apply(s State) (State, error) {
	att, ok := s.Attachments[a.ID]
	if !ok || att.Removed {
		return s, notFound("attachment", a.ID)
	}
	att.Removed = true
	s.Attachments = copyMap(s.Attachments)
	s.Attachments[a.ID] = att
	return s, nil
}

func applyTaskUpdate(t models.Task, u models.TaskUpdate, at time.Time) (models.Task, error) {
	if u.Title != nil {
		if *u.Title == "" {
			return t, validationError("task title cannot be empty")
		}
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		if !u.Priority.Valid() {
			return t, validationError("unknown priority %q", *u.Priority)
		}
		t.Priority = *u.Priority
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return t, validationError("unknown task status %q", *u.Status)
		}
		t.Status = *u.Status
	}
	if u.DueDate != nil {
		due := *u.DueDate
		t.DueDate = &due
	}
	t.UpdatedAt = at
	return t, nil
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMessage(m models.Message) models.Message {
	m.To = append([]uuid.UUID(nil), m.To...)
	readBy := make(map[uuid.UUID]time.Time, len(m.ReadBy))
	for k, v := range m.ReadBy {
		readBy[k] = v
	}
	m.ReadBy = readBy
	return m
}

package communication

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/models"
	"go.uber.org/zap"
)

// Notifier delivers a notification to one officer.
type Notifier interface {
	Notify(ctx context.Context, officerID uuid.UUID, kind, title, message string, data interface{}) error
}

// Publisher emits lifecycle events to other systems.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// AlertDispatcher forwards alert messages to officers' phones.
type AlertDispatcher interface {
	Enqueue(phone, text string) error
}

// Event subjects
const (
	SubjectTaskCreated    = "policedash.tasks.created"
	SubjectTaskUpdated    = "policedash.tasks.updated"
	SubjectTaskRemoved    = "policedash.tasks.removed"
	SubjectMessageSent    = "policedash.messages.sent"
	SubjectMessageRead    = "policedash.messages.read"
	SubjectMessageRemoved = "policedash.messages.removed"
)

// TaskBox selects which tasks of an officer to list.
type TaskBox string

const (
	TaskBoxAssigned TaskBox = "assigned"
	TaskBoxCreated  TaskBox = "created"
)

// Service implements the communication workflows on top of a Store.
type Service struct {
	store    Store
	notifier Notifier
	events   Publisher
	alerts   AlertDispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithNotifier sets the notifier used on assignment and delivery.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }

// WithAlertDispatcher sets the SMS dispatcher for alert messages.
func WithAlertDispatcher(d AlertDispatcher) Option { return func(s *Service) { s.alerts = d } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a communication service
func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// Seed adds the hierarchy's officers that are not yet stored. When
// passwordHash is non-empty it is set on officers that have none.
func (s *Service) Seed(ctx context.Context, passwordHash string) (int, error) {
	added := 0
	for _, o := range SeedOfficers(s.now()) {
		existing, err := s.store.GetOfficer(ctx, o.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			o.PasswordHash = passwordHash
			if err := s.store.AddOfficer(ctx, &o); err != nil {
				return added, fmt.Errorf("failed to seed officer %s: %w", o.BadgeNumber, err)
			}
			added++
		case err != nil:
			return added, fmt.Errorf("failed to look up officer %s: %w", o.BadgeNumber, err)
		case existing.PasswordHash == "" && passwordHash != "":
			if err := s.store.SetOfficerPassword(ctx, o.ID, passwordHash); err != nil {
				return added, fmt.Errorf("failed to set password for %s: %w", o.BadgeNumber, err)
			}
		}
	}
	s.logger.Info("officers seeded", zap.Int("added", added))
	return added, nil
}

// Officer fetches an officer by id.
func (s *Service) Officer(ctx context.Context, id uuid.UUID) (*models.Officer, error) {
	return s.store.GetOfficer(ctx, id)
}

// Visible reports whether viewer may see target. Officers always see
// themselves and everyone who outranks them; otherwise target must sit inside
// the viewer's scope.
func Visible(viewer, target models.Officer) bool {
	if viewer.ID == target.ID || viewer.Rank == jurisdiction.RoleDGP {
		return true
	}
	if rankOrder[target.Rank] < rankOrder[viewer.Rank] {
		return true
	}
	scope := jurisdiction.ScopeFor(viewer.Rank, viewer.Jurisdiction)
	if target.Rank == jurisdiction.RoleDIG {
		return viewer.Rank == jurisdiction.RoleDIG && scope.Range == jurisdiction.ScopeFor(target.Rank, target.Jurisdiction).Range
	}
	return scope.Contains(OfficerDistrict(target))
}

// ListOfficers lists officers visible to viewer.
func (s *Service) ListOfficers(ctx context.Context, viewer models.Officer, filter models.OfficerFilter) ([]models.Officer, error) {
	all, err := s.store.ListOfficers(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]models.Officer, 0, len(all))
	for _, o := range all {
		if Visible(viewer, o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// SetOfficerStatus changes duty status. Officers may change their own status;
// superiors may change it for officers in their scope.
func (s *Service) SetOfficerStatus(ctx context.Context, actor models.Officer, id uuid.UUID, status models.OfficerStatus) error {
	target, err := s.store.GetOfficer(ctx, id)
	if err != nil {
		return err
	}
	if target.ID != actor.ID && (!outranks(actor, *target) || !Visible(actor, *target)) {
		return ErrForbidden
	}
	return s.store.SetOfficerStatus(ctx, id, status)
}

// AssignTask creates a task from actor to a subordinate.
func (s *Service) AssignTask(ctx context.Context, actor models.Officer, in TaskInput) (*models.Task, error) {
	if actor.Rank == jurisdiction.RoleSDPO {
		return nil, fmt.Errorf("%w: SDPO officers cannot assign tasks", ErrForbidden)
	}

	task, err := NewTask(in, actor.ID, s.now())
	if err != nil {
		return nil, err
	}

	assignee, err := s.store.GetOfficer(ctx, task.AssignedTo)
	if err != nil {
		return nil, err
	}
	if !outranks(actor, *assignee) || !Visible(actor, *assignee) {
		return nil, fmt.Errorf("%w: %s is outside your command", ErrForbidden, assignee.Name)
	}
	if task.Jurisdiction == "" {
		task.Jurisdiction = OfficerDistrict(*assignee)
	}

	if err := s.store.CreateTask(ctx, &task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.notify(ctx, task.AssignedTo, "task_assigned", "New task: "+task.Title,
		fmt.Sprintf("%s assigned you a %s priority task", actor.Name, task.Priority), task)
	s.publish(ctx, SubjectTaskCreated, task)

	s.logger.Info("task assigned",
		zap.String("task_id", task.ID.String()),
		zap.String("assigned_by", actor.BadgeNumber),
		zap.String("assigned_to", assignee.BadgeNumber))
	return &task, nil
}

// UpdateTask applies update. The assigner may change any field; the assignee
// may only move the status.
func (s *Service) UpdateTask(ctx context.Context, actor models.Officer, id uuid.UUID, update models.TaskUpdate) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.ID {
	case task.AssignedBy:
	case task.AssignedTo:
		if update.Title != nil || update.Description != nil || update.Priority != nil || update.DueDate != nil {
			return nil, fmt.Errorf("%w: assignees may only update status", ErrForbidden)
		}
	default:
		return nil, ErrForbidden
	}

	updated, err := s.store.UpdateTask(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if update.Status != nil && *update.Status != task.Status {
		other := updated.AssignedBy
		if actor.ID == updated.AssignedBy {
			other = updated.AssignedTo
		}
		s.notify(ctx, other, "task_status", "Task "+string(updated.Status)+": "+updated.Title,
			fmt.Sprintf("%s moved the task to %s", actor.Name, updated.Status), updated)
	}
	s.publish(ctx, SubjectTaskUpdated, updated)
	return updated, nil
}

// RemoveTask soft-removes a task. Only the assigner or the DGP may remove it.
func (s *Service) RemoveTask(ctx context.Context, actor models.Officer, id uuid.UUID) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if actor.ID != task.AssignedBy && actor.Rank != jurisdiction.RoleDGP {
		return ErrForbidden
	}
	if err := s.store.RemoveTask(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, SubjectTaskRemoved, map[string]string{"id": id.String()})
	return nil
}

// ListTasks lists tasks assigned to or created by actor.
func (s *Service) ListTasks(ctx context.Context, actor models.Officer, box TaskBox, status models.TaskStatus) ([]models.Task, error) {
	filter := models.TaskFilter{Status: status}
	switch box {
	case TaskBoxCreated:
		filter.AssignedBy = actor.ID
	case TaskBoxAssigned, "":
		filter.AssignedTo = actor.ID
	default:
		return nil, validationError("unknown task box %q", box)
	}
	return s.store.ListTasks(ctx, filter)
}

// SendMessage delivers a message from actor to its recipients.
func (s *Service) SendMessage(ctx context.Context, actor models.Officer, in MessageInput) (*models.Message, error) {
	msg, err := NewMessage(in, actor.ID, s.now())
	if err != nil {
		return nil, err
	}

	recipients := make([]*models.Officer, 0, len(msg.To))
	for _, id := range msg.To {
		o, err := s.store.GetOfficer(ctx, id)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, o)
	}

	if err := s.store.SendMessage(ctx, &msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	for _, r := range recipients {
		s.notify(ctx, r.ID, "message", msg.Subject, "From "+actor.Name, map[string]string{"message_id": msg.ID.String()})
		if msg.Type == models.MessageAlert && s.alerts != nil && r.Phone != "" {
			if err := s.alerts.Enqueue(r.Phone, alertText(actor, msg)); err != nil {
				s.logger.Warn("failed to queue alert sms", zap.String("officer", r.BadgeNumber), zap.Error(err))
			}
		}
	}
	s.publish(ctx, SubjectMessageSent, msg)
	return &msg, nil
}

// ListMessages lists actor's inbox or sent messages.
func (s *Service) ListMessages(ctx context.Context, actor models.Officer, box models.MessageBox, unreadOnly bool) ([]models.Message, error) {
	switch box {
	case "":
		box = models.BoxInbox
	case models.BoxInbox, models.BoxSent:
	default:
		return nil, validationError("unknown message box %q", box)
	}
	return s.store.ListMessages(ctx, models.MessageFilter{Officer: actor.ID, Box: box, UnreadOnly: unreadOnly})
}

// Message fetches a message the actor sent or received.
func (s *Service) Message(ctx context.Context, actor models.Officer, id uuid.UUID) (*models.Message, error) {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.From != actor.ID && !msg.HasRecipient(actor.ID) {
		return nil, ErrForbidden
	}
	return msg, nil
}

// MarkRead marks a received message as read by actor.
func (s *Service) MarkRead(ctx context.Context, actor models.Officer, id uuid.UUID) error {
	if err := s.store.MarkRead(ctx, id, actor.ID); err != nil {
		return err
	}
	s.publish(ctx, SubjectMessageRead, map[string]string{"id": id.String(), "officer_id": actor.ID.String()})
	return nil
}

// RemoveMessage soft-removes a message. Only the sender may remove it.
func (s *Service) RemoveMessage(ctx context.Context, actor models.Officer, id uuid.UUID) error {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if msg.From != actor.ID {
		return ErrForbidden
	}
	if err := s.store.RemoveMessage(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, SubjectMessageRemoved, map[string]string{"id": id.String()})
	return nil
}

// UnreadCount counts unread inbox messages.
func (s *Service) UnreadCount(ctx context.Context, actor models.Officer) (int, error) {
	return s.store.UnreadCount(ctx, actor.ID)
}

// RecordAttachment stores metadata for an uploaded file.
func (s *Service) RecordAttachment(ctx context.Context, actor models.Officer, att *models.Attachment) error {
	att.UploadedBy = actor.ID
	if att.Jurisdiction == "" {
		att.Jurisdiction = OfficerDistrict(actor)
	}
	if att.TaskID != nil {
		if _, err := s.store.GetTask(ctx, *att.TaskID); err != nil {
			return err
		}
	}
	if att.MessageID != nil {
		if _, err := s.Message(ctx, actor, *att.MessageID); err != nil {
			return err
		}
	}
	return s.store.AddAttachment(ctx, att)
}

// Attachment returns attachment metadata the actor may read: their own
// uploads and uploads from inside their scope.
func (s *Service) Attachment(ctx context.Context, actor models.Officer, id uuid.UUID) (*models.Attachment, error) {
	att, err := s.store.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	if att.UploadedBy == actor.ID || actor.Rank == jurisdiction.RoleDGP {
		return att, nil
	}
	if att.Jurisdiction != "" && jurisdiction.ScopeFor(actor.Rank, actor.Jurisdiction).Contains(att.Jurisdiction) {
		return att, nil
	}
	return nil, ErrForbidden
}

// RemoveAttachment soft-removes an attachment the actor uploaded.
func (s *Service) RemoveAttachment(ctx context.Context, actor models.Officer, id uuid.UUID) (*models.Attachment, error) {
	att, err := s.store.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	if att.UploadedBy != actor.ID {
		return nil, ErrForbidden
	}
	if err := s.store.RemoveAttachment(ctx, id); err != nil {
		return nil, err
	}
	return att, nil
}

func (s *Service) notify(ctx context.Context, officer uuid.UUID, kind, title, message string, data interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, officer, kind, title, message, data); err != nil {
		s.logger.Warn("notification failed", zap.String("officer_id", officer.String()), zap.String("kind", kind), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, data); err != nil {
		s.logger.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

func outranks(a, b models.Officer) bool {
	return rankOrder[a.Rank] < rankOrder[b.Rank]
}

const maxAlertRunes = 160

// alertText fits a message into one SMS, counting characters rather than bytes.
func alertText(from models.Officer, msg models.Message) string {
	text := fmt.Sprintf("[%s] %s: %s", from.BadgeNumber, msg.Subject, msg.Content)
	if utf8.RuneCountInString(text) <= maxAlertRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxAlertRunes-3]) + "..."
}

package communication

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/models"
)

// Store persists officers, tasks, messages and attachment metadata.
type Store interface {
	AddOfficer(ctx context.Context, officer *models.Officer) error
	GetOfficer(ctx context.Context, id uuid.UUID) (*models.Officer, error)
	GetOfficerByBadge(ctx context.Context, badge string) (*models.Officer, error)
	ListOfficers(ctx context.Context, filter models.OfficerFilter) ([]models.Officer, error)
	SetOfficerStatus(ctx context.Context, id uuid.UUID, status models.OfficerStatus) error
	SetOfficerPassword(ctx context.Context, id uuid.UUID, hash string) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, update models.TaskUpdate) (*models.Task, error)
	RemoveTask(ctx context.Context, id uuid.UUID) error
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)

	SendMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	MarkRead(ctx context.Context, id, officer uuid.UUID) error
	RemoveMessage(ctx context.Context, id uuid.UUID) error
	ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, error)
	UnreadCount(ctx context.Context, officer uuid.UUID) (int, error)

	AddAttachment(ctx context.Context, att *models.Attachment) error
	GetAttachment(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	RemoveAttachment(ctx context.Context, id uuid.UUID) error

	Close() error
}

// MemoryStore keeps records in process. Every write runs Reduce over the
// current snapshot and swaps it in on success.
type MemoryStore struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: EmptyState(), now: time.Now}
}

// Snapshot returns the current state.
func (s *MemoryStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies an action to the current state.
func (s *MemoryStore) Dispatch(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.state, a)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) AddOfficer(_ context.Context, officer *models.Officer) error {
	return s.Dispatch(AddOfficer{Officer: *officer})
}

func (s *MemoryStore) GetOfficer(_ context.Context, id uuid.UUID) (*models.Officer, error) {
	o, ok := s.Snapshot().Officers[id]
	if !ok {
		return nil, notFound("officer", id)
	}
	return &o, nil
}

func (s *MemoryStore) GetOfficerByBadge(_ context.Context, badge string) (*models.Officer, error) {
	for _, o := range s.Snapshot().Officers {
		if o.BadgeNumber == badge {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListOfficers(_ context.Context, filter models.OfficerFilter) ([]models.Officer, error) {
	var out []models.Officer
	for _, o := range s.Snapshot().Officers {
		if MatchOfficer(o, filter) {
			out = append(out, o)
		}
	}
	SortOfficers(out)
	return out, nil
}

func (s *MemoryStore) SetOfficerStatus(_ context.Context, id uuid.UUID, status models.OfficerStatus) error {
	return s.Dispatch(SetOfficerStatus{ID: id, Status: status})
}

func (s *MemoryStore) SetOfficerPassword(_ context.Context, id uuid.UUID, hash string) error {
	return s.Dispatch(SetOfficerPassword{ID: id, Hash: hash})
}

func (s *MemoryStore) CreateTask(_ context.Context, task *models.Task) error {
	return s.Dispatch(CreateTask{Task: *task})
}

func (s *MemoryStore) GetTask(_ context.Context, id uuid.UUID) (*models.Task, error) {
	t, ok := s.Snapshot().Tasks[id]
	if !ok || t.Removed {
		return nil, notFound("task", id)
	}
	return &t, nil
}

func (s *MemoryStore) UpdateTask(ctx context.Context, id uuid.UUID, update models.TaskUpdate) (*models.Task, error) {
	if err := s.Dispatch(UpdateTask{ID: id, Update: update, At: s.now()}); err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

func (s *MemoryStore) RemoveTask(_ context.Context, id uuid.UUID) error {
	return s.Dispatch(RemoveTask{ID: id})
}

func (s *MemoryStore) ListTasks(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	for _, t := range s.Snapshot().Tasks {
		if !t.Removed && MatchTask(t, filter) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *MemoryStore) SendMessage(_ context.Context, msg *models.Message) error {
	return s.Dispatch(SendMessage{Message: *msg})
}

func (s *MemoryStore) GetMessage(_ context.Context, id uuid.UUID) (*models.Message, error) {
	m, ok := s.Snapshot().Messages[id]
	if !ok || m.Removed {
		return nil, notFound("message", id)
	}
	m = cloneMessage(m)
	return &m, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id, officer uuid.UUID) error {
	return s.Dispatch(MarkRead{ID: id, Officer: officer, At: s.now()})
}

func (s *MemoryStore) RemoveMessage(_ context.Context, id uuid.UUID) error {
	return s.Dispatch(RemoveMessage{ID: id})
}

func (s *MemoryStore) ListMessages(_ context.Context, filter models.MessageFilter) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.Snapshot().Messages {
		if !m.Removed && MatchMessage(m, filter) {
			out = append(out, cloneMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *MemoryStore) UnreadCount(ctx context.Context, officer uuid.UUID) (int, error) {
	msgs, err := s.ListMessages(ctx, models.MessageFilter{Officer: officer, Box: models.BoxInbox, UnreadOnly: true})
	if err != nil {
		return 0, err
	}
	return len(msgs), nil
}

func (s *MemoryStore) AddAttachment(_ context.Context, att *models.Attachment) error {
	return s.Dispatch(AddAttachment{Attachment: *att})
}

func (s *MemoryStore) GetAttachment(_ context.Context, id uuid.UUID) (*models.Attachment, error) {
	a, ok := s.Snapshot().Attachments[id]
	if !ok || a.Removed {
		return nil, notFound("attachment", id)
	}
	return &a, nil
}

func (s *MemoryStore) RemoveAttachment(_ context.Context, id uuid.UUID) error {
	return s.Dispatch(RemoveAttachment{ID: id})
}

// MatchOfficer reports whether o passes filter.
func MatchOfficer(o models.Officer, f models.OfficerFilter) bool {
	if f.Rank != "" && o.Rank != f.Rank {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if len(f.Districts) > 0 && !containsString(f.Districts, OfficerDistrict(o)) {
		return false
	}
	return true
}

// MatchTask reports whether t passes filter.
func MatchTask(t models.Task, f models.TaskFilter) bool {
	if f.AssignedTo != uuid.Nil && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.AssignedBy != uuid.Nil && t.AssignedBy != f.AssignedBy {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Jurisdiction != "" && t.Jurisdiction != f.Jurisdiction {
		return false
	}
	return true
}

// MatchMessage reports whether m passes filter. A zero Officer matches all
// messages; otherwise Box picks inbox (default) or sent.
func MatchMessage(m models.Message, f models.MessageFilter) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Officer == uuid.Nil {
		return true
	}
	if f.Box == models.BoxSent {
		return m.From == f.Officer
	}
	if !m.HasRecipient(f.Officer) {
		return false
	}
	if f.UnreadOnly && m.IsReadBy(f.Officer) {
		return false
	}
	return true
}

// OfficerDistrict is the canonical district or commissionerate an officer
// belongs to. DGP and DIG officers have none.
func OfficerDistrict(o models.Officer) string {
	switch o.Rank {
	case jurisdiction.RoleDGP, jurisdiction.RoleDIG:
		return ""
	}
	scope := jurisdiction.ScopeFor(o.Rank, o.Jurisdiction)
	if len(scope.Districts) == 0 {
		return ""
	}
	return scope.Districts[0]
}

var rankOrder = map[jurisdiction.Role]int{
	jurisdiction.RoleDGP:  0,
	jurisdiction.RoleDIG:  1,
	jurisdiction.RoleCP:   2,
	jurisdiction.RoleSP:   2,
	jurisdiction.RoleSDPO: 3,
}

// SortOfficers orders officers by rank, then name.
func SortOfficers(officers []models.Officer) {
	sort.Slice(officers, func(i, j int) bool {
		ri, rj := rankOrder[officers[i].Rank], rankOrder[officers[j].Rank]
		if ri != rj {
			return ri < rj
		}
		if officers[i].Name != officers[j].Name {
			return officers[i].Name < officers[j].Name
		}
		return officers[i].ID.String() < officers[j].ID.String()
	})
}

func newerFirst(a, b time.Time, aid, bid uuid.UUID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aid.String() < bid.String()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

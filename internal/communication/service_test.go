package communication

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/models"
)

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []uuid.UUID
	kinds []string
}

func (r *recordingNotifier) Notify(_ context.Context, officer uuid.UUID, kind, _, _ string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, officer)
	r.kinds = append(r.kinds, kind)
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

type recordingDispatcher struct {
	phones []string
}

func (r *recordingDispatcher) Enqueue(phone, _ string) error {
	r.phones = append(r.phones, phone)
	return nil
}

type fixture struct {
	svc       *Service
	notifier  *recordingNotifier
	publisher *recordingPublisher
	alerts    *recordingDispatcher
	byBadge   map[string]models.Officer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		alerts:    &recordingDispatcher{},
		byBadge:   map[string]models.Officer{},
	}
	clock := time.Unix(1700000000, 0)
	f.svc = NewService(NewMemoryStore(), nil,
		WithNotifier(f.notifier),
		WithPublisher(f.publisher),
		WithAlertDispatcher(f.alerts),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)

	added, err := f.svc.Seed(context.Background(), "")
	require.NoError(t, err)
	require.Greater(t, added, 0)

	all, err := f.svc.Store().ListOfficers(context.Background(), models.OfficerFilter{})
	require.NoError(t, err)
	for _, o := range all {
		f.byBadge[o.BadgeNumber] = o
	}
	return f
}

func (f *fixture) officer(t *testing.T, rank jurisdiction.Role, juris string) models.Officer {
	t.Helper()
	o, ok := f.byBadge[BadgeFor(rank, juris)]
	require.True(t, ok, "no seeded officer %s %s", rank, juris)
	return o
}

func TestSeed(t *testing.T) {
	f := newFixture(t)

	t.Run("should be idempotent", func(t *testing.T) {
		added, err := f.svc.Seed(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, 0, added)
	})

	t.Run("should seed one officer per post", func(t *testing.T) {
		dgps, err := f.svc.Store().ListOfficers(context.Background(), models.OfficerFilter{Rank: jurisdiction.RoleDGP})
		require.NoError(t, err)
		assert.Len(t, dgps, 1)

		digs, err := f.svc.Store().ListOfficers(context.Background(), models.OfficerFilter{Rank: jurisdiction.RoleDIG})
		require.NoError(t, err)
		assert.Len(t, digs, len(jurisdiction.Ranges()))
	})

	t.Run("should use stable ids", func(t *testing.T) {
		again := SeedOfficers(time.Now())
		first := SeedOfficers(time.Unix(0, 0))
		assert.Equal(t, first[0].ID, again[0].ID)
	})

	t.Run("should backfill passwords", func(t *testing.T) {
		_, err := f.svc.Seed(context.Background(), "hash")
		require.NoError(t, err)
		dgp := f.officer(t, jurisdiction.RoleDGP, StateName)
		stored, err := f.svc.Officer(context.Background(), dgp.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash", stored.PasswordHash)
	})
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp := f.officer(t, jurisdiction.RoleSP, "Nellore District")
	visible, err := f.svc.ListOfficers(ctx, sp, models.OfficerFilter{Rank: jurisdiction.RoleSDPO})
	require.NoError(t, err)

	names := make([]string, 0, len(visible))
	for _, o := range visible {
		names = append(names, o.Jurisdiction)
	}
	assert.Contains(t, names, "Kandukur")
	assert.NotContains(t, names, "Ongole")

	superiors, err := f.svc.ListOfficers(ctx, sp, models.OfficerFilter{Rank: jurisdiction.RoleDIG})
	require.NoError(t, err)
	assert.Len(t, superiors, len(jurisdiction.Ranges()))

	dig := f.officer(t, jurisdiction.RoleDIG, "Guntur Range")
	sps, err := f.svc.ListOfficers(ctx, dig, models.OfficerFilter{Rank: jurisdiction.RoleSP})
	require.NoError(t, err)
	assert.Len(t, sps, len(jurisdiction.Districts("Guntur Range")))
}

func TestAssignTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp := f.officer(t, jurisdiction.RoleSP, "Nellore District")
	sdpo := f.officer(t, jurisdiction.RoleSDPO, "Kandukur")
	otherSDPO := f.officer(t, jurisdiction.RoleSDPO, "Ongole")

	t.Run("should assign within command", func(t *testing.T) {
		task, err := f.svc.AssignTask(ctx, sp, TaskInput{Title: "Night patrol", AssignedTo: sdpo.ID, Priority: models.PriorityHigh})
		require.NoError(t, err)
		assert.Equal(t, "Nellore", task.Jurisdiction)
		assert.Equal(t, models.TaskPending, task.Status)
		assert.Contains(t, f.notifier.sent, sdpo.ID)
		assert.Contains(t, f.publisher.subjects, SubjectTaskCreated)
	})

	t.Run("should refuse outside command", func(t *testing.T) {
		_, err := f.svc.AssignTask(ctx, sp, TaskInput{Title: "x", AssignedTo: otherSDPO.ID})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("should refuse SDPO assigners", func(t *testing.T) {
		_, err := f.svc.AssignTask(ctx, sdpo, TaskInput{Title: "x", AssignedTo: sp.ID})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("should refuse upward assignment", func(t *testing.T) {
		dig := f.officer(t, jurisdiction.RoleDIG, "Guntur Range")
		_, err := f.svc.AssignTask(ctx, sp, TaskInput{Title: "x", AssignedTo: dig.ID})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp := f.officer(t, jurisdiction.RoleSP, "Eluru District")
	sdpo := f.officer(t, jurisdiction.RoleSDPO, "Nuzvid")

	task, err := f.svc.AssignTask(ctx, sp, TaskInput{Title: "Verify FIR backlog", AssignedTo: sdpo.ID})
	require.NoError(t, err)

	t.Run("assignee may move status", func(t *testing.T) {
		status := models.TaskInProgress
		updated, err := f.svc.UpdateTask(ctx, sdpo, task.ID, models.TaskUpdate{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, models.TaskInProgress, updated.Status)
		assert.Contains(t, f.notifier.kinds, "task_status")
	})

	t.Run("assignee may not retitle", func(t *testing.T) {
		title := "Something else"
		_, err := f.svc.UpdateTask(ctx, sdpo, task.ID, models.TaskUpdate{Title: &title})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("lists by box", func(t *testing.T) {
		assigned, err := f.svc.ListTasks(ctx, sdpo, TaskBoxAssigned, "")
		require.NoError(t, err)
		assert.Len(t, assigned, 1)

		created, err := f.svc.ListTasks(ctx, sp, TaskBoxCreated, models.TaskInProgress)
		require.NoError(t, err)
		assert.Len(t, created, 1)

		_, err = f.svc.ListTasks(ctx, sp, "everything", "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("only assigner removes", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.RemoveTask(ctx, sdpo, task.ID), ErrForbidden)
		require.NoError(t, f.svc.RemoveTask(ctx, sp, task.ID))

		assigned, err := f.svc.ListTasks(ctx, sdpo, TaskBoxAssigned, "")
		require.NoError(t, err)
		assert.Empty(t, assigned)
	})
}

func TestMessaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp := f.officer(t, jurisdiction.RoleSP, "Guntur District")
	dig := f.officer(t, jurisdiction.RoleDIG, "Guntur Range")

	first, err := f.svc.SendMessage(ctx, sp, MessageInput{To: []uuid.UUID{dig.ID}, Subject: "Report", Content: "Monthly figures"})
	require.NoError(t, err)
	second, err := f.svc.SendMessage(ctx, sp, MessageInput{To: []uuid.UUID{dig.ID}, Subject: "Follow-up", Content: "Details", Type: models.MessageReport})
	require.NoError(t, err)

	t.Run("inbox is newest first", func(t *testing.T) {
		inbox, err := f.svc.ListMessages(ctx, dig, models.BoxInbox, false)
		require.NoError(t, err)
		require.Len(t, inbox, 2)
		assert.Equal(t, second.ID, inbox[0].ID)
		assert.Equal(t, first.ID, inbox[1].ID)
	})

	t.Run("unread count drops after read", func(t *testing.T) {
		n, err := f.svc.UnreadCount(ctx, dig)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.NoError(t, f.svc.MarkRead(ctx, dig, first.ID))
		n, err = f.svc.UnreadCount(ctx, dig)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("sent box lists sender's messages", func(t *testing.T) {
		sent, err := f.svc.ListMessages(ctx, sp, models.BoxSent, false)
		require.NoError(t, err)
		assert.Len(t, sent, 2)
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		_, err := f.svc.SendMessage(ctx, sp, MessageInput{To: []uuid.UUID{dig.ID}, Content: "x"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects unknown recipient", func(t *testing.T) {
		_, err := f.svc.SendMessage(ctx, sp, MessageInput{To: []uuid.UUID{uuid.New()}, Subject: "s", Content: "c"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("only sender removes", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.RemoveMessage(ctx, dig, first.ID), ErrForbidden)
		require.NoError(t, f.svc.RemoveMessage(ctx, sp, first.ID))
		_, err := f.svc.Message(ctx, dig, first.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("outsiders cannot read", func(t *testing.T) {
		other := f.officer(t, jurisdiction.RoleSP, "Eluru District")
		_, err := f.svc.Message(ctx, other, second.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestAlertMessagesQueueSMS(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dgp := f.officer(t, jurisdiction.RoleDGP, StateName)
	sp := f.officer(t, jurisdiction.RoleSP, "Kurnool District")
	sp.Phone = "+919000000001"
	store := f.svc.Store().(*MemoryStore)
	state := store.Snapshot()
	state.Officers = copyMap(state.Officers)
	state.Officers[sp.ID] = sp
	store.state = state

	_, err := f.svc.SendMessage(ctx, dgp, MessageInput{To: []uuid.UUID{sp.ID}, Subject: "Flood", Content: "Move teams", Type: models.MessageAlert})
	require.NoError(t, err)
	assert.Equal(t, []string{"+919000000001"}, f.alerts.phones)
}

func TestAlertTextTruncatesOnCharacters(t *testing.T) {
	from := models.Officer{BadgeNumber: "DGP-ANDHRA-PRADESH"}

	short := alertText(from, models.Message{Subject: "Flood", Content: "Move teams"})
	assert.Equal(t, "[DGP-ANDHRA-PRADESH] Flood: Move teams", short)

	long := alertText(from, models.Message{
		Subject: "వరద హెచ్చరిక",
		Content: strings.Repeat("కృష్ణా నది ", 40),
	})
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, maxAlertRunes, utf8.RuneCountInString(long))
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestSetOfficerStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sp := f.officer(t, jurisdiction.RoleSP, "Bapatla District")
	sdpo := f.officer(t, jurisdiction.RoleSDPO, "Chirala")
	outsider := f.officer(t, jurisdiction.RoleSDPO, "Tenali")

	require.NoError(t, f.svc.SetOfficerStatus(ctx, sdpo, sdpo.ID, models.OfficerOnLeave))
	require.NoError(t, f.svc.SetOfficerStatus(ctx, sp, sdpo.ID, models.OfficerActive))
	assert.ErrorIs(t, f.svc.SetOfficerStatus(ctx, sdpo, sp.ID, models.OfficerOffDuty), ErrForbidden)
	assert.ErrorIs(t, f.svc.SetOfficerStatus(ctx, sp, outsider.ID, models.OfficerOffDuty), ErrForbidden)
	assert.ErrorIs(t, f.svc.SetOfficerStatus(ctx, sdpo, sdpo.ID, "vacation"), ErrValidation)
}

func TestAttachmentAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sdpo := f.officer(t, jurisdiction.RoleSDPO, "Kavali")
	sp := f.officer(t, jurisdiction.RoleSP, "Nellore District")
	outsider := f.officer(t, jurisdiction.RoleSP, "Prakasam District")

	att := &models.Attachment{ID: uuid.New(), Name: "scene.jpg", Size: 10, CreatedAt: time.Now()}
	require.NoError(t, f.svc.RecordAttachment(ctx, sdpo, att))
	assert.Equal(t, "Nellore", att.Jurisdiction)

	_, err := f.svc.Attachment(ctx, sp, att.ID)
	assert.NoError(t, err)
	_, err = f.svc.Attachment(ctx, outsider, att.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.RemoveAttachment(ctx, sp, att.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	removed, err := f.svc.RemoveAttachment(ctx, sdpo, att.ID)
	require.NoError(t, err)
	assert.Equal(t, "scene.jpg", removed.Name)
}

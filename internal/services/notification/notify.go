package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	historySize     = 100
	markReadRetries = 5
	subscriberSize  = 16
)

// ErrNotFound is returned when a notification is not in an officer's history.
var ErrNotFound = errors.New("notification not found")

// Service keeps per-officer notification history in Redis and fans new
// notifications out to live subscribers.
type Service struct {
	redis       *redis.Client
	logger      *zap.Logger
	subscribers map[uuid.UUID][]chan Notification
	mu          sync.RWMutex
	closed      bool
	now         func() time.Time
}

// Notification represents a notification message
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	OfficerID uuid.UUID       `json:"officer_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewRedisClient connects to the Redis instance at url.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// NewService creates a notification service. With a nil client only live
// delivery is available.
func NewService(rdb *redis.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		redis:       rdb,
		logger:      logger,
		subscribers: make(map[uuid.UUID][]chan Notification),
		now:         time.Now,
	}
}

func historyKey(officerID uuid.UUID) string {
	return "notifications:" + officerID.String()
}

// Subscribe registers a live feed for an officer. The returned cancel func
// unregisters and closes the channel; it is safe to call more than once.
func (s *Service) Subscribe(officerID uuid.UUID) (<-chan Notification, func()) {
	ch := make(chan Notification, subscriberSize)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[officerID] = append(s.subscribers[officerID], ch)
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			subs := s.subscribers[officerID]
			for i, sub := range subs {
				if sub == ch {
					s.subscribers[officerID] = append(subs[:i:i], subs[i+1:]...)
					close(ch)
					break
				}
			}
			if len(s.subscribers[officerID]) == 0 {
				delete(s.subscribers, officerID)
			}
		})
	}
	return ch, cancel
}

// Subscribers counts live feeds for an officer.
func (s *Service) Subscribers(officerID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers[officerID])
}

// Notify records a notification for an officer and delivers it to any live
// subscribers. Slow subscribers miss notifications rather than block.
func (s *Service) Notify(ctx context.Context, officerID uuid.UUID, kind, title, message string, data interface{}) error {
	var dataJSON json.RawMessage
	if data != nil {
		var err error
		dataJSON, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
	}

	n := Notification{
		ID:        uuid.New(),
		OfficerID: officerID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Data:      dataJSON,
		CreatedAt: s.now(),
	}

	var storeErr error
	if s.redis != nil {
		storeErr = s.store(ctx, n)
	}

	s.deliver(n)
	return storeErr
}

func (s *Service) store(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	key := historyKey(n.OfficerID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, historySize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (s *Service) deliver(n Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subscribers[n.OfficerID] {
		select {
		case ch <- n:
		default:
			s.logger.Debug("dropping notification for slow subscriber",
				zap.String("officer_id", n.OfficerID.String()),
				zap.String("type", n.Type))
		}
	}
}

// GetNotifications returns up to limit notifications, newest first. Without
// Redis there is no history and the result is empty.
func (s *Service) GetNotifications(ctx context.Context, officerID uuid.UUID, limit int) ([]Notification, error) {
	if s.redis == nil {
		return []Notification{}, nil
	}
	if limit <= 0 || limit > historySize {
		limit = historySize
	}

	data, err := s.redis.LRange(ctx, historyKey(officerID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	notifications := make([]Notification, 0, len(data))
	for _, item := range data {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			s.logger.Warn("skipping malformed notification", zap.String("officer_id", officerID.String()), zap.Error(err))
			continue
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MarkAsRead flags one stored notification as read. The list is watched so
// a concurrent Notify shifting indices aborts and retries the update.
func (s *Service) MarkAsRead(ctx context.Context, officerID, notificationID uuid.UUID) error {
	if s.redis == nil {
		return ErrNotFound
	}

	key := historyKey(officerID)
	for attempt := 0; attempt < markReadRetries; attempt++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			return markRead(ctx, tx, key, notificationID)
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update notification: %w", redis.TxFailedErr)
}

func markRead(ctx context.Context, tx *redis.Tx, key string, id uuid.UUID) error {
	data, err := tx.LRange(ctx, key, 0, historySize-1).Result()
	if err != nil {
		return fmt.Errorf("failed to get notifications: %w", err)
	}

	for i, item := range data {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil || n.ID != id {
			continue
		}
		if n.Read {
			return nil
		}
		n.Read = true
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to marshal notification: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LSet(ctx, key, int64(i), payload)
			return nil
		})
		return err
	}
	return ErrNotFound
}

// Close closes every live feed. Later subscriptions get a closed channel.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, subs := range s.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(s.subscribers, id)
	}
}

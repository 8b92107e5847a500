package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/terminal-bench/policedash/internal/config"
	"go.uber.org/zap"
)

var (
	ErrQueueFull     = errors.New("sms queue is full")
	ErrQueueClosed   = errors.New("sms queue is closed")
	ErrInvalidNumber = errors.New("invalid phone number")
)

// SMS is one outbound text message.
type SMS struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// SMSReceipt is the gateway's acknowledgement.
type SMSReceipt struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// SMSClient sends text messages through the SMS gateway.
type SMSClient struct {
	c *client
}

// NewSMSClient creates an SMS gateway client.
func NewSMSClient(cfg config.ExternalService, logger *zap.Logger) *SMSClient {
	return &SMSClient{c: newClient("sms", cfg, logger)}
}

// Send sends one message.
func (s *SMSClient) Send(ctx context.Context, msg SMS) (*SMSReceipt, error) {
	to, err := NormalizePhone(msg.To)
	if err != nil {
		return nil, err
	}
	msg.To = to
	var receipt SMSReceipt
	if err := s.c.do(ctx, http.MethodPost, "/sms/send", msg, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// NormalizePhone reduces a phone number to +91 followed by ten digits.
func NormalizePhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 12 && strings.HasPrefix(d, "91"):
		d = d[2:]
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		d = d[1:]
	}
	if len(d) != 10 || d[0] < '6' {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, phone)
	}
	return "+91" + d, nil
}

// SMSSender is satisfied by SMSClient.
type SMSSender interface {
	Send(ctx context.Context, msg SMS) (*SMSReceipt, error)
}

// SMSDispatcher queues messages and sends them from a single worker no
// faster than one per interval.
type SMSDispatcher struct {
	sender   SMSSender
	queue    chan SMS
	interval time.Duration
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewSMSDispatcher creates a dispatcher with room for size queued messages.
func NewSMSDispatcher(sender SMSSender, size int, interval time.Duration, logger *zap.Logger) *SMSDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = 256
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &SMSDispatcher{
		sender:   sender,
		queue:    make(chan SMS, size),
		interval: interval,
		logger:   logger,
	}
}

// Enqueue queues a message without blocking.
func (d *SMSDispatcher) Enqueue(phone, text string) error {
	to, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue <- SMS{To: to, Text: text}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending counts queued messages.
func (d *SMSDispatcher) Pending() int { return len(d.queue) }

// Run sends queued messages until ctx ends. Messages still queued at that
// point are dropped and logged.
func (d *SMSDispatcher) Run(ctx context.Context) error {
	defer d.close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-d.queue:
			sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := d.sender.Send(sendCtx, msg); err != nil && ctx.Err() == nil {
				d.logger.Warn("sms delivery failed", zap.String("to", maskPhone(msg.To)), zap.Error(err))
			}
			cancel()

			wait := time.NewTimer(d.interval)
			select {
			case <-wait.C:
			case <-ctx.Done():
				wait.Stop()
				return nil
			}
		}
	}
}

func (d *SMSDispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	if n := len(d.queue); n > 0 {
		d.logger.Warn("dropping queued sms on shutdown", zap.Int("pending", n))
	}
}

func maskPhone(p string) string {
	if len(p) <= 4 {
		return p
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}

package external

import (
	"context"
	"errors"
	"net/http"

	"github.com/terminal-bench/policedash/internal/config"
	"go.uber.org/zap"
)

// PushMessage is a notification for one or more devices.
type PushMessage struct {
	Tokens   []string          `json:"tokens"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Priority string            `json:"priority,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}

// PushResult reports per-batch delivery.
type PushResult struct {
	Success       int      `json:"success"`
	Failure       int      `json:"failure"`
	InvalidTokens []string `json:"invalid_tokens,omitempty"`
}

// PushClient sends mobile push notifications.
type PushClient struct {
	c *client
}

// NewPushClient creates a push client.
func NewPushClient(cfg config.ExternalService, logger *zap.Logger) *PushClient {
	return &PushClient{c: newClient("push", cfg, logger)}
}

// Send delivers msg to its device tokens.
func (p *PushClient) Send(ctx context.Context, msg PushMessage) (*PushResult, error) {
	if len(msg.Tokens) == 0 {
		return nil, errors.New("at least one device token is required")
	}
	if msg.Title == "" {
		return nil, errors.New("push title is required")
	}
	var res PushResult
	if err := p.c.do(ctx, http.MethodPost, "/push/send", msg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

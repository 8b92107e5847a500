package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/terminal-bench/policedash/internal/config"
	"github.com/terminal-bench/policedash/pkg/circuit"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by clients built without a base URL.
var ErrNotConfigured = errors.New("integration is not configured")

// APIError is a non-2xx reply from an integration.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
}

// Temporary reports whether retrying later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// client is the JSON-over-HTTP transport shared by the integrations.
type client struct {
	service string
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *zap.Logger
}

func newClient(service string, cfg config.ExternalService, logger *zap.Logger) *client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger = logger.With(zap.String("integration", service))
	return &client{
		service: service,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.NewBreaker(circuit.Config{
			Name:        service,
			MaxFailures: 5,
			Timeout:     30 * time.Second,
			HalfOpenMax: 1,
			OnStateChange: func(name string, from, to circuit.State) {
				logger.Warn("circuit state changed", zap.String("from", from.String()), zap.String("to", to.String()))
			},
		}),
		logger: logger,
	}
}

// do sends in (when non-nil) as JSON and decodes the reply into out (when
// non-nil). Only transport failures and temporary statuses count against
// the circuit breaker.
func (c *client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("%s: %w", c.service, ErrNotConfigured)
	}

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", c.service, err)
		}
	}

	var apiErr *APIError
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s request failed: %w", c.service, err)
		}
		defer resp.Body.Close()

		c.logger.Debug("integration call",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("took", time.Since(start)))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr = &APIError{Service: c.service, StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
			if apiErr.Temporary() {
				return apiErr
			}
			return nil
		}

		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", c.service, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if apiErr != nil {
		return apiErr
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}

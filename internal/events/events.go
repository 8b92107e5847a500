package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubjectPrefix roots every subject this service publishes on.
const SubjectPrefix = "policedash."

// Event is the envelope written to the bus.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Subject   string          `json:"subject"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data for subject.
func NewEvent(subject string, data interface{}, at time.Time) (Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal data: %w", err)
	}
	return Event{
		ID:        uuid.New(),
		Subject:   subject,
		Timestamp: at.UTC(),
		Source:    "policedash",
		Data:      payload,
	}, nil
}

// Nop discards events. Used when no bus is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }

func (Nop) Close() error { return nil }

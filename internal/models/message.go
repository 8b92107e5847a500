package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies a message
type MessageType string

const (
	MessageDirective MessageType = "directive"
	MessageReport    MessageType = "report"
	MessageAlert     MessageType = "alert"
	MessageGeneral   MessageType = "general"
)

// Valid reports whether t is a known message type
func (t MessageType) Valid() bool {
	switch t {
	case MessageDirective, MessageReport, MessageAlert, MessageGeneral:
		return true
	}
	return false
}

// Message is an internal communication between officers
type Message struct {
	ID        uuid.UUID               `json:"id" db:"id"`
	From      uuid.UUID               `json:"from" db:"sender_id"`
	To        []uuid.UUID             `json:"to" db:"-"`
	Subject   string                  `json:"subject" db:"subject"`
	Content   string                  `json:"content" db:"content"`
	Type      MessageType             `json:"type" db:"type"`
	Priority  Priority                `json:"priority" db:"priority"`
	ReadBy    map[uuid.UUID]time.Time `json:"read_by,omitempty" db:"-"`
	CreatedAt time.Time               `json:"created_at" db:"created_at"`
	Removed   bool                    `json:"-" db:"removed"`
}

// IsReadBy reports whether officer has read the message
func (m *Message) IsReadBy(officer uuid.UUID) bool {
	_, ok := m.ReadBy[officer]
	return ok
}

// HasRecipient reports whether officer is among the recipients
func (m *Message) HasRecipient(officer uuid.UUID) bool {
	for _, id := range m.To {
		if id == officer {
			return true
		}
	}
	return false
}

// MessageBox selects which side of the conversation to list
type MessageBox string

const (
	BoxInbox MessageBox = "inbox"
	BoxSent  MessageBox = "sent"
)

// MessageFilter narrows message listings
type MessageFilter struct {
	Officer    uuid.UUID
	Box        MessageBox
	UnreadOnly bool
	Type       MessageType
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is an uploaded file stored in object storage
type Attachment struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UploadedBy   uuid.UUID  `json:"uploaded_by" db:"uploaded_by"`
	Jurisdiction string     `json:"jurisdiction" db:"jurisdiction"`
	Name         string     `json:"name" db:"name"`
	Size         int64      `json:"size" db:"size"`
	MimeType     string     `json:"mime_type" db:"mime_type"`
	Checksum     string     `json:"checksum" db:"checksum"`
	StorageKey   string     `json:"-" db:"storage_key"`
	TaskID       *uuid.UUID `json:"task_id,omitempty" db:"task_id"`
	MessageID    *uuid.UUID `json:"message_id,omitempty" db:"message_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	Removed      bool       `json:"-" db:"removed"`
}

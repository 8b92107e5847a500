package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/models"
)

// AddAttachment inserts attachment metadata
func (r *PostgresStore) AddAttachment(ctx context.Context, a *models.Attachment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attachments (id, uploaded_by, jurisdiction, name, size, mime_type, checksum, storage_key, task_id, message_id, created_at, removed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.UploadedBy, a.Jurisdiction, a.Name, a.Size, a.MimeType, a.Checksum,
		a.StorageKey, a.TaskID, a.MessageID, a.CreatedAt, a.Removed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

// GetAttachment retrieves attachment metadata by ID
func (r *PostgresStore) GetAttachment(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	var a models.Attachment
	var taskID, messageID uuid.NullUUID
	err := r.db.QueryRowContext(ctx,
		`SELECT id, uploaded_by, jurisdiction, name, size, mime_type, checksum, storage_key, task_id, message_id, created_at, removed
		 FROM attachments WHERE id = $1 AND NOT removed`, id,
	).Scan(&a.ID, &a.UploadedBy, &a.Jurisdiction, &a.Name, &a.Size, &a.MimeType,
		&a.Checksum, &a.StorageKey, &taskID, &messageID, &a.CreatedAt, &a.Removed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attachment %s: %w", id, communication.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	if taskID.Valid {
		a.TaskID = &taskID.UUID
	}
	if messageID.Valid {
		a.MessageID = &messageID.UUID
	}
	return &a, nil
}

// RemoveAttachment soft deletes attachment metadata
func (r *PostgresStore) RemoveAttachment(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, "attachment", id, "UPDATE attachments SET removed = TRUE WHERE id = $1 AND NOT removed", id)
}

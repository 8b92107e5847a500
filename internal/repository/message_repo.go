package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/models"
)

// SendMessage inserts a message and its recipients in a single transaction
func (r *PostgresStore) SendMessage(ctx context.Context, m *models.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, subject, content, type, priority, created_at, removed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.From, m.Subject, m.Content, m.Type, m.Priority, m.CreatedAt, m.Removed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO message_recipients (message_id, officer_id, read_at) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, to := range m.To {
		var readAt *time.Time
		if at, ok := m.ReadBy[to]; ok {
			readAt = &at
		}
		if _, err := stmt.ExecContext(ctx, m.ID, to, readAt); err != nil {
			return fmt.Errorf("failed to insert recipient: %w", err)
		}
	}

	return tx.Commit()
}

// GetMessage retrieves a message with its recipients
func (r *PostgresStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var m models.Message
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sender_id, subject, content, type, priority, created_at, removed
		 FROM messages WHERE id = $1 AND NOT removed`, id,
	).Scan(&m.ID, &m.From, &m.Subject, &m.Content, &m.Type, &m.Priority, &m.CreatedAt, &m.Removed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("message %s: %w", id, communication.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	msgs := map[uuid.UUID]*models.Message{m.ID: &m}
	if err := r.loadRecipients(ctx, msgs); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresStore) loadRecipients(ctx context.Context, msgs map[uuid.UUID]*models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(msgs))
	for id, m := range msgs {
		ids = append(ids, id.String())
		m.To = nil
		m.ReadBy = map[uuid.UUID]time.Time{}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT message_id, officer_id, read_at FROM message_recipients
		 WHERE message_id = ANY($1::uuid[]) ORDER BY officer_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query recipients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msgID, officerID uuid.UUID
		var readAt sql.NullTime
		if err := rows.Scan(&msgID, &officerID, &readAt); err != nil {
			return fmt.Errorf("failed to scan recipient: %w", err)
		}
		m := msgs[msgID]
		m.To = append(m.To, officerID)
		if readAt.Valid {
			m.ReadBy[officerID] = readAt.Time
		}
	}
	return rows.Err()
}

// MarkRead sets the read time for a recipient if not already set
func (r *PostgresStore) MarkRead(ctx context.Context, id, officer uuid.UUID) error {
	var readAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT mr.read_at FROM message_recipients mr
		 JOIN messages m ON m.id = mr.message_id
		 WHERE mr.message_id = $1 AND mr.officer_id = $2 AND NOT m.removed`, id, officer,
	).Scan(&readAt)
	if err == sql.ErrNoRows {
		if _, getErr := r.GetMessage(ctx, id); getErr != nil {
			return getErr
		}
		return communication.ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}
	if readAt.Valid {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE message_recipients SET read_at = $1 WHERE message_id = $2 AND officer_id = $3 AND read_at IS NULL`,
		time.Now(), id, officer,
	)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// RemoveMessage soft deletes a message
func (r *PostgresStore) RemoveMessage(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, "message", id, "UPDATE messages SET removed = TRUE WHERE id = $1 AND NOT removed", id)
}

// ListMessages lists inbox or sent messages, newest first
func (r *PostgresStore) ListMessages(ctx context.Context, f models.MessageFilter) ([]models.Message, error) {
	query := `SELECT m.id, m.sender_id, m.subject, m.content, m.type, m.priority, m.created_at, m.removed
		FROM messages m WHERE NOT m.removed AND ($1 = '' OR m.type = $1)`
	args := []interface{}{string(f.Type)}

	switch {
	case f.Officer == uuid.Nil:
	case f.Box == models.BoxSent:
		query += ` AND m.sender_id = $2`
		args = append(args, f.Officer)
	case f.UnreadOnly:
		query += ` AND EXISTS (SELECT 1 FROM message_recipients mr WHERE mr.message_id = m.id AND mr.officer_id = $2 AND mr.read_at IS NULL)`
		args = append(args, f.Officer)
	default:
		query += ` AND EXISTS (SELECT 1 FROM message_recipients mr WHERE mr.message_id = m.id AND mr.officer_id = $2)`
		args = append(args, f.Officer)
	}
	query += ` ORDER BY m.created_at DESC, m.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var order []uuid.UUID
	byID := map[uuid.UUID]*models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.From, &m.Subject, &m.Content, &m.Type, &m.Priority, &m.CreatedAt, &m.Removed); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		order = append(order, m.ID)
		byID[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	rows.Close()

	if err := r.loadRecipients(ctx, byID); err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(order))
	for _, id := range order {
		msgs = append(msgs, *byID[id])
	}
	return msgs, nil
}

// UnreadCount counts unread messages addressed to officer
func (r *PostgresStore) UnreadCount(ctx context.Context, officer uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM message_recipients mr
		 JOIN messages m ON m.id = mr.message_id
		 WHERE mr.officer_id = $1 AND mr.read_at IS NULL AND NOT m.removed`, officer,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

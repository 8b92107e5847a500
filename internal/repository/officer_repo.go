package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/models"
)

const officerColumns = `id, name, rank, jurisdiction, badge_number, phone, email, status, password_hash, created_at`

func scanOfficer(row scanner) (*models.Officer, error) {
	var o models.Officer
	err := row.Scan(&o.ID, &o.Name, &o.Rank, &o.Jurisdiction, &o.BadgeNumber,
		&o.Phone, &o.Email, &o.Status, &o.PasswordHash, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// AddOfficer inserts an officer record
func (r *PostgresStore) AddOfficer(ctx context.Context, o *models.Officer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO officers (`+officerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.Name, o.Rank, o.Jurisdiction, o.BadgeNumber, o.Phone, o.Email, o.Status, o.PasswordHash, o.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: officer %s already exists", communication.ErrValidation, o.BadgeNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to insert officer: %w", err)
	}
	return nil
}

// GetOfficer retrieves an officer by ID
func (r *PostgresStore) GetOfficer(ctx context.Context, id uuid.UUID) (*models.Officer, error) {
	o, err := scanOfficer(r.db.QueryRowContext(ctx,
		`SELECT `+officerColumns+` FROM officers WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("officer %s: %w", id, communication.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get officer: %w", err)
	}
	return o, nil
}

// GetOfficerByBadge retrieves an officer by badge number
func (r *PostgresStore) GetOfficerByBadge(ctx context.Context, badge string) (*models.Officer, error) {
	o, err := scanOfficer(r.db.QueryRowContext(ctx,
		`SELECT `+officerColumns+` FROM officers WHERE badge_number = $1`, badge))
	if err == sql.ErrNoRows {
		return nil, communication.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get officer by badge: %w", err)
	}
	return o, nil
}

// ListOfficers lists officers matching filter. District filtering needs the
// jurisdiction resolver, so it runs after the query.
func (r *PostgresStore) ListOfficers(ctx context.Context, filter models.OfficerFilter) ([]models.Officer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+officerColumns+` FROM officers
		 WHERE ($1 = '' OR rank = $1) AND ($2 = '' OR status = $2)`,
		string(filter.Rank), string(filter.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query officers: %w", err)
	}
	defer rows.Close()

	var officers []models.Officer
	for rows.Next() {
		o, err := scanOfficer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan officer: %w", err)
		}
		if communication.MatchOfficer(*o, filter) {
			officers = append(officers, *o)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate officers: %w", err)
	}

	communication.SortOfficers(officers)
	return officers, nil
}

// SetOfficerStatus updates an officer's duty status
func (r *PostgresStore) SetOfficerStatus(ctx context.Context, id uuid.UUID, status models.OfficerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown officer status %q", communication.ErrValidation, status)
	}
	return execOne(ctx, r.db, "officer", id, "UPDATE officers SET status = $1 WHERE id = $2", status, id)
}

// SetOfficerPassword replaces an officer's password hash
func (r *PostgresStore) SetOfficerPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return execOne(ctx, r.db, "officer", id, "UPDATE officers SET password_hash = $1 WHERE id = $2", hash, id)
}

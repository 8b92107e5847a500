package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/models"
)

const taskColumns = `id, title, description, assigned_to, assigned_by, jurisdiction, priority, status, due_date, created_at, updated_at, removed`

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	var due sql.NullTime
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.AssignedTo, &t.AssignedBy,
		&t.Jurisdiction, &t.Priority, &t.Status, &due, &t.CreatedAt, &t.UpdatedAt, &t.Removed)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	return &t, nil
}

// CreateTask inserts a task record
func (r *PostgresStore) CreateTask(ctx context.Context, t *models.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.Title, t.Description, t.AssignedTo, t.AssignedBy, t.Jurisdiction,
		t.Priority, t.Status, t.DueDate, t.CreatedAt, t.UpdatedAt, t.Removed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID
func (r *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND NOT removed`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, communication.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update inside a transaction
func (r *PostgresStore) UpdateTask(ctx context.Context, id uuid.UUID, update models.TaskUpdate) (*models.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := scanTask(tx.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND NOT removed FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, communication.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	next, err := communication.Reduce(communication.State{
		Tasks: map[uuid.UUID]models.Task{id: *t},
	}, communication.UpdateTask{ID: id, Update: update, At: time.Now()})
	if err != nil {
		return nil, err
	}
	updated := next.Tasks[id]

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET title = $1, description = $2, priority = $3, status = $4, due_date = $5, updated_at = $6 WHERE id = $7`,
		updated.Title, updated.Description, updated.Priority, updated.Status, updated.DueDate, updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &updated, nil
}

// RemoveTask soft deletes a task
func (r *PostgresStore) RemoveTask(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, "task", id, "UPDATE tasks SET removed = TRUE, updated_at = $1 WHERE id = $2 AND NOT removed", time.Now(), id)
}

// ListTasks lists tasks matching filter, newest first
func (r *PostgresStore) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE NOT removed
		   AND ($1 = '00000000-0000-0000-0000-000000000000'::uuid OR assigned_to = $1)
		   AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR assigned_by = $2)
		   AND ($3 = '' OR status = $3)
		   AND ($4 = '' OR jurisdiction = $4)
		 ORDER BY created_at DESC, id`,
		f.AssignedTo, f.AssignedBy, string(f.Status), f.Jurisdiction,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

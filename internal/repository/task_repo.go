package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"crmserver/internal/model"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `id, customer_id, title, description, due_date, priority, status, source, completed_at, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }, t *model.Task) error {
	return row.Scan(
		&t.ID,
		&t.CustomerID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&t.Source,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
}

// Insert creates a task row.
func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.String("customer_id", t.CustomerID),
		zap.String("title", t.Title),
		zap.String("priority", t.Priority),
		zap.String("source", t.Source),
	)
	query := `
        INSERT INTO tasks (id, customer_id, title, description, due_date, priority, status, source, completed_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		t.ID,
		t.CustomerID,
		t.Title,
		t.Description,
		t.DueDate,
		t.Priority,
		t.Status,
		t.Source,
		t.CompletedAt,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.String("customer_id", t.CustomerID),
		)
		return err
	}
	r.logger.Info("Task inserted successfully",
		zap.String("task_id", t.ID),
		zap.String("customer_id", t.CustomerID),
	)
	return nil
}

// FindByID returns one task.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	var t model.Task
	if err := scanTask(r.db.QueryRow(ctx, query, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByCustomer returns all tasks for one customer.
func (r *TaskRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE customer_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListActive returns every non-completed task across all customers.
func (r *TaskRepository) ListActive(ctx context.Context) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status <> 'completed' ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update overwrites all mutable task fields.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
        UPDATE tasks
        SET title = $2, description = $3, due_date = $4, priority = $5, status = $6, completed_at = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	return r.db.QueryRow(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.DueDate,
		t.Priority,
		t.Status,
		t.CompletedAt,
	).Scan(&t.UpdatedAt)
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

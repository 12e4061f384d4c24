package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"crmserver/internal/model"
)

type MeetingRepository struct {
	db *pgxpool.Pool
}

func NewMeetingRepository(db *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Insert creates a meeting row.
func (r *MeetingRepository) Insert(ctx context.Context, m *model.Meeting) error {
	query := `
        INSERT INTO meetings (id, customer_id, title, occurred_at, attendees, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING created_at
    `
	return r.db.QueryRow(ctx, query,
		m.ID,
		m.CustomerID,
		m.Title,
		m.OccurredAt,
		m.Attendees,
		m.Notes,
	).Scan(&m.CreatedAt)
}

// FindByID returns one meeting.
func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*model.Meeting, error) {
	query := `
        SELECT id, customer_id, title, occurred_at, attendees, notes, created_at
        FROM meetings
        WHERE id = $1
    `
	var m model.Meeting
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.CustomerID,
		&m.Title,
		&m.OccurredAt,
		&m.Attendees,
		&m.Notes,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByCustomer returns a customer's meetings, most recent first.
func (r *MeetingRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Meeting, error) {
	query := `
        SELECT id, customer_id, title, occurred_at, attendees, notes, created_at
        FROM meetings
        WHERE customer_id = $1
        ORDER BY occurred_at DESC
    `
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := []model.Meeting{}
	for rows.Next() {
		var m model.Meeting
		if err := rows.Scan(
			&m.ID,
			&m.CustomerID,
			&m.Title,
			&m.OccurredAt,
			&m.Attendees,
			&m.Notes,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// Delete removes a meeting and its summary via FK cascade.
func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	return err
}

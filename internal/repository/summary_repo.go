package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"crmserver/internal/model"
)

type SummaryRepository struct {
	db *pgxpool.Pool
}

func NewSummaryRepository(db *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Upsert stores the summary for a meeting, replacing any earlier run.
func (r *SummaryRepository) Upsert(ctx context.Context, s *model.MeetingSummary) error {
	query := `
        INSERT INTO meeting_summaries (id, meeting_id, summary, findings, action_items, recommendations, next_steps, follow_up_draft, model, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        ON CONFLICT (meeting_id) DO UPDATE
        SET summary = EXCLUDED.summary,
            findings = EXCLUDED.findings,
            action_items = EXCLUDED.action_items,
            recommendations = EXCLUDED.recommendations,
            next_steps = EXCLUDED.next_steps,
            follow_up_draft = EXCLUDED.follow_up_draft,
            model = EXCLUDED.model,
            created_at = NOW()
        RETURNING created_at
    `
	return r.db.QueryRow(ctx, query,
		s.ID,
		s.MeetingID,
		s.Summary,
		s.Findings,
		s.ActionItems,
		s.Recommendations,
		s.NextSteps,
		s.FollowUpDraft,
		s.Model,
	).Scan(&s.CreatedAt)
}

// FindByMeetingID returns the stored summary for a meeting.
func (r *SummaryRepository) FindByMeetingID(ctx context.Context, meetingID string) (*model.MeetingSummary, error) {
	query := `
        SELECT id, meeting_id, summary, findings, action_items, recommendations, next_steps, follow_up_draft, model, created_at
        FROM meeting_summaries
        WHERE meeting_id = $1
    `
	var s model.MeetingSummary
	err := r.db.QueryRow(ctx, query, meetingID).Scan(
		&s.ID,
		&s.MeetingID,
		&s.Summary,
		&s.Findings,
		&s.ActionItems,
		&s.Recommendations,
		&s.NextSteps,
		&s.FollowUpDraft,
		&s.Model,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

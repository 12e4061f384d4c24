package model

import "time"

type Meeting struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
	Attendees  string    `json:"attendees,omitempty"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// MeetingSummary is the structured result produced by the AI summarizer.
type MeetingSummary struct {
	ID              string    `json:"id"`
	MeetingID       string    `json:"meeting_id"`
	Summary         string    `json:"summary"`
	Findings        []string  `json:"findings"`
	ActionItems     []string  `json:"action_items"`
	Recommendations []string  `json:"recommendations"`
	NextSteps       []string  `json:"next_steps"`
	FollowUpDraft   string    `json:"follow_up_draft"`
	Model           string    `json:"model"`
	CreatedAt       time.Time `json:"created_at"`
}

package mq

import "time"

// Routing keys on the crm.events exchange.
const (
	KeyMeetingSummarize = "meeting.summarize"
	KeyRenewalDue       = "renewal.due"
	KeyTaskOverdue      = "task.overdue"
)

// MeetingSummarizePayload carries one summarize request. EventID is
// minted per request so a repeated POST for the same meeting is a new
// event rather than a duplicate delivery.
type MeetingSummarizePayload struct {
	EventID    string `json:"event_id"`
	MeetingID  string `json:"meeting_id"`
	CustomerID string `json:"customer_id"`
	UserID     string `json:"user_id"`
}

type RenewalDuePayload struct {
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	RenewalDate  time.Time `json:"renewal_date"`
	Expired      bool      `json:"expired"`
}

type TaskOverduePayload struct {
	TaskID     string    `json:"task_id"`
	CustomerID string    `json:"customer_id"`
	Title      string    `json:"title"`
	DueDate    time.Time `json:"due_date"`
}

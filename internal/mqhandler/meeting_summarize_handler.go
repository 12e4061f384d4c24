package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crmserver/internal/model"
	"crmserver/internal/util"
	"crmserver/pkg/metrics"
	"crmserver/pkg/mq"
)

// Follow-up tasks created from one summary are capped so a chatty
// model cannot flood a customer's task list.
const maxFollowUpTasks = 5

const summarizeHandlerName = "meeting.summarize"

type MeetingStore interface {
	FindByID(ctx context.Context, id string) (*model.Meeting, error)
}

type CustomerStore interface {
	FindByID(ctx context.Context, id string) (*model.Customer, error)
}

type SummaryStore interface {
	Upsert(ctx context.Context, s *model.MeetingSummary) error
}

type TaskCreator interface {
	CreateTask(ctx context.Context, t *model.Task) error
}

type Summarizer interface {
	Summarize(ctx context.Context, meeting *model.Meeting, customer *model.Customer) (*model.MeetingSummary, error)
}

type MeetingSummarizeHandler struct {
	meetings   MeetingStore
	customers  CustomerStore
	summaries  SummaryStore
	tasks      TaskCreator
	summarizer Summarizer
	deduper    Deduper
	retries    RetryCounter
	logger     *zap.Logger
}

func NewMeetingSummarizeHandler(
	meetings MeetingStore,
	customers CustomerStore,
	summaries SummaryStore,
	tasks TaskCreator,
	summarizer Summarizer,
	deduper Deduper,
	retries RetryCounter,
	logger *zap.Logger,
) *MeetingSummarizeHandler {
	return &MeetingSummarizeHandler{
		meetings:   meetings,
		customers:  customers,
		summaries:  summaries,
		tasks:      tasks,
		summarizer: summarizer,
		deduper:    deduper,
		retries:    retries,
		logger:     logger,
	}
}

// HandleMeetingSummarize consumes a meeting.summarize event, runs the
// summarizer and stores the result. Dedup is keyed on the event id, so
// redeliveries of one request are collapsed while a fresh user request
// carries a fresh id and replaces the stored summary. Transient
// failures release the dedup key and requeue up to the retry budget;
// everything else is dead-lettered by the consumer.
func (h *MeetingSummarizeHandler) HandleMeetingSummarize(ctx context.Context, raw json.RawMessage) error {
	start := time.Now()
	defer func() {
		metrics.RecordMQConsumeLatency(mq.KeyMeetingSummarize, mq.KeyMeetingSummarize+".q", time.Since(start))
	}()

	var p mq.MeetingSummarizePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Malformed meeting.summarize payload",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		return fmt.Errorf("decode meeting.summarize payload: %w", err)
	}

	eventID := p.EventID
	if eventID == "" {
		// Older producers published without an event id.
		eventID = p.MeetingID
	}

	if !h.deduper.AcquireOnce(ctx, summarizeHandlerName, eventID) {
		h.logger.Info("Duplicate summarize delivery skipped",
			zap.String("event_id", eventID),
			zap.String("meeting_id", p.MeetingID),
		)
		return nil
	}

	if err := h.process(ctx, &p); err != nil {
		return handleFailure(ctx, summarizeHandlerName, eventID, err, h.deduper, h.retries, h.logger)
	}
	_ = h.retries.Reset(ctx, util.FormatRetryKey(summarizeHandlerName, eventID))
	return nil
}

func (h *MeetingSummarizeHandler) process(ctx context.Context, p *mq.MeetingSummarizePayload) error {
	meeting, err := h.meetings.FindByID(ctx, p.MeetingID)
	if err != nil {
		return fmt.Errorf("load meeting %s: %w", p.MeetingID, err)
	}
	customer, err := h.customers.FindByID(ctx, meeting.CustomerID)
	if err != nil {
		return fmt.Errorf("load customer %s: %w", meeting.CustomerID, err)
	}

	result, err := h.summarizer.Summarize(ctx, meeting, customer)
	if err != nil {
		return fmt.Errorf("summarize meeting %s: %w", meeting.ID, err)
	}

	if err := h.summaries.Upsert(ctx, result); err != nil {
		return fmt.Errorf("store summary for meeting %s: %w", meeting.ID, err)
	}

	h.createFollowUpTasks(ctx, customer, result)

	h.logger.Info("Meeting summary stored",
		zap.String("meeting_id", meeting.ID),
		zap.String("customer_id", customer.ID),
		zap.Int("action_items", len(result.ActionItems)),
		zap.String("model", result.Model),
	)
	return nil
}

// createFollowUpTasks turns the summary's action items into tasks.
// Failures here are logged but do not fail the message; the summary
// itself is already stored.
func (h *MeetingSummarizeHandler) createFollowUpTasks(ctx context.Context, customer *model.Customer, result *model.MeetingSummary) {
	priority := model.PriorityMedium
	if customer.IsAtRisk {
		priority = model.PriorityHigh
	}
	due := time.Now().AddDate(0, 0, 7)

	items := result.ActionItems
	if len(items) > maxFollowUpTasks {
		items = items[:maxFollowUpTasks]
	}

	for _, item := range items {
		task := &model.Task{
			CustomerID:  customer.ID,
			Title:       item,
			Description: fmt.Sprintf("From meeting summary (%s)", result.MeetingID),
			DueDate:     &due,
			Priority:    priority,
			Source:      model.TaskSourceAI,
		}
		if err := h.tasks.CreateTask(ctx, task); err != nil {
			h.logger.Error("Failed to create follow-up task",
				zap.String("customer_id", customer.ID),
				zap.String("title", item),
				zap.Error(err),
			)
		}
	}
}

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

const renewalHandlerName = "renewal.due"

type TaskLister interface {
	ListByCustomer(ctx context.Context, customerID string) ([]model.Task, error)
}

type RenewalDueHandler struct {
	tasks       TaskLister
	taskCreator TaskCreator
	deduper     Deduper
	retries     RetryCounter
	logger      *zap.Logger
}

func NewRenewalDueHandler(
	tasks TaskLister,
	taskCreator TaskCreator,
	deduper Deduper,
	retries RetryCounter,
	logger *zap.Logger,
) *RenewalDueHandler {
	return &RenewalDueHandler{
		tasks:       tasks,
		taskCreator: taskCreator,
		deduper:     deduper,
		retries:     retries,
		logger:      logger,
	}
}

// HandleRenewalDue turns a renewal.due event into a single follow-up
// task for the customer. The sweeper re-publishes on every cycle while
// the renewal stays in the window, so dedup is keyed on the renewal
// date and an existing open renewal task suppresses creation.
func (h *RenewalDueHandler) HandleRenewalDue(ctx context.Context, raw json.RawMessage) error {
	start := time.Now()
	defer func() {
		metrics.RecordMQConsumeLatency(mq.KeyRenewalDue, mq.KeyRenewalDue+".q", time.Since(start))
	}()

	var p mq.RenewalDuePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Malformed renewal.due payload",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		return fmt.Errorf("decode renewal.due payload: %w", err)
	}

	eventKey := fmt.Sprintf("%s:%s", p.CustomerID, p.RenewalDate.Format("2006-01-02"))
	if !h.deduper.AcquireOnce(ctx, renewalHandlerName, eventKey) {
		return nil
	}

	if err := h.process(ctx, &p); err != nil {
		return handleFailure(ctx, renewalHandlerName, eventKey, err, h.deduper, h.retries, h.logger)
	}
	_ = h.retries.Reset(ctx, util.FormatRetryKey(renewalHandlerName, eventKey))
	return nil
}

func (h *RenewalDueHandler) process(ctx context.Context, p *mq.RenewalDuePayload) error {
	tasks, err := h.tasks.ListByCustomer(ctx, p.CustomerID)
	if err != nil {
		return fmt.Errorf("list tasks for customer %s: %w", p.CustomerID, err)
	}
	for i := range tasks {
		if tasks[i].Active() && tasks[i].Source == model.TaskSourceRenewal {
			h.logger.Debug("Open renewal task already exists",
				zap.String("customer_id", p.CustomerID),
				zap.String("task_id", tasks[i].ID),
			)
			return nil
		}
	}

	title := fmt.Sprintf("Prepare renewal for %s", p.CustomerName)
	priority := model.PriorityMedium
	if p.Expired {
		title = fmt.Sprintf("Renewal overdue for %s", p.CustomerName)
		priority = model.PriorityHigh
	}

	due := p.RenewalDate
	if p.Expired {
		due = time.Now().AddDate(0, 0, 3)
	}

	task := &model.Task{
		CustomerID:  p.CustomerID,
		Title:       title,
		Description: fmt.Sprintf("Contract renewal date: %s", p.RenewalDate.Format("2006-01-02")),
		DueDate:     &due,
		Priority:    priority,
		Source:      model.TaskSourceRenewal,
	}
	if err := h.taskCreator.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("create renewal task for customer %s: %w", p.CustomerID, err)
	}

	h.logger.Info("Renewal follow-up task created",
		zap.String("customer_id", p.CustomerID),
		zap.String("task_id", task.ID),
		zap.Bool("expired", p.Expired),
	)
	return nil
}

package mqhandler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"crmserver/internal/model"
	"crmserver/pkg/mq"
)

type fakeTaskLister struct {
	tasks []model.Task
}

func (f *fakeTaskLister) ListByCustomer(_ context.Context, customerID string) ([]model.Task, error) {
	out := []model.Task{}
	for _, t := range f.tasks {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func renewalEvent(t *testing.T, expired bool) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(mq.RenewalDuePayload{
		CustomerID:   "c-1",
		CustomerName: "Globex",
		RenewalDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		Expired:      expired,
	})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestHandleRenewalDueCreatesTask(t *testing.T) {
	lister := &fakeTaskLister{}
	creator := &fakeTaskCreator{}
	h := NewRenewalDueHandler(lister, creator, newFakeDeduper(), newFakeRetryCounter(), zap.NewNop())

	if err := h.HandleRenewalDue(context.Background(), renewalEvent(t, false)); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if len(creator.created) != 1 {
		t.Fatalf("created %d tasks, want 1", len(creator.created))
	}
	task := creator.created[0]
	if task.Source != model.TaskSourceRenewal {
		t.Errorf("source = %q, want renewal", task.Source)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("priority = %q, want medium", task.Priority)
	}
	if task.Title != "Prepare renewal for Globex" {
		t.Errorf("title = %q", task.Title)
	}
}

func TestHandleRenewalDueExpiredEscalates(t *testing.T) {
	creator := &fakeTaskCreator{}
	h := NewRenewalDueHandler(&fakeTaskLister{}, creator, newFakeDeduper(), newFakeRetryCounter(), zap.NewNop())

	if err := h.HandleRenewalDue(context.Background(), renewalEvent(t, true)); err != nil {
		t.Fatal(err)
	}

	if len(creator.created) != 1 {
		t.Fatalf("created %d tasks, want 1", len(creator.created))
	}
	task := creator.created[0]
	if task.Priority != model.PriorityHigh {
		t.Errorf("expired renewal: priority = %q, want high", task.Priority)
	}
	if task.Title != "Renewal overdue for Globex" {
		t.Errorf("title = %q", task.Title)
	}
}

func TestHandleRenewalDueOpenTaskSuppressesCreation(t *testing.T) {
	lister := &fakeTaskLister{tasks: []model.Task{
		{ID: "t-1", CustomerID: "c-1", Status: model.StatusPending, Source: model.TaskSourceRenewal},
	}}
	creator := &fakeTaskCreator{}
	h := NewRenewalDueHandler(lister, creator, newFakeDeduper(), newFakeRetryCounter(), zap.NewNop())

	if err := h.HandleRenewalDue(context.Background(), renewalEvent(t, false)); err != nil {
		t.Fatal(err)
	}
	if len(creator.created) != 0 {
		t.Errorf("open renewal task present, created %d tasks, want 0", len(creator.created))
	}
}

func TestHandleRenewalDueDuplicateDelivery(t *testing.T) {
	creator := &fakeTaskCreator{}
	h := NewRenewalDueHandler(&fakeTaskLister{}, creator, newFakeDeduper(), newFakeRetryCounter(), zap.NewNop())
	ctx := context.Background()

	if err := h.HandleRenewalDue(ctx, renewalEvent(t, false)); err != nil {
		t.Fatal(err)
	}
	if err := h.HandleRenewalDue(ctx, renewalEvent(t, false)); err != nil {
		t.Fatal(err)
	}

	if len(creator.created) != 1 {
		t.Errorf("created %d tasks for the same renewal, want 1", len(creator.created))
	}
}

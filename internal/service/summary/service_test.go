package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"crmserver/config"
	"crmserver/internal/model"
)

func TestParseSummary(t *testing.T) {
	plain := `{"summary":"Quarterly review went well.","findings":["usage up 20%"],"action_items":["Send pricing sheet"],"recommendations":["Upsell the analytics tier"],"next_steps":["Book follow-up call"],"follow_up_draft":"Hi team, thanks for meeting."}`

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain json", plain, false},
		{"fenced json", "```json\n" + plain + "\n```", false},
		{"bare fence", "```\n" + plain + "\n```", false},
		{"invalid json", "the meeting went well", true},
		{"empty summary", `{"summary":"","findings":[]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSummary(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSummary() error = %v", err)
			}
			if got.Summary != "Quarterly review went well." {
				t.Errorf("summary = %q", got.Summary)
			}
			if len(got.ActionItems) != 1 || got.ActionItems[0] != "Send pricing sheet" {
				t.Errorf("action_items = %v", got.ActionItems)
			}
		})
	}
}

func testMeeting() (*model.Meeting, *model.Customer) {
	meeting := &model.Meeting{
		ID:         "m-1",
		CustomerID: "c-1",
		Title:      "Q3 business review",
		Notes:      "Discussed adoption blockers and the renewal timeline.",
		OccurredAt: time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC),
	}
	customer := &model.Customer{ID: "c-1", Name: "Globex"}
	return meeting, customer
}

func TestSummarizeSuccess(t *testing.T) {
	content := `{"summary":"Renewal is on track.","next_steps":["Share the proposal"],"follow_up_draft":"Hi Globex,"}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}

		var req struct {
			Messages []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("got %d messages, want 2", len(req.Messages))
		}
		if !strings.Contains(req.Messages[1]["content"], "Globex") {
			t.Error("user prompt must name the customer")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	defer srv.Close()

	svc := NewService(config.AIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "gpt-4o-mini"}, zap.NewNop())
	meeting, customer := testMeeting()

	got, err := svc.Summarize(context.Background(), meeting, customer)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.Summary != "Renewal is on track." {
		t.Errorf("summary = %q", got.Summary)
	}
	if got.MeetingID != meeting.ID {
		t.Errorf("meeting_id = %q, want %q", got.MeetingID, meeting.ID)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", got.Model)
	}
	if got.ID == "" {
		t.Error("expected id to be assigned")
	}
}

func TestSummarizeFallsBackOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewService(config.AIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "gpt-4o-mini"}, zap.NewNop())
	meeting, customer := testMeeting()

	got, err := svc.Summarize(context.Background(), meeting, customer)
	if err != nil {
		t.Fatalf("Summarize() must not fail when the fallback applies, got %v", err)
	}
	if got.Model != "fallback" {
		t.Errorf("model = %q, want fallback", got.Model)
	}
	if got.MeetingID != meeting.ID {
		t.Errorf("meeting_id = %q", got.MeetingID)
	}
	if !strings.Contains(got.Summary, "Globex") {
		t.Errorf("fallback summary should mention the customer, got %q", got.Summary)
	}
}

func TestSummarizeFallsBackOnMalformedAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "sure, here is the summary!"}},
			},
		})
	}))
	defer srv.Close()

	svc := NewService(config.AIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}, zap.NewNop())
	meeting, customer := testMeeting()

	got, err := svc.Summarize(context.Background(), meeting, customer)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.Model != "fallback" {
		t.Errorf("model = %q, want fallback", got.Model)
	}
}

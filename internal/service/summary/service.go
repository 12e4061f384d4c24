package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crmserver/config"
	"crmserver/internal/model"
	"crmserver/pkg/circuitbreaker"
	"crmserver/pkg/metrics"
)

const systemPrompt = `You are a meeting-notes assistant for a consulting team.
Summarize the meeting notes for the given customer. Return ONLY a JSON object:
{"summary":"...","findings":["..."],"action_items":["..."],"recommendations":["..."],"next_steps":["..."],"follow_up_draft":"..."}
Action items must be short imperative sentences. The follow_up_draft is a
ready-to-send message to the customer contact. Return only JSON, no markdown.`

// Service calls an OpenAI-compatible chat completions endpoint and
// turns meeting notes into a structured summary.
type Service struct {
	cfg    config.AIConfig
	client *http.Client
	cb     *circuitbreaker.CircuitBreaker
	logger *zap.Logger
}

func NewService(cfg config.AIConfig, logger *zap.Logger) *Service {
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}

	return &Service{
		cfg: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		cb:     circuitbreaker.NewCircuitBreaker(cbConfig),
		logger: logger,
	}
}

// Summarize produces a structured summary for the meeting. When the
// provider is unavailable (including an open breaker) it returns a
// deterministic fallback so the pipeline keeps moving.
func (s *Service) Summarize(ctx context.Context, meeting *model.Meeting, customer *model.Customer) (*model.MeetingSummary, error) {
	var result *model.MeetingSummary

	err := s.cb.Execute(func() error {
		start := time.Now()
		content, callErr := s.chat(ctx, systemPrompt, s.userPrompt(meeting, customer))
		if callErr != nil {
			metrics.RecordSummaryCallLatency("error", time.Since(start))
			return callErr
		}
		metrics.RecordSummaryCallLatency("success", time.Since(start))

		parsed, parseErr := parseSummary(content)
		if parseErr != nil {
			return parseErr
		}
		result = parsed
		return nil
	})

	if err != nil {
		s.logger.Warn("Summarization failed, using fallback",
			zap.String("meeting_id", meeting.ID),
			zap.Error(err),
		)
		metrics.IncrementSummaryGenerated("fallback")
		return s.fallback(meeting, customer), nil
	}

	result.ID = uuid.NewString()
	result.MeetingID = meeting.ID
	result.Model = s.cfg.Model
	metrics.IncrementSummaryGenerated("success")
	return result, nil
}

func (s *Service) userPrompt(meeting *model.Meeting, customer *model.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s\n", customer.Name)
	if customer.IsAtRisk {
		b.WriteString("The customer is currently flagged at-risk.\n")
	}
	if customer.Notes != "" {
		fmt.Fprintf(&b, "Account notes: %s\n", customer.Notes)
	}
	fmt.Fprintf(&b, "Meeting: %s (%s)\n", meeting.Title, meeting.OccurredAt.Format("2006-01-02"))
	if meeting.Attendees != "" {
		fmt.Fprintf(&b, "Attendees: %s\n", meeting.Attendees)
	}
	fmt.Fprintf(&b, "Notes:\n%s\n", meeting.Notes)
	return b.String()
}

func (s *Service) chat(ctx context.Context, system, user string) (string, error) {
	body := map[string]interface{}{
		"model":  s.cfg.Model,
		"stream": false,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, data)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return result.Choices[0].Message.Content, nil
}

// parseSummary decodes the model's JSON answer, tolerating markdown
// code fences some models wrap around it.
func parseSummary(content string) (*model.MeetingSummary, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var parsed struct {
		Summary         string   `json:"summary"`
		Findings        []string `json:"findings"`
		ActionItems     []string `json:"action_items"`
		Recommendations []string `json:"recommendations"`
		NextSteps       []string `json:"next_steps"`
		FollowUpDraft   string   `json:"follow_up_draft"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse summary: %w", err)
	}
	if parsed.Summary == "" {
		return nil, fmt.Errorf("parse summary: empty summary field")
	}

	return &model.MeetingSummary{
		Summary:         parsed.Summary,
		Findings:        parsed.Findings,
		ActionItems:     parsed.ActionItems,
		Recommendations: parsed.Recommendations,
		NextSteps:       parsed.NextSteps,
		FollowUpDraft:   parsed.FollowUpDraft,
	}, nil
}

// fallback builds a minimal summary straight from the notes.
func (s *Service) fallback(meeting *model.Meeting, customer *model.Customer) *model.MeetingSummary {
	excerpt := meeting.Notes
	if len(excerpt) > 500 {
		excerpt = excerpt[:500] + "..."
	}

	return &model.MeetingSummary{
		ID:        uuid.NewString(),
		MeetingID: meeting.ID,
		Summary:   fmt.Sprintf("Meeting %q with %s. Automatic summary unavailable; raw notes excerpt: %s", meeting.Title, customer.Name, excerpt),
		NextSteps: []string{"Review the meeting notes manually"},
		FollowUpDraft: fmt.Sprintf("Hi %s team,\n\nThank you for your time in %q. We will follow up with a detailed summary shortly.\n",
			customer.Name, meeting.Title),
		Model: "fallback",
	}
}

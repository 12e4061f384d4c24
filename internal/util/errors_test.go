package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func jsonError() error {
	var v struct{ N int }
	return json.Unmarshal([]byte("not json"), &v)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRetryable bool
		wantType      string
	}{
		{"nil", nil, false, ""},
		{"json syntax error", jsonError(), false, "json_decode_error"},
		{"wrapped json error", fmt.Errorf("decode payload: %w", jsonError()), false, "json_decode_error"},
		{"row not found", fmt.Errorf("load meeting m1: %w", pgx.ErrNoRows), false, "not_found"},
		{"duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint`), false, "duplicate_key"},
		{"connection refused", errors.New("dial tcp: connection refused"), true, "connection_error"},
		{"deadline exceeded", context.DeadlineExceeded, true, "timeout"},
		{"context canceled", context.Canceled, false, "context_canceled"},
		{"retries exhausted", fmt.Errorf("%w for event e1: boom", ErrRetriesExhausted), false, "retries_exhausted"},
		{"unknown", errors.New("something odd"), false, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, errType := IsRetryableError(tt.err)
			if retryable != tt.wantRetryable {
				t.Errorf("retryable = %v, want %v", retryable, tt.wantRetryable)
			}
			if errType != tt.wantType {
				t.Errorf("type = %q, want %q", errType, tt.wantType)
			}
		})
	}
}

func TestFormatRetryKey(t *testing.T) {
	if got := FormatRetryKey("meeting.summarize", "ev-1"); got != "retry:meeting.summarize:ev-1" {
		t.Errorf("FormatRetryKey() = %q", got)
	}
}

package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrRetriesExhausted marks a failure that already consumed its retry
// budget. The consumer treats it as non-retryable and dead-letters the
// message.
var ErrRetriesExhausted = errors.New("retries exhausted")

// IsRetryableError classifies a handler error.
// Returns: (isRetryable, errorType). Retryable errors are nacked back
// onto the queue; everything else is dead-lettered.
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	if errors.Is(err, ErrRetriesExhausted) {
		return false, "retries_exhausted"
	}

	// JSON decode errors: the payload itself is broken, redelivery
	// cannot fix it.
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return false, "json_decode_error"
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	// Referenced row is gone, redelivery cannot fix it either.
	if errors.Is(err, pgx.ErrNoRows) {
		return false, "not_found"
	}

	errStr := err.Error()
	if strings.Contains(errStr, "duplicate key") {
		return false, "duplicate_key"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return true, "connection_error"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true, "network_error"
	}

	// Unknown errors are not retried; a redelivery loop is worse than
	// a dead-lettered message.
	return false, "unknown_error"
}

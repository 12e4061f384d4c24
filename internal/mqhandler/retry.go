package mqhandler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"crmserver/internal/util"
)

// Handlers retry transient failures this many times before the
// message is dead-lettered.
const maxRetries = 5

// Deduper collapses duplicate deliveries of the same event.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, key string) bool
	Release(ctx context.Context, handler, key string)
}

// RetryCounter tracks delivery attempts per event across redeliveries.
type RetryCounter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// handleFailure decides what a failed event does next. Retryable
// errors under the budget release the dedup key and requeue; anything
// else comes back wrapped so the consumer dead-letters it.
func handleFailure(ctx context.Context, handler, eventID string, err error, deduper Deduper, retries RetryCounter, logger *zap.Logger) error {
	retryable, errType := util.IsRetryableError(err)
	if !retryable {
		logger.Error("Giving up on event",
			zap.String("handler", handler),
			zap.String("event_id", eventID),
			zap.String("error_type", errType),
			zap.Error(err),
		)
		return err
	}

	retryKey := util.FormatRetryKey(handler, eventID)
	count, cerr := retries.IncrementAndGet(ctx, retryKey)
	if cerr != nil {
		logger.Warn("Failed to read retry count, assuming first attempt",
			zap.String("handler", handler),
			zap.Error(cerr),
		)
		count = 1
	}

	if count > maxRetries {
		_ = retries.Reset(ctx, retryKey)
		logger.Error("Retry budget exhausted, dead-lettering event",
			zap.String("handler", handler),
			zap.String("event_id", eventID),
			zap.Int64("attempts", count),
			zap.Error(err),
		)
		return fmt.Errorf("%w for %s event %s: %v", util.ErrRetriesExhausted, handler, eventID, err)
	}

	// The redelivery must get past the dedup check.
	deduper.Release(ctx, handler, eventID)
	logger.Warn("Retryable failure, requeueing event",
		zap.String("handler", handler),
		zap.String("event_id", eventID),
		zap.Int64("attempt", count),
		zap.String("error_type", errType),
		zap.Error(err),
	)
	return err
}

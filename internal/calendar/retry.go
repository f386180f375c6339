package calendar

import (
	"context"
	"time"

	"github.com/opencourt/receptionist/internal/schedule"
	"github.com/opencourt/receptionist/pkg/logging"
)

// RetryGateway retries reads with exponential backoff. Event creation is
// NOT retried: the provider offers no idempotency key, so a retry after an
// ambiguous failure could double-book the remote calendar.
type RetryGateway struct {
	inner       Gateway
	maxAttempts int
	baseDelay   time.Duration
	logger      *logging.Logger
}

// NewRetryGateway wraps inner with bounded retries for busy-interval reads.
func NewRetryGateway(inner Gateway, maxAttempts int, baseDelay time.Duration, logger *logging.Logger) *RetryGateway {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetryGateway{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay, logger: logger}
}

func (r *RetryGateway) GetBusyIntervals(ctx context.Context, resourceKey string, windowStart, windowEnd time.Time) ([]schedule.Slot, error) {
	var lastErr error
	delay := r.baseDelay
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		busy, err := r.inner.GetBusyIntervals(ctx, resourceKey, windowStart, windowEnd)
		if err == nil {
			return busy, nil
		}
		lastErr = err
		if attempt == r.maxAttempts {
			break
		}
		r.logger.Warn("calendar busy query failed, retrying",
			"attempt", attempt,
			"resource_key", resourceKey,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

func (r *RetryGateway) CreateEvent(ctx context.Context, ev Event) (string, error) {
	return r.inner.CreateEvent(ctx, ev)
}

func (r *RetryGateway) DeleteEvent(ctx context.Context, resourceKey, eventID string) error {
	return r.inner.DeleteEvent(ctx, resourceKey, eventID)
}

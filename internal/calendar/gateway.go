// Package calendar defines the external calendar boundary: a busy-interval
// source and an event sink keyed by the facility's resource key.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/opencourt/receptionist/internal/schedule"
)

// ErrUnavailable wraps any transport or provider failure. Callers treat a
// timeout the same way.
var ErrUnavailable = errors.New("calendar: gateway unavailable")

// Event is a remote calendar entry to create for a committed booking.
type Event struct {
	ResourceKey string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Gateway is implemented by the production Google client, the retry
// decorator, and test fakes. Implementations must return timestamps as
// absolute instants.
type Gateway interface {
	// GetBusyIntervals lists existing commitments on the resource within
	// the half-open window. An empty result is valid.
	GetBusyIntervals(ctx context.Context, resourceKey string, windowStart, windowEnd time.Time) ([]schedule.Slot, error)

	// CreateEvent registers an event and returns the provider's event
	// reference. Not idempotent: retries are the caller's concern.
	CreateEvent(ctx context.Context, ev Event) (string, error)

	// DeleteEvent removes a previously created event. Used only for
	// best-effort compensation when a local commit fails.
	DeleteEvent(ctx context.Context, resourceKey, eventID string) error
}

package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opencourt/receptionist/internal/schedule"
	"github.com/opencourt/receptionist/pkg/logging"
)

// StubGateway is used when no Google credentials are configured: it reports
// no busy intervals and hands out synthetic event ids. Bookings then rely
// entirely on the store's own constraint.
type StubGateway struct {
	logger *logging.Logger
}

// NewStubGateway creates a no-op gateway.
func NewStubGateway(logger *logging.Logger) *StubGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubGateway{logger: logger}
}

func (s *StubGateway) GetBusyIntervals(ctx context.Context, resourceKey string, windowStart, windowEnd time.Time) ([]schedule.Slot, error) {
	return nil, nil
}

func (s *StubGateway) CreateEvent(ctx context.Context, ev Event) (string, error) {
	id := "stub-" + uuid.NewString()
	s.logger.Debug("stub calendar event created", "resource_key", ev.ResourceKey, "event_id", id)
	return id, nil
}

func (s *StubGateway) DeleteEvent(ctx context.Context, resourceKey, eventID string) error {
	return nil
}

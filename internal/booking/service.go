package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/opencourt/receptionist/internal/calendar"
	"github.com/opencourt/receptionist/internal/facility"
	"github.com/opencourt/receptionist/internal/observability/metrics"
	"github.com/opencourt/receptionist/internal/schedule"
	"github.com/opencourt/receptionist/pkg/logging"
)

var tracer = otel.Tracer("receptionist.internal.booking")

// Store is the persistence surface the service needs. *Repository
// satisfies it.
type Store interface {
	UpsertCustomer(ctx context.Context, facilityID uuid.UUID, name, phone string) (*Customer, error)
	ListConfirmedBetween(ctx context.Context, facilityID uuid.UUID, windowStart, windowEnd time.Time) ([]schedule.Slot, error)
	CreateConfirmed(ctx context.Context, b *Booking, register func(ctx context.Context) (string, error)) (string, error)
}

// Notifier receives committed bookings for out-of-band confirmation. It
// must not block the booking path; failures are its own concern.
type Notifier interface {
	BookingConfirmed(ctx context.Context, fac *facility.Facility, customer *Customer, b *Booking)
}

// Service is the scheduling engine's entry point: it computes availability
// and commits bookings against the store and the external calendar.
type Service struct {
	facilities facility.Reader
	store      Store
	gateway    calendar.Gateway
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
	notifier   Notifier
}

func NewService(facilities facility.Reader, store Store, gateway calendar.Gateway, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		facilities: facilities,
		store:      store,
		gateway:    gateway,
		metrics:    m,
		logger:     logger,
	}
}

// WithNotifier attaches a confirmation notifier.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// BookingRequest carries everything needed to commit one slot.
type BookingRequest struct {
	FacilityID    uuid.UUID
	CustomerName  string
	CustomerPhone string
	Start         time.Time
	End           time.Time
}

// CheckAvailability returns the open slots for the facility on the given
// calendar day. The day names a civil date in the facility's timezone,
// whatever location the time.Time value carries. A closed day yields an
// empty list, not an error.
func (s *Service) CheckAvailability(ctx context.Context, facilityID uuid.UUID, day time.Time) ([]schedule.Slot, error) {
	ctx, span := tracer.Start(ctx, "booking.CheckAvailability")
	defer span.End()

	slots, err := s.checkAvailability(ctx, facilityID, day)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveAvailability("error")
		return nil, err
	}
	s.metrics.ObserveAvailability("ok")
	return slots, nil
}

func (s *Service) checkAvailability(ctx context.Context, facilityID uuid.UUID, day time.Time) ([]schedule.Slot, error) {
	fac, err := s.facilities.GetWithConfig(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	loc, err := fac.Facility.Location()
	if err != nil {
		return nil, err
	}

	// Re-anchor the civil date in the facility's timezone. Converting the
	// instant with In(loc) would shift a parsed UTC midnight onto the
	// previous local day for facilities west of UTC.
	year, month, dayOfMonth := day.Date()
	localDay := time.Date(year, month, dayOfMonth, 0, 0, 0, 0, loc)
	return s.openSlots(ctx, fac, loc, localDay)
}

func (s *Service) openSlots(ctx context.Context, fac *facility.WithConfig, loc *time.Location, localDay time.Time) ([]schedule.Slot, error) {
	ranges := fac.Config.OpenHours[schedule.WeekdayKey(localDay)]
	if len(ranges) == 0 {
		return []schedule.Slot{}, nil
	}

	slots, err := schedule.GenerateSlots(localDay, ranges, fac.Config.SlotMinutes, loc)
	if err != nil {
		return nil, err
	}

	windowStart, windowEnd := schedule.DayWindow(localDay, loc)
	busy, err := s.busyIntervals(ctx, fac, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	open := schedule.FilterConflicts(slots, busy)
	if open == nil {
		open = []schedule.Slot{}
	}
	return open, nil
}

// busyIntervals merges the external calendar's commitments with our own
// confirmed bookings. The store is consulted even though committed
// bookings also live on the calendar: the local row is authoritative and
// survives calendar write lag.
func (s *Service) busyIntervals(ctx context.Context, fac *facility.WithConfig, windowStart, windowEnd time.Time) ([]schedule.Slot, error) {
	started := time.Now()
	busy, err := s.gateway.GetBusyIntervals(ctx, fac.Facility.PhoneNumber, windowStart, windowEnd)
	s.metrics.ObserveCalendarLatency("freebusy", time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	booked, err := s.store.ListConfirmedBetween(ctx, fac.Facility.ID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	return append(busy, booked...), nil
}

// Book commits one slot end to end: validate the interval, confirm it is
// still offered and free, resolve the customer, then insert the booking
// row and create the calendar event in one transaction. The database
// exclusion constraint is the final arbiter between concurrent callers.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.Book")
	defer span.End()

	b, err := s.book(ctx, req)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, ErrSlotTaken):
			s.metrics.ObserveBooking("conflict")
		case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrClosed):
			s.metrics.ObserveBooking("rejected")
		default:
			s.metrics.ObserveBooking("error")
		}
		return nil, err
	}
	s.metrics.ObserveBooking("confirmed")
	return b, nil
}

func (s *Service) book(ctx context.Context, req BookingRequest) (*Booking, error) {
	if !req.Start.Before(req.End) {
		return nil, ErrInvalidSlot
	}
	if req.CustomerPhone == "" {
		return nil, fmt.Errorf("%w: customer phone required", ErrInvalidSlot)
	}

	fac, err := s.facilities.GetWithConfig(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}

	loc, err := fac.Facility.Location()
	if err != nil {
		return nil, err
	}

	// Re-check before writing so most conflicts fail fast with a clean
	// ErrSlotTaken instead of a constraint bounce. The requested interval
	// must match an offered slot exactly; the engine never shifts or
	// shrinks what the caller asked for. Unlike CheckAvailability the
	// request carries real instants, so the day is wherever Start lands
	// in the facility's timezone.
	localStart := req.Start.In(loc)
	open, err := s.openSlots(ctx, fac, loc, localStart)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 && len(fac.Config.OpenHours[schedule.WeekdayKey(localStart)]) == 0 {
		return nil, ErrClosed
	}
	if !slotOffered(open, req.Start, req.End) {
		return nil, ErrSlotTaken
	}

	customer, err := s.store.UpsertCustomer(ctx, req.FacilityID, req.CustomerName, req.CustomerPhone)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		FacilityID: req.FacilityID,
		CustomerID: customer.ID,
		StartTime:  req.Start,
		EndTime:    req.End,
		Source:     SourcePhoneAI,
	}

	eventID, err := s.store.CreateConfirmed(ctx, b, func(ctx context.Context) (string, error) {
		started := time.Now()
		id, evErr := s.gateway.CreateEvent(ctx, calendar.Event{
			ResourceKey: fac.Facility.PhoneNumber,
			Summary:     eventSummary(customer),
			Description: "Created via AI receptionist",
			Start:       req.Start,
			End:         req.End,
		})
		s.metrics.ObserveCalendarLatency("create_event", time.Since(started).Seconds())
		return id, evErr
	})
	if err != nil {
		if eventID != "" {
			// The remote event exists but the local commit failed. Undo
			// the remote side so the calendar does not show a phantom
			// booking; if the delete fails too, log it for manual cleanup.
			if delErr := s.gateway.DeleteEvent(ctx, fac.Facility.PhoneNumber, eventID); delErr != nil {
				s.logger.Warn("orphaned calendar event",
					"facility_id", req.FacilityID, "event_id", eventID, "error", delErr)
			}
		}
		return nil, err
	}

	s.logger.Info("booking confirmed",
		"booking_id", b.ID, "facility_id", b.FacilityID,
		"customer_id", customer.ID, "start", b.StartTime, "end", b.EndTime)

	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, &fac.Facility, customer, b)
	}
	return b, nil
}

func slotOffered(open []schedule.Slot, start, end time.Time) bool {
	for _, s := range open {
		if s.Start.Equal(start) && s.End.Equal(end) {
			return true
		}
	}
	return false
}

func eventSummary(c *Customer) string {
	who := c.Name
	if who == "" {
		who = c.Phone
	}
	return "Court booking - " + who
}

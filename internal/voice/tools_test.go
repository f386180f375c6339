package voice

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencourt/receptionist/internal/booking"
	"github.com/opencourt/receptionist/internal/calendar"
	"github.com/opencourt/receptionist/internal/facility"
	"github.com/opencourt/receptionist/internal/schedule"
)

var kolkata = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return loc
}()

type stubFacilities struct {
	fac *facility.WithConfig
}

func (s *stubFacilities) GetWithConfig(_ context.Context, id uuid.UUID) (*facility.WithConfig, error) {
	if id != s.fac.Facility.ID {
		return nil, facility.ErrNotFound
	}
	return s.fac, nil
}

type memStore struct {
	mu        sync.Mutex
	customers map[string]*booking.Customer
	bookings  []booking.Booking
}

func newMemStore() *memStore {
	return &memStore{customers: make(map[string]*booking.Customer)}
}

func (s *memStore) UpsertCustomer(_ context.Context, facilityID uuid.UUID, name, phone string) (*booking.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := facilityID.String() + "|" + phone
	if c, ok := s.customers[key]; ok {
		if name != "" {
			c.Name = name
		}
		return c, nil
	}
	c := &booking.Customer{ID: uuid.New(), FacilityID: facilityID, Name: name, Phone: phone}
	s.customers[key] = c
	return c, nil
}

func (s *memStore) ListConfirmedBetween(_ context.Context, facilityID uuid.UUID, windowStart, windowEnd time.Time) ([]schedule.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schedule.Slot
	for _, b := range s.bookings {
		if b.FacilityID == facilityID && b.StartTime.Before(windowEnd) && windowStart.Before(b.EndTime) {
			out = append(out, schedule.Slot{Start: b.StartTime, End: b.EndTime})
		}
	}
	return out, nil
}

func (s *memStore) CreateConfirmed(ctx context.Context, b *booking.Booking, register func(ctx context.Context) (string, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookings {
		if existing.FacilityID == b.FacilityID &&
			b.StartTime.Before(existing.EndTime) && existing.StartTime.Before(b.EndTime) {
			return "", booking.ErrSlotTaken
		}
	}
	eventID, err := register(ctx)
	if err != nil {
		return "", err
	}
	b.ID = uuid.New()
	b.Status = booking.StatusConfirmed
	b.CalendarEventID = eventID
	s.bookings = append(s.bookings, *b)
	return eventID, nil
}

type stubGateway struct{}

func (stubGateway) GetBusyIntervals(context.Context, string, time.Time, time.Time) ([]schedule.Slot, error) {
	return nil, nil
}

func (stubGateway) CreateEvent(_ context.Context, _ calendar.Event) (string, error) {
	return "evt-" + uuid.NewString(), nil
}

func (stubGateway) DeleteEvent(context.Context, string, string) error { return nil }

func courtFacility() *facility.WithConfig {
	id := uuid.New()
	return &facility.WithConfig{
		Facility: facility.Facility{
			ID:          id,
			Name:        "Riverside Courts",
			Timezone:    "Asia/Kolkata",
			PhoneNumber: "+911234567890",
		},
		Config: facility.Config{
			FacilityID:  id,
			OpenHours:   map[string][]string{"mon": {"09:00-11:00"}},
			SlotMinutes: 60,
		},
	}
}

func newToolDispatcher(t *testing.T) (*Dispatcher, *facility.WithConfig, *memStore) {
	t.Helper()
	fac := courtFacility()
	store := newMemStore()
	svc := booking.NewService(&stubFacilities{fac: fac}, store, stubGateway{}, nil, nil)
	d := NewDispatcher(nil)
	RegisterBookingTools(d, svc, fac.Facility.ID)
	return d, fac, store
}

func TestCheckAvailabilityTool(t *testing.T) {
	d, _, _ := newToolDispatcher(t)

	out := d.Dispatch(context.Background(), ToolCheckAvailability, json.RawMessage(`{"date":"2026-09-07"}`))

	var result struct {
		Date  string     `json:"date"`
		Slots []slotView `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, "2026-09-07", result.Date)
	require.Len(t, result.Slots, 2)
}

func TestCheckAvailabilityToolBadDate(t *testing.T) {
	d, _, _ := newToolDispatcher(t)

	out := d.Dispatch(context.Background(), ToolCheckAvailability, json.RawMessage(`{"date":"next monday"}`))

	var result map[string]string
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Contains(t, result["error"], "YYYY-MM-DD")
}

func TestCreateBookingTool(t *testing.T) {
	d, _, store := newToolDispatcher(t)

	start := time.Date(2026, time.September, 7, 9, 0, 0, 0, kolkata)
	args, _ := json.Marshal(createBookingArgs{
		CustomerName:  "Asha",
		CustomerPhone: "+919876543210",
		Start:         start,
		End:           start.Add(time.Hour),
	})
	out := d.Dispatch(context.Background(), ToolCreateBooking, args)

	var result struct {
		Status    string `json:"status"`
		BookingID string `json:"booking_id"`
	}
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, "confirmed", result.Status)
	assert.NotEmpty(t, result.BookingID)
	assert.Len(t, store.bookings, 1)
}

func TestCreateBookingToolConflictIsSpeakable(t *testing.T) {
	d, _, _ := newToolDispatcher(t)

	start := time.Date(2026, time.September, 7, 9, 0, 0, 0, kolkata)
	args, _ := json.Marshal(createBookingArgs{
		CustomerPhone: "+919876543210",
		Start:         start,
		End:           start.Add(time.Hour),
	})
	first := d.Dispatch(context.Background(), ToolCreateBooking, args)
	require.Contains(t, string(first), "confirmed")

	second := d.Dispatch(context.Background(), ToolCreateBooking, args)
	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(second, &result))
	assert.Equal(t, "unavailable", result.Status)
	assert.Contains(t, result.Message, "check availability again")
}

func TestCreateBookingToolClosedDay(t *testing.T) {
	d, _, _ := newToolDispatcher(t)

	start := time.Date(2026, time.September, 6, 9, 0, 0, 0, kolkata)
	args, _ := json.Marshal(createBookingArgs{
		CustomerPhone: "+919876543210",
		Start:         start,
		End:           start.Add(time.Hour),
	})
	out := d.Dispatch(context.Background(), ToolCreateBooking, args)

	var result map[string]string
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, "the facility is closed that day", result["error"])
}

package booking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencourt/receptionist/internal/schedule"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCheckAvailabilityEndpoint(t *testing.T) {
	fac := testFacility()
	svc := newTestService(fac, newFakeStore(), &fakeGateway{})
	h := NewHandler(svc, nil)

	rec := postJSON(t, h.CheckAvailability, AvailabilityRequest{
		FacilityID: fac.Facility.ID,
		Date:       "2026-09-07",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Slots []schedule.Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Slots, 2)
}

func TestCheckAvailabilityEndpointWestOfUTC(t *testing.T) {
	fac := newYorkFacility()
	svc := newTestService(fac, newFakeStore(), &fakeGateway{})
	h := NewHandler(svc, nil)

	rec := postJSON(t, h.CheckAvailability, AvailabilityRequest{
		FacilityID: fac.Facility.ID,
		Date:       "2026-09-07",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Slots []schedule.Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, time.Date(2026, time.September, 7, 9, 0, 0, 0, newYork), resp.Slots[0].Start.In(newYork))
}

func TestCheckAvailabilityEndpointBadDate(t *testing.T) {
	fac := testFacility()
	h := NewHandler(newTestService(fac, newFakeStore(), &fakeGateway{}), nil)

	rec := postJSON(t, h.CheckAvailability, AvailabilityRequest{
		FacilityID: fac.Facility.ID,
		Date:       "07-09-2026",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckAvailabilityEndpointUnknownFacility(t *testing.T) {
	fac := testFacility()
	h := NewHandler(newTestService(fac, newFakeStore(), &fakeGateway{}), nil)

	rec := postJSON(t, h.CheckAvailability, AvailabilityRequest{
		FacilityID: uuid.New(),
		Date:       "2026-09-07",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBookingEndpoint(t *testing.T) {
	fac := testFacility()
	store := newFakeStore()
	h := NewHandler(newTestService(fac, store, &fakeGateway{}), nil)

	rec := postJSON(t, h.CreateBooking, CreateBookingRequest{
		FacilityID:    fac.Facility.ID,
		CustomerName:  "Asha",
		CustomerPhone: "+919876543210",
		Start:         time.Date(2026, time.September, 7, 9, 0, 0, 0, kolkata),
		End:           time.Date(2026, time.September, 7, 10, 0, 0, 0, kolkata),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var b Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.NotEmpty(t, b.CalendarEventID)
	assert.Len(t, store.bookings, 1)
}

func TestCreateBookingEndpointConflict(t *testing.T) {
	fac := testFacility()
	store := newFakeStore()
	h := NewHandler(newTestService(fac, store, &fakeGateway{}), nil)

	req := CreateBookingRequest{
		FacilityID:    fac.Facility.ID,
		CustomerPhone: "+919876543210",
		Start:         time.Date(2026, time.September, 7, 9, 0, 0, 0, kolkata),
		End:           time.Date(2026, time.September, 7, 10, 0, 0, 0, kolkata),
	}
	require.Equal(t, http.StatusCreated, postJSON(t, h.CreateBooking, req).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, h.CreateBooking, req).Code)
}

func TestCreateBookingEndpointInvalidInterval(t *testing.T) {
	fac := testFacility()
	h := NewHandler(newTestService(fac, newFakeStore(), &fakeGateway{}), nil)

	start := time.Date(2026, time.September, 7, 9, 0, 0, 0, kolkata)
	rec := postJSON(t, h.CreateBooking, CreateBookingRequest{
		FacilityID:    fac.Facility.ID,
		CustomerPhone: "+919876543210",
		Start:         start,
		End:           start.Add(-time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opencourt/receptionist/internal/calendar"
	"github.com/opencourt/receptionist/internal/facility"
	"github.com/opencourt/receptionist/pkg/logging"
)

// Handler exposes the public REST surface of the scheduling engine. The
// same service also backs the voice tool bridge.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// AvailabilityRequest asks for the open slots on one calendar day.
type AvailabilityRequest struct {
	FacilityID uuid.UUID `json:"facility_id"`
	Date       string    `json:"date"`
}

// CheckAvailability handles POST /availability.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FacilityID == uuid.Nil {
		http.Error(w, "facility_id is required", http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots, err := h.service.CheckAvailability(r.Context(), req.FacilityID, day)
	if err != nil {
		h.writeError(w, r, err, "check availability failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"facility_id": req.FacilityID,
		"date":        req.Date,
		"slots":       slots,
	})
}

// CreateBookingRequest commits one offered slot.
type CreateBookingRequest struct {
	FacilityID    uuid.UUID `json:"facility_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FacilityID == uuid.Nil {
		http.Error(w, "facility_id is required", http.StatusBadRequest)
		return
	}

	b, err := h.service.Book(r.Context(), BookingRequest{
		FacilityID:    req.FacilityID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Start:         req.Start,
		End:           req.End,
	})
	if err != nil {
		h.writeError(w, r, err, "create booking failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, facility.ErrNotFound), errors.Is(err, facility.ErrConfigMissing):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrClosed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSlotTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, calendar.ErrUnavailable):
		h.logger.Error(msg, "error", err, "path", r.URL.Path)
		http.Error(w, "calendar temporarily unavailable", http.StatusBadGateway)
	default:
		h.logger.Error(msg, "error", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Package booking implements the scheduling engine: availability
// computation, customer identity, and the booking transaction.
package booking

import (
	"time"

	"github.com/google/uuid"
)

const (
	// StatusConfirmed is the only status this engine creates. No two
	// confirmed bookings on a facility may overlap.
	StatusConfirmed = "confirmed"

	// SourcePhoneAI tags bookings created by the phone agent.
	SourcePhoneAI = "phone_ai"
)

// Customer is identified by (facility, phone). The phone number is the
// stable key; the name follows the latest non-empty value.
type Customer struct {
	ID         uuid.UUID `json:"id"`
	FacilityID uuid.UUID `json:"facility_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

// Booking is a committed half-open interval on a facility, stored in UTC.
type Booking struct {
	ID              uuid.UUID `json:"id"`
	FacilityID      uuid.UUID `json:"facility_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	CalendarEventID string    `json:"calendar_event_id"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

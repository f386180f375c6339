// Package facility owns the bookable-resource records: the facility itself
// and its scheduling configuration.
package facility

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opencourt/receptionist/internal/schedule"
)

var (
	// ErrNotFound is returned when a facility id resolves to nothing.
	ErrNotFound = errors.New("facility: not found")
	// ErrConfigMissing is returned when a facility exists but has no
	// scheduling configuration yet.
	ErrConfigMissing = errors.New("facility: config missing")
	// ErrInvalidTimezone reports an unknown IANA timezone name.
	ErrInvalidTimezone = errors.New("facility: invalid timezone")
)

// Facility is a bookable location. PhoneNumber doubles as the resource key
// for the external calendar.
type Facility struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Timezone    string    `json:"timezone"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Config holds a facility's opening hours and slot length. OpenHours maps
// lowercase three-letter weekday keys ("mon".."sun") to ordered
// "HH:MM-HH:MM" ranges; a missing key means closed that day.
type Config struct {
	FacilityID  uuid.UUID           `json:"facility_id"`
	OpenHours   map[string][]string `json:"open_hours"`
	SlotMinutes int                 `json:"slot_minutes"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// WithConfig pairs a facility with its configuration for availability and
// booking computations.
type WithConfig struct {
	Facility Facility `json:"facility"`
	Config   Config   `json:"config"`
}

// Location resolves the facility's IANA timezone.
func (f Facility) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, f.Timezone)
	}
	return loc, nil
}

var weekdayKeys = map[string]struct{}{
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {},
}

// Validate checks slot length, weekday keys, and that every range parses
// with start before end.
func (c *Config) Validate() error {
	if c.SlotMinutes <= 0 {
		return fmt.Errorf("%w: slot_minutes must be positive", schedule.ErrInvalidRange)
	}
	for day, ranges := range c.OpenHours {
		if _, ok := weekdayKeys[day]; !ok {
			return fmt.Errorf("%w: unknown weekday %q", schedule.ErrInvalidRange, day)
		}
		for _, r := range ranges {
			if _, _, err := schedule.ParseRange(r); err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
		}
	}
	return nil
}

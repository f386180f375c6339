package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opencourt/receptionist/internal/booking"
	"github.com/opencourt/receptionist/internal/schedule"
)

// Tool names the agent is prompted with.
const (
	ToolCheckAvailability = "check_availability"
	ToolCreateBooking     = "create_booking"
)

// RegisterBookingTools binds the scheduling tools for one facility. The
// facility is fixed when the call session starts, so the agent never has
// to (and never can) pass a facility id of its own.
func RegisterBookingTools(d *Dispatcher, svc *booking.Service, facilityID uuid.UUID) {
	d.Register(ToolCheckAvailability, checkAvailabilityTool(svc, facilityID))
	d.Register(ToolCreateBooking, createBookingTool(svc, facilityID))
}

type checkAvailabilityArgs struct {
	Date string `json:"date"`
}

type slotView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func checkAvailabilityTool(svc *booking.Service, facilityID uuid.UUID) ToolFunc {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var req checkAvailabilityArgs
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		day, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", req.Date)
		}

		slots, err := svc.CheckAvailability(ctx, facilityID, day)
		if err != nil {
			return nil, speakable(err)
		}
		return map[string]any{
			"date":  req.Date,
			"slots": slotViews(slots),
		}, nil
	}
}

type createBookingArgs struct {
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

func createBookingTool(svc *booking.Service, facilityID uuid.UUID) ToolFunc {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var req createBookingArgs
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}

		b, err := svc.Book(ctx, booking.BookingRequest{
			FacilityID:    facilityID,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Start:         req.Start,
			End:           req.End,
		})
		if err != nil {
			if errors.Is(err, booking.ErrSlotTaken) {
				// The agent should apologize and re-check availability,
				// never invent a replacement slot.
				return map[string]any{
					"status":  "unavailable",
					"message": "That slot was just taken. Please check availability again and offer another time.",
				}, nil
			}
			return nil, speakable(err)
		}

		return map[string]any{
			"status":     "confirmed",
			"booking_id": b.ID,
			"start":      b.StartTime.Format(time.RFC3339),
			"end":        b.EndTime.Format(time.RFC3339),
		}, nil
	}
}

func slotViews(slots []schedule.Slot) []slotView {
	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotView{
			Start: s.Start.Format(time.RFC3339),
			End:   s.End.Format(time.RFC3339),
		})
	}
	return out
}

// speakable trims internal detail off errors that reach the agent.
func speakable(err error) error {
	switch {
	case errors.Is(err, booking.ErrClosed):
		return errors.New("the facility is closed that day")
	case errors.Is(err, booking.ErrInvalidSlot):
		return errors.New("that time range is not valid")
	default:
		return errors.New("the booking system is temporarily unavailable")
	}
}

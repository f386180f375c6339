package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/opencourt/receptionist/internal/booking"
	"github.com/opencourt/receptionist/internal/facility"
	"github.com/opencourt/receptionist/pkg/logging"
)

// Service emails the facility operator when a booking is committed. It
// satisfies the booking service's Notifier and never blocks the booking
// path: delivery happens on its own goroutine with its own deadline.
type Service struct {
	sender        EmailSender
	operatorEmail string
	logger        *logging.Logger
}

func NewService(sender EmailSender, operatorEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sender: sender, operatorEmail: operatorEmail, logger: logger}
}

// BookingConfirmed sends the confirmation email in the background.
func (s *Service) BookingConfirmed(ctx context.Context, fac *facility.Facility, customer *booking.Customer, b *booking.Booking) {
	if s.sender == nil || s.operatorEmail == "" {
		return
	}

	msg := s.buildMessage(fac, customer, b)
	bg := context.WithoutCancel(ctx)
	go func() {
		sendCtx, cancel := context.WithTimeout(bg, 15*time.Second)
		defer cancel()
		if err := s.sender.Send(sendCtx, msg); err != nil {
			s.logger.Error("booking confirmation email failed",
				"error", err, "booking_id", b.ID, "facility_id", fac.ID)
		}
	}()
}

func (s *Service) buildMessage(fac *facility.Facility, customer *booking.Customer, b *booking.Booking) EmailMessage {
	start := b.StartTime
	end := b.EndTime
	if loc, err := fac.Location(); err == nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	who := customer.Name
	if who == "" {
		who = customer.Phone
	}

	body := fmt.Sprintf(
		"New booking at %s\n\nCustomer: %s\nPhone: %s\nWhen: %s to %s\n\nBooked by the phone receptionist.",
		fac.Name,
		who,
		customer.Phone,
		start.Format("Monday, January 2 at 3:04 PM"),
		end.Format("3:04 PM"),
	)

	return EmailMessage{
		To:      s.operatorEmail,
		Subject: fmt.Sprintf("New booking: %s on %s", who, start.Format("Jan 2")),
		Body:    body,
	}
}

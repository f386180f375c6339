package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/opencourt/receptionist/internal/schedule"
)

// GoogleGateway talks to Google Calendar. The facility's resource key is
// used as the calendar id, so each facility maps to one calendar.
type GoogleGateway struct {
	svc *gcal.Service
}

// NewGoogleGateway builds a gateway from client options (credentials file,
// JSON, or a test endpoint).
func NewGoogleGateway(ctx context.Context, opts ...option.ClientOption) (*GoogleGateway, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: init google client: %w", err)
	}
	return &GoogleGateway{svc: svc}, nil
}

// GetBusyIntervals queries freebusy for the resource's calendar.
func (g *GoogleGateway) GetBusyIntervals(ctx context.Context, resourceKey string, windowStart, windowEnd time.Time) ([]schedule.Slot, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin: windowStart.Format(time.RFC3339),
		TimeMax: windowEnd.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: resourceKey}},
	}
	resp, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: freebusy query: %v", ErrUnavailable, err)
	}

	cal, ok := resp.Calendars[resourceKey]
	if !ok {
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("%w: freebusy error for %s: %s", ErrUnavailable, resourceKey, cal.Errors[0].Reason)
	}

	busy := make([]schedule.Slot, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: bad busy start %q", ErrUnavailable, period.Start)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("%w: bad busy end %q", ErrUnavailable, period.End)
		}
		busy = append(busy, schedule.Slot{Start: start, End: end})
	}
	return busy, nil
}

// CreateEvent inserts an event on the resource's calendar.
func (g *GoogleGateway) CreateEvent(ctx context.Context, ev Event) (string, error) {
	event := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}
	created, err := g.svc.Events.Insert(ev.ResourceKey, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: create event: %v", ErrUnavailable, err)
	}
	return created.Id, nil
}

// DeleteEvent removes an event from the resource's calendar.
func (g *GoogleGateway) DeleteEvent(ctx context.Context, resourceKey, eventID string) error {
	if err := g.svc.Events.Delete(resourceKey, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: delete event: %v", ErrUnavailable, err)
	}
	return nil
}

// Package schedule turns a facility's opening hours into bookable time
// slots and filters them against busy intervals. Everything here is pure:
// no clocks, no I/O.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRange reports an opening-hour range that does not parse as
// "HH:MM-HH:MM" with start strictly before end. Bad configuration is
// surfaced to the caller, never silently dropped.
var ErrInvalidRange = errors.New("schedule: invalid opening-hour range")

// Slot is a half-open [Start, End) interval. Start is inclusive, End is
// exclusive, so back-to-back slots share a boundary without overlapping.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// timeOfDay is a wall-clock time within a day.
type timeOfDay struct {
	hour   int
	minute int
}

// ParseRange parses "HH:MM-HH:MM" into start and end wall-clock times.
func ParseRange(rangeStr string) (start, end timeOfDay, err error) {
	parts := strings.SplitN(rangeStr, "-", 2)
	if len(parts) != 2 {
		return start, end, fmt.Errorf("%w: %q", ErrInvalidRange, rangeStr)
	}
	start, err = parseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return start, end, fmt.Errorf("%w: %q", ErrInvalidRange, rangeStr)
	}
	end, err = parseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return start, end, fmt.Errorf("%w: %q", ErrInvalidRange, rangeStr)
	}
	if !start.before(end) {
		return start, end, fmt.Errorf("%w: start must precede end in %q", ErrInvalidRange, rangeStr)
	}
	return start, end, nil
}

func parseClock(s string) (timeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return timeOfDay{}, fmt.Errorf("bad clock value %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return timeOfDay{}, fmt.Errorf("bad hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return timeOfDay{}, fmt.Errorf("bad minute in %q", s)
	}
	return timeOfDay{hour: hour, minute: minute}, nil
}

func (t timeOfDay) before(o timeOfDay) bool {
	return t.hour*60+t.minute < o.hour*60+o.minute
}

// GenerateSlots produces the candidate slots for one calendar day.
//
// Each range is anchored to the given date in loc, so DST transitions are
// handled by the timezone database rather than a fixed offset. Within a
// range, slots step by slotMinutes and a slot is emitted only while it fits
// entirely inside the range window. Ranges are processed in declaration
// order and overlapping ranges are a configuration concern; slots are not
// merged or deduplicated here.
func GenerateSlots(date time.Time, ranges []string, slotMinutes int, loc *time.Location) ([]Slot, error) {
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot length %d must be positive", ErrInvalidRange, slotMinutes)
	}
	if loc == nil {
		loc = time.UTC
	}

	year, month, day := date.In(loc).Date()
	step := time.Duration(slotMinutes) * time.Minute

	var slots []Slot
	for _, rangeStr := range ranges {
		start, end, err := ParseRange(rangeStr)
		if err != nil {
			return nil, err
		}
		windowStart := time.Date(year, month, day, start.hour, start.minute, 0, 0, loc)
		windowEnd := time.Date(year, month, day, end.hour, end.minute, 0, 0, loc)

		for current := windowStart; !current.Add(step).After(windowEnd); current = current.Add(step) {
			slots = append(slots, Slot{Start: current, End: current.Add(step)})
		}
	}
	return slots, nil
}

// WeekdayKey returns the lowercase three-letter key ("mon".."sun") used to
// index opening hours by weekday.
func WeekdayKey(t time.Time) string {
	return strings.ToLower(t.Weekday().String()[:3])
}

// DayWindow returns the half-open window covering the date's local day,
// from local midnight to the next local midnight.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := date.In(loc).Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

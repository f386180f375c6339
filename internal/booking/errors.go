package booking

import "errors"

var (
	// ErrInvalidSlot reports a malformed requested interval.
	ErrInvalidSlot = errors.New("booking: slot end must be after start")

	// ErrSlotTaken means the requested interval is no longer free. The
	// caller should re-query availability and pick another slot; the
	// engine never substitutes a slot on its own.
	ErrSlotTaken = errors.New("booking: slot no longer available")

	// ErrClosed means the facility has no opening hours covering the
	// requested interval's day.
	ErrClosed = errors.New("booking: facility closed on requested day")
)

package schedule

import (
	"errors"
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestGenerateSlotsKolkataMorning(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	// Monday 2025-06-02.
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)

	slots, err := GenerateSlots(date, []string{"09:00-11:00"}, 60, loc)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}

	want := []Slot{
		{Start: time.Date(2025, 6, 2, 9, 0, 0, 0, loc), End: time.Date(2025, 6, 2, 10, 0, 0, 0, loc)},
		{Start: time.Date(2025, 6, 2, 10, 0, 0, 0, loc), End: time.Date(2025, 6, 2, 11, 0, 0, 0, loc)},
	}
	for i, slot := range slots {
		if !slot.Start.Equal(want[i].Start) || !slot.End.Equal(want[i].End) {
			t.Errorf("slot %d: got [%s, %s), want [%s, %s)", i, slot.Start, slot.End, want[i].Start, want[i].End)
		}
	}
}

func TestGenerateSlotsProperties(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	date := time.Date(2025, 3, 3, 0, 0, 0, 0, loc)

	slots, err := GenerateSlots(date, []string{"08:00-12:00", "14:00-17:30"}, 45, loc)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}

	step := 45 * time.Minute
	windowEnds := map[string]time.Time{
		"08:00-12:00": time.Date(2025, 3, 3, 12, 0, 0, 0, loc),
		"14:00-17:30": time.Date(2025, 3, 3, 17, 30, 0, 0, loc),
	}
	for i, slot := range slots {
		if slot.End.Sub(slot.Start) != step {
			t.Errorf("slot %d has length %s, want %s", i, slot.End.Sub(slot.Start), step)
		}
		if i > 0 && slots[i-1].Start.After(slot.Start) {
			t.Errorf("slots out of order at %d", i)
		}
		contained := false
		for _, end := range windowEnds {
			if !slot.End.After(end) {
				contained = true
			}
		}
		if !contained {
			t.Errorf("slot %d [%s, %s) escapes both windows", i, slot.Start, slot.End)
		}
	}

	// 4h window fits five 45m slots, 3.5h window fits four.
	if len(slots) != 9 {
		t.Errorf("expected 9 slots across both ranges, got %d", len(slots))
	}
}

func TestGenerateSlotsPartialTailDropped(t *testing.T) {
	slots, err := GenerateSlots(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), []string{"09:00-10:30"}, 60, time.UTC)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 09:00-10:00 fits; 10:00-11:00 would spill past 10:30.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
}

func TestGenerateSlotsAcrossDSTSpringForward(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	// 2025-03-09: clocks jump 02:00 -> 03:00 EST->EDT.
	date := time.Date(2025, 3, 9, 0, 0, 0, 0, loc)

	slots, err := GenerateSlots(date, []string{"01:00-05:00"}, 60, loc)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, slot := range slots {
		if slot.End.Sub(slot.Start) != time.Hour {
			t.Errorf("slot %d has absolute length %s, want 1h", i, slot.End.Sub(slot.Start))
		}
	}
}

func TestGenerateSlotsInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		ranges      []string
		slotMinutes int
	}{
		{"missing dash", []string{"0900 to 1100"}, 60},
		{"reversed", []string{"11:00-09:00"}, 60},
		{"equal start end", []string{"09:00-09:00"}, 60},
		{"bad hour", []string{"25:00-26:00"}, 60},
		{"bad minute", []string{"09:61-10:00"}, 60},
		{"zero slot length", []string{"09:00-11:00"}, 0},
		{"negative slot length", []string{"09:00-11:00"}, -30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSlots(time.Now(), tt.ranges, tt.slotMinutes, time.UTC)
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestWeekdayKey(t *testing.T) {
	// 2025-06-02 is a Monday.
	if key := WeekdayKey(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)); key != "mon" {
		t.Fatalf("expected mon, got %s", key)
	}
	if key := WeekdayKey(time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)); key != "sun" {
		t.Fatalf("expected sun, got %s", key)
	}
}

func TestDayWindow(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	start, end := DayWindow(time.Date(2025, 6, 2, 18, 30, 0, 0, loc), loc)
	if !start.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, loc)) {
		t.Errorf("window start: %s", start)
	}
	if !end.Equal(time.Date(2025, 6, 3, 0, 0, 0, 0, loc)) {
		t.Errorf("window end: %s", end)
	}
}

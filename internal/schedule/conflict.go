package schedule

// Overlaps reports whether two half-open intervals intersect. Intervals
// that only touch at a boundary do not overlap, so a booking may start the
// instant another ends.
func Overlaps(a, b Slot) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FilterConflicts returns the slots that overlap none of the busy
// intervals. A slot touching any busy interval is removed whole; slots are
// never split. Comparisons use absolute instants, so callers may mix
// locations as long as each time is a real instant.
func FilterConflicts(slots []Slot, busy []Slot) []Slot {
	available := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		conflicted := false
		for _, b := range busy {
			if Overlaps(slot, b) {
				conflicted = true
				break
			}
		}
		if !conflicted {
			available = append(available, slot)
		}
	}
	return available
}

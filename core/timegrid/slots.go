package timegrid

// TimeSlot is one fixed-width row of the display grid. [Start, End) in minutes.
type TimeSlot struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// MaxEndHour is the last hour boundary a slot may end on: a slot ending at
// midnight would format as "12:00 AM" and read back as minute 0.
const MaxEndHour = 23

// GenerateTimeSlots builds the slots from startHour (inclusive) to endHour
// (exclusive) every slotMinutes. Labels round-trip through ParseTimeRange.
// An endHour past MaxEndHour is capped to it.
func GenerateTimeSlots(startHour, endHour, slotMinutes int, format TimeFormat) []TimeSlot {
	if endHour > MaxEndHour {
		endHour = MaxEndHour
	}
	if startHour < 0 || endHour <= startHour || slotMinutes <= 0 {
		return nil
	}

	first, last := startHour*60, endHour*60
	slots := make([]TimeSlot, 0, (last-first+slotMinutes-1)/slotMinutes)
	for start := first; start < last; start += slotMinutes {
		end := start + slotMinutes
		if end > last {
			end = last
		}
		slots = append(slots, TimeSlot{
			Start: start,
			End:   end,
			Label: FormatTimeRange(start, end, format),
		})
	}
	return slots
}

// ParseTimeSlots rebuilds slots from their labels. Unparseable labels are skipped.
func ParseTimeSlots(labels []string, policy MeridiemPolicy) []TimeSlot {
	slots := make([]TimeSlot, 0, len(labels))
	for _, label := range labels {
		start, end, ok := ParseTimeRange(label, policy)
		if !ok || end <= start {
			continue
		}
		slots = append(slots, TimeSlot{Start: start, End: end, Label: label})
	}
	return slots
}

// Labels returns the "<start> - <end>" strings of the slots.
func Labels(slots []TimeSlot) []string {
	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.Label
	}
	return labels
}

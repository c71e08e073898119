package timegrid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// MeridiemPolicy decides how a clock time without an AM/PM marker is read.
type MeridiemPolicy string

const (
	// MeridiemTwentyFourHour reads a bare hour as 24-hour time.
	MeridiemTwentyFourHour MeridiemPolicy = "24hour"
	// MeridiemRequired rejects clock times without a marker.
	MeridiemRequired MeridiemPolicy = "required"
)

// TimeFormat is the display format of generated slot labels.
type TimeFormat string

const (
	Format12Hour TimeFormat = "12hour"
	Format24Hour TimeFormat = "24hour"
)

// RangeSeparator splits the two halves of a time range ("8:00 AM - 10:00 AM").
const RangeSeparator = " - "

var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp][Mm])?$`)

// ParseClockTime parses "8:00 AM", "8:00am", "08:00" into minutes since midnight.
// ok is false for anything else; it never panics.
func ParseClockTime(text string, policy MeridiemPolicy) (int, bool) {
	m := clockRegex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}

	switch meridiem := strings.ToUpper(m[3]); meridiem {
	case "AM", "PM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
		if meridiem == "PM" {
			hour += 12
		}
	default:
		if policy == MeridiemRequired {
			return 0, false
		}
		if hour > 23 {
			return 0, false
		}
	}
	return hour*60 + minute, true
}

// ParseTimeRange parses "<start> - <end>". end > start is not enforced here.
func ParseTimeRange(text string, policy MeridiemPolicy) (start, end int, ok bool) {
	left, right, found := strings.Cut(text, RangeSeparator)
	if !found {
		return 0, 0, false
	}
	if start, ok = ParseClockTime(strings.TrimSpace(left), policy); !ok {
		return 0, 0, false
	}
	if end, ok = ParseClockTime(strings.TrimSpace(right), policy); !ok {
		return 0, 0, false
	}
	return start, end, true
}

// FormatClockTime is the inverse of ParseClockTime for the given format.
// minutes outside [0, 1439] wrap around the day.
func FormatClockTime(minutes int, format TimeFormat) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	hour, minute := minutes/60, minutes%60

	if format == Format24Hour {
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, minute, meridiem)
}

// FormatTimeRange renders a "<start> - <end>" label.
func FormatTimeRange(start, end int, format TimeFormat) string {
	return FormatClockTime(start, format) + RangeSeparator + FormatClockTime(end, format)
}

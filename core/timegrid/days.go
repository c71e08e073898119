package timegrid

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Canonical day tokens, in week order.
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

var Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayAliases = map[string]string{
	"mo": Monday, "mon": Monday, "mond": Monday, "monday": Monday,
	"tu": Tuesday, "tue": Tuesday, "tues": Tuesday, "tuesday": Tuesday,
	"we": Wednesday, "wed": Wednesday, "weds": Wednesday, "wednesday": Wednesday,
	"th": Thursday, "thu": Thursday, "thur": Thursday, "thurs": Thursday, "thursday": Thursday,
	"fr": Friday, "fri": Friday, "friday": Friday,
	"sa": Saturday, "sat": Saturday, "satur": Saturday, "saturday": Saturday,
	"su": Sunday, "sun": Sunday, "sunday": Sunday,
}

// DaySet is a set of canonical day tokens.
type DaySet uint8

func dayBit(day string) (DaySet, bool) {
	for i, d := range Weekdays {
		if d == day {
			return 1 << uint(i), true
		}
	}
	return 0, false
}

// CanonicalDay maps a single token ("Wed", "THURSDAY") to its canonical name.
func CanonicalDay(token string) (string, bool) {
	day, ok := dayAliases[strings.ToLower(strings.TrimSpace(token))]
	return day, ok
}

// NormalizeDayTokens expands "Mon/Wed", "Monday, Wednesday" etc. into a DaySet.
// Unknown tokens are dropped.
func NormalizeDayTokens(text string) DaySet {
	var set DaySet
	tokens := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, tok := range tokens {
		if day, ok := CanonicalDay(tok); ok {
			set = set.Add(day)
		}
	}
	return set
}

func NewDaySet(days ...string) DaySet {
	var set DaySet
	for _, d := range days {
		set = set.Add(d)
	}
	return set
}

// Add returns the set with day added. Non-canonical days are ignored.
func (s DaySet) Add(day string) DaySet {
	if bit, ok := dayBit(day); ok {
		return s | bit
	}
	return s
}

func (s DaySet) Contains(day string) bool {
	bit, ok := dayBit(day)
	return ok && s&bit != 0
}

func (s DaySet) Overlaps(other DaySet) bool { return s&other != 0 }

func (s DaySet) IsEmpty() bool { return s == 0 }

func (s DaySet) Len() int {
	n := 0
	for _, d := range Weekdays {
		if s.Contains(d) {
			n++
		}
	}
	return n
}

// Days lists the members in week order.
func (s DaySet) Days() []string {
	days := make([]string, 0, s.Len())
	for _, d := range Weekdays {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s DaySet) String() string { return strings.Join(s.Days(), "/") }

func (s DaySet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Days()) }

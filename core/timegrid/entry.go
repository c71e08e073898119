package timegrid

// Entry is one recurring class meeting as supplied by the data source.
// Room, Instructor and Section may be empty.
type Entry struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Instructor string `json:"instructor,omitempty"`
	Room       string `json:"room,omitempty"`
	Section    string `json:"section,omitempty"`
	Course     string `json:"course,omitempty"`
	Year       string `json:"year,omitempty"`
	Day        string `json:"day"`
	Time       string `json:"time"`
}

// Normalized is an Entry with its days expanded and its time range parsed.
// Start < End always holds.
type Normalized struct {
	Entry Entry  `json:"entry"`
	Days  DaySet `json:"days"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Rejection reasons.
const (
	ReasonBadTimeRange = "unparseable time range"
	ReasonEmptyPeriod  = "end time is not after start time"
)

// Rejected is an entry left out of the grid.
type Rejected struct {
	ID     string `json:"id"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

// Contains reports whether [Start, End) fully encloses the slot.
func (n Normalized) Contains(slot TimeSlot) bool {
	return n.Start <= slot.Start && slot.End <= n.End
}

// Normalize parses every entry; entries that fail are returned as Rejected.
// Input order is preserved.
func Normalize(entries []Entry, policy MeridiemPolicy) ([]Normalized, []Rejected) {
	out := make([]Normalized, 0, len(entries))
	var rejected []Rejected
	for _, e := range entries {
		start, end, ok := ParseTimeRange(e.Time, policy)
		if !ok {
			rejected = append(rejected, Rejected{ID: e.ID, Time: e.Time, Reason: ReasonBadTimeRange})
			continue
		}
		if end <= start {
			rejected = append(rejected, Rejected{ID: e.ID, Time: e.Time, Reason: ReasonEmptyPeriod})
			continue
		}
		out = append(out, Normalized{
			Entry: e,
			Days:  NormalizeDayTokens(e.Day),
			Start: start,
			End:   end,
		})
	}
	return out, rejected
}

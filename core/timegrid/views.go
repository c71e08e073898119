package timegrid

import "sort"

// DayGroup holds one day's entries ordered by start time (table and card views).
type DayGroup struct {
	Day     string       `json:"day"`
	Entries []Normalized `json:"entries"`
}

// AgendaItem is one row of the flat list view.
type AgendaItem struct {
	Day       string `json:"day"`
	StartTime int    `json:"start"`
	EndTime   int    `json:"end"`
	Entry     Entry  `json:"entry"`
}

// GroupByDay groups entries under each of days; no slot quantization.
func GroupByDay(entries []Normalized, days []string) []DayGroup {
	groups := make([]DayGroup, 0, len(days))
	for _, day := range days {
		group := DayGroup{Day: day, Entries: []Normalized{}}
		for _, n := range entries {
			if n.Days.Contains(day) {
				group.Entries = append(group.Entries, n)
			}
		}
		sort.SliceStable(group.Entries, func(i, j int) bool {
			return group.Entries[i].Start < group.Entries[j].Start
		})
		groups = append(groups, group)
	}
	return groups
}

// Flatten lists every (entry, day) pair by day order, then start time.
func Flatten(entries []Normalized, days []string) []AgendaItem {
	items := make([]AgendaItem, 0, len(entries))
	for _, g := range GroupByDay(entries, days) {
		for _, n := range g.Entries {
			items = append(items, AgendaItem{Day: g.Day, StartTime: n.Start, EndTime: n.End, Entry: n.Entry})
		}
	}
	return items
}

// Conflict is a pair of entries meeting on the same day at overlapping times.
type Conflict struct {
	Day    string `json:"day"`
	First  Entry  `json:"first"`
	Second Entry  `json:"second"`
}

// FindConflicts reports overlapping pairs. It is a diagnostic only:
// Reconcile still lets the first entry win.
func FindConflicts(entries []Normalized) []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if !a.Days.Overlaps(b.Days) || a.Start >= b.End || b.Start >= a.End {
				continue
			}
			for _, day := range (a.Days & b.Days).Days() {
				conflicts = append(conflicts, Conflict{Day: day, First: a.Entry, Second: b.Entry})
			}
		}
	}
	return conflicts
}

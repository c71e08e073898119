package timegrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(ns []Normalized) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Entry.ID
	}
	return out
}

func TestGroupByDay(t *testing.T) {
	entries := normalizeAll(t,
		Entry{ID: "late", Day: "Mon/Wed", Time: "1:00 PM - 2:00 PM"},
		Entry{ID: "early", Day: "Monday", Time: "7:15 AM - 8:00 AM"}, // misaligned: still listed
		Entry{ID: "tie-1", Day: "Wed", Time: "9:00 AM - 10:00 AM"},
		Entry{ID: "tie-2", Day: "Wed", Time: "9:00 AM - 9:30 AM"},
		Entry{ID: "nowhere", Day: "?", Time: "9:00 AM - 9:30 AM"},
	)

	groups := GroupByDay(entries, []string{Monday, Tuesday, Wednesday})

	require.Len(t, groups, 3)
	assert.Equal(t, Monday, groups[0].Day)
	assert.Equal(t, []string{"early", "late"}, ids(groups[0].Entries))
	assert.Equal(t, Tuesday, groups[1].Day)
	assert.NotNil(t, groups[1].Entries)
	assert.Empty(t, groups[1].Entries)
	assert.Equal(t, []string{"tie-1", "tie-2", "late"}, ids(groups[2].Entries))
}

func TestFlatten(t *testing.T) {
	entries := normalizeAll(t,
		Entry{ID: "b", Day: "Tue/Mon", Time: "10:00 AM - 11:00 AM"},
		Entry{ID: "a", Day: "Mon", Time: "08:00 - 09:00"},
	)

	items := Flatten(entries, []string{Monday, Tuesday})

	assert.Equal(t, []AgendaItem{
		{Day: Monday, StartTime: 480, EndTime: 540, Entry: entries[1].Entry},
		{Day: Monday, StartTime: 600, EndTime: 660, Entry: entries[0].Entry},
		{Day: Tuesday, StartTime: 600, EndTime: 660, Entry: entries[0].Entry},
	}, items)
}

func TestFindConflicts(t *testing.T) {
	entries := normalizeAll(t,
		Entry{ID: "a", Day: "Mon/Wed", Time: "8:00 AM - 10:00 AM"},
		Entry{ID: "b", Day: "Wed/Fri", Time: "9:00 AM - 11:00 AM"},
		Entry{ID: "c", Day: "Mon", Time: "10:00 AM - 11:00 AM"}, // touches a, no overlap
		Entry{ID: "d", Day: "Tue", Time: "8:00 AM - 10:00 AM"},
	)

	conflicts := FindConflicts(entries)

	require.Len(t, conflicts, 1)
	assert.Equal(t, Wednesday, conflicts[0].Day)
	assert.Equal(t, "a", conflicts[0].First.ID)
	assert.Equal(t, "b", conflicts[0].Second.ID)
	assert.Empty(t, FindConflicts(nil))
}

package timegrid

import "encoding/json"

// CellKind tells the renderer what to draw in a (day, slot) cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	// CellCovered is part of a block started in an earlier slot; draw nothing.
	CellCovered
	// CellBlockStart begins a block spanning Cell.Span slots.
	CellBlockStart
)

var cellKindNames = [...]string{"empty", "covered", "blockStart"}

func (k CellKind) String() string {
	if k < 0 || int(k) >= len(cellKindNames) {
		return "unknown"
	}
	return cellKindNames[k]
}

func (k CellKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

type Cell struct {
	Kind  CellKind `json:"kind"`
	Entry *Entry   `json:"entry,omitempty"`
	Span  int      `json:"span,omitempty"`
}

// Row is one slot across all requested days; Cells follow Grid.Days.
type Row struct {
	Slot  TimeSlot `json:"slot"`
	Cells []Cell   `json:"cells"`
}

type Grid struct {
	Days []string `json:"days"`
	Rows []Row    `json:"rows"`
}

// Cell returns the cell at (slot index, day index).
func (g Grid) Cell(slot, day int) Cell {
	if slot < 0 || slot >= len(g.Rows) || day < 0 || day >= len(g.Rows[slot].Cells) {
		return Cell{}
	}
	return g.Rows[slot].Cells[day]
}

// Reconcile lays normalized entries onto the slot grid.
//
// A slot belongs to an entry only when the entry's period fully contains it.
// On each day the first entry in input order wins a slot; overlapping later
// entries are hidden, not resolved. Each (entry, day) pair yields at most one
// block, starting at the entry's first matching slot.
func Reconcile(slots []TimeSlot, entries []Normalized, days []string) Grid {
	grid := Grid{
		Days: append([]string(nil), days...),
		Rows: make([]Row, len(slots)),
	}

	covered := make([]map[int]bool, len(days))
	for d := range covered {
		covered[d] = make(map[int]bool)
	}

	for i, slot := range slots {
		row := Row{Slot: slot, Cells: make([]Cell, len(days))}
		for d, day := range days {
			if covered[d][i] {
				row.Cells[d] = Cell{Kind: CellCovered}
				continue
			}

			match := firstMatch(entries, day, slot)
			if match == nil {
				continue
			}
			if firstMatchingSlot(slots, match) != i {
				row.Cells[d] = Cell{Kind: CellCovered}
				continue
			}

			span := 1
			for j := i + 1; j < len(slots) && match.Contains(slots[j]); j++ {
				span++
			}
			for j := i + 1; j < i+span; j++ {
				covered[d][j] = true
			}
			entry := match.Entry
			row.Cells[d] = Cell{Kind: CellBlockStart, Entry: &entry, Span: span}
		}
		grid.Rows[i] = row
	}
	return grid
}

func firstMatch(entries []Normalized, day string, slot TimeSlot) *Normalized {
	for i := range entries {
		if entries[i].Days.Contains(day) && entries[i].Contains(slot) {
			return &entries[i]
		}
	}
	return nil
}

func firstMatchingSlot(slots []TimeSlot, n *Normalized) int {
	for i, s := range slots {
		if n.Contains(s) {
			return i
		}
	}
	return -1
}

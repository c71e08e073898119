package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses "field1,-field2" into orderings; a leading "-" means descending.
// Fields not present in allowed are dropped when allowed is non-empty.
func ParseOrdering(value string, allowed ...string) []DBOrdering {
	var orderings []DBOrdering
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" || (len(allowed) > 0 && !contains(allowed, field)) {
			continue
		}
		orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

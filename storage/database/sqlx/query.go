package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core"
)

// where accumulates AND-ed conditions written with "?" placeholders.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, "("+clause+")")
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// query binds q's "?" placeholders for postgres.
func query(q string) string {
	return sqlx.Rebind(sqlx.DOLLAR, q)
}

// orderBy renders ordering using only the columns listed in allowed (field: column).
func orderBy(ordering []core.DBOrdering, allowed map[string]string, fallback string) string {
	list := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		list = append(list, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(list) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(list, ", ") + ", " + fallback
}

// validIDs drops ids that are not UUIDs; postgres rejects them instead of matching nothing.
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}

func like(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func rowsAffected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

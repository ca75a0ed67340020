package store

import (
	"fmt"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type Placeholder func(n int) string

func QuestionMark(int) string { return "?" }

func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// HitsQuery builds the SELECT for f. Rows come back in insertion order so a
// filtered read is a subsequence of the full table.
func HitsQuery(f HitFilter, ph Placeholder) (string, []any) {
	args := []any{f.Table}
	where := []string{"table_path = " + ph(1)}

	if len(f.Channels) > 0 {
		marks := make([]string, len(f.Channels))
		for i, ch := range f.Channels {
			args = append(args, ch)
			marks[i] = ph(len(args))
		}
		where = append(where, "det_uid IN ("+strings.Join(marks, ", ")+")")
	}
	if f.MinEnergy > 0 {
		args = append(args, f.MinEnergy)
		where = append(where, "edep >= "+ph(len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT evtid, edep, xloc, yloc, zloc, det_uid FROM hits WHERE ")
	sb.WriteString(strings.Join(where, " AND "))
	sb.WriteString(" ORDER BY id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sb.WriteString(" LIMIT " + ph(len(args)))
	}
	return sb.String(), args
}

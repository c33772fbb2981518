// Package persistence stores bookings in SQLite (local mode) or PostgreSQL.
package persistence

import (
	"strings"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

// whereClause renders f with "?" placeholders. id converts uuids to the
// driver's argument type.
func whereClause(f domain.Filter, id func(uuid.UUID) any) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.StudentID != uuid.Nil {
		conds = append(conds, "student_id = ?")
		args = append(args, id(f.StudentID))
	}
	if f.InstructorID != uuid.Nil {
		conds = append(conds, "instructor_id = ?")
		args = append(args, id(f.InstructorID))
	}
	if len(f.Statuses) > 0 {
		var marks []string
		for _, s := range f.Statuses {
			// rows written before the rename still carry legacy spellings
			for _, spelling := range append([]string{string(s)}, domain.Aliases(s)...) {
				marks = append(marks, "?")
				args = append(args, spelling)
			}
		}
		conds = append(conds, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func limitClause(f domain.Filter, args []any) (string, []any) {
	if f.Limit <= 0 {
		return "", args
	}
	return " LIMIT ?", append(args, f.Limit)
}

package sqlgraph

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Constraint kinds reported by Classify.
const (
	Unique     = "unique"
	ForeignKey = "foreign_key"
	Check      = "check"
)

// mysqlKinds maps MySQL server error numbers to constraint kinds.
var mysqlKinds = map[uint16]string{
	1062: Unique,
	1451: ForeignKey, // cannot delete or update a parent row
	1452: ForeignKey, // cannot add or update a child row
	3819: Check,
}

// sqliteKinds maps SQLite extended result codes to constraint kinds.
var sqliteKinds = map[int]string{
	275:  Check,      // SQLITE_CONSTRAINT_CHECK
	787:  ForeignKey, // SQLITE_CONSTRAINT_FOREIGNKEY
	1555: Unique,     // SQLITE_CONSTRAINT_PRIMARYKEY
	2067: Unique,     // SQLITE_CONSTRAINT_UNIQUE
}

// sqliteMessages classifies SQLite errors that reach us as text only.
var sqliteMessages = []struct{ text, kind string }{
	{"UNIQUE constraint failed", Unique},
	{"FOREIGN KEY constraint failed", ForeignKey},
	{"CHECK constraint failed", Check},
}

// sqliteError is implemented by the errors of modernc.org/sqlite.
type sqliteError interface {
	Code() int
}

// Classify returns the kind of constraint a failed statement violated, or
// an empty string if err is not a constraint violation.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return mysqlKinds[me.Number]
	}
	var se sqliteError
	if errors.As(err, &se) {
		if kind, ok := sqliteKinds[se.Code()]; ok {
			return kind
		}
	}
	msg := err.Error()
	for _, m := range sqliteMessages {
		if strings.Contains(msg, m.text) {
			return m.kind
		}
	}
	return ""
}

package sql

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/syssam/recordkit/dialect"
)

// Escaper escapes strings for safe embedding inside a single-quoted SQL
// literal. Normalize converts arbitrary input to valid UTF-8 and is applied
// before Escape by callers that accept untrusted bytes.
type Escaper interface {
	Escape(s string) string
	Normalize(s string) string
}

// EscaperFor returns the escaper matching the given dialect. Unknown
// dialects get the MySQL rules, which are the stricter of the two.
func EscaperFor(name string) Escaper {
	if name == dialect.SQLite {
		return sqliteEscaper{}
	}
	return mysqlEscaper{}
}

// mysqlEscaper follows mysql_real_escape_string.
type mysqlEscaper struct{}

var mysqlReplacer = strings.NewReplacer(
	"\\", `\\`,
	"'", `\'`,
	`"`, `\"`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

func (mysqlEscaper) Escape(s string) string {
	// Fast path: if no escaping needed, return as-is
	if !strings.ContainsAny(s, "\\'\"\x00\n\r\x1a") {
		return s
	}
	return mysqlReplacer.Replace(s)
}

func (mysqlEscaper) Normalize(s string) string { return normalizeUTF8(s) }

// sqliteEscaper doubles single quotes; backslashes have no meaning in SQLite
// string literals.
type sqliteEscaper struct{}

func (sqliteEscaper) Escape(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	return strings.ReplaceAll(s, "'", "''")
}

func (sqliteEscaper) Normalize(s string) string { return normalizeUTF8(s) }

// normalizeUTF8 returns s unchanged when it is valid UTF-8. Otherwise the
// input is assumed to be Windows-1252, the usual source of stray bytes in
// legacy data, and transcoded.
func normalizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "\uFFFD")
	}
	return out
}
